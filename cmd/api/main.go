package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/castellan-home/castellan/pkg/adapters"
	"github.com/castellan-home/castellan/pkg/api"
	"github.com/castellan-home/castellan/pkg/config"
	"github.com/castellan-home/castellan/pkg/db"
	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/events"
	"github.com/castellan-home/castellan/pkg/gateway"
	"github.com/castellan-home/castellan/pkg/integration"
	"github.com/castellan-home/castellan/pkg/session"

	_ "github.com/castellan-home/castellan/docs"
)

// @title           Castellan API
// @version         1.0
// @description     REST gateway for dispatching actions to smart home devices

// @host      localhost:8095
// @BasePath  /api/v1
// @schemes   http https

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	configPath := flag.String("config", "castellan.yaml", "Path to configuration file")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/castellan/castellan.db)")
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	log.Info().
		Str("api_address", cfg.API.Addr()).
		Int("devices", len(cfg.Devices)).
		Bool("mqtt", cfg.MQTT.Enabled).
		Msg("Configuration loaded")

	// Open database
	if *dbPath == "" {
		*dbPath = cfg.Database.Path
	}
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Sessions: static credentials from config, refreshed tokens in SQLite
	store := session.NewStaticStore()
	for _, d := range cfg.Devices {
		store.Add(d.Name, session.Credentials{
			Username:     d.Username,
			Password:     d.Password,
			ClientID:     d.ClientID,
			ClientSecret: d.ClientSecret,
			RefreshToken: d.RefreshToken,
			TokenURL:     d.TokenURL,
		})
	}

	sessions := session.NewManager(store, integration.NewOAuthExchanger(),
		session.WithTokenCache(db.NewSessionCache(database)),
		session.WithRefreshMargin(cfg.Session.RefreshMargin.Std()),
	)

	sweeper := session.NewSweeper(sessions)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start session sweeper")
	}

	// MQTT event publishing, when enabled
	var dispatcherOpts []gateway.Option
	var registryOpts []device.Option
	var publisher *events.Publisher
	if cfg.MQTT.Enabled {
		publisher, err = events.NewPublisher(events.Config{
			Host:        cfg.MQTT.Host,
			Port:        cfg.MQTT.Port,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
		}
		dispatcherOpts = append(dispatcherOpts, gateway.WithEventSink(publisher))
		registryOpts = append(registryOpts, device.WithStateListener(func(name string, state device.ConnectionState) {
			publisher.ConnectionStateChanged(name, string(state))
		}))
	}

	// Device registry
	registry := device.NewRegistry(adapters.NewFactory(sessions, adapters.NewDefaultClients()), registryOpts...)
	for _, d := range cfg.Devices {
		if _, err := registry.Register(ctx, d.Name, device.Family(d.Family), d.DeviceSettings()); err != nil {
			log.Fatal().Err(err).Str("device", d.Name).Msg("Failed to register device")
		}
	}

	dispatcher := gateway.NewDispatcher(registry, dispatcherOpts...)

	// Create and start API router
	router := api.NewRouter(registry, dispatcher)

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		sweeper.Stop()
		registry.Close()
		if publisher != nil {
			publisher.Close()
		}
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
		os.Exit(0)
	}()

	// Start server
	addr := cfg.API.Addr()
	log.Info().Str("address", addr).Msg("Starting API server")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
