package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/castellan-home/castellan/pkg/adapters"
	"github.com/castellan-home/castellan/pkg/config"
	"github.com/castellan-home/castellan/pkg/db"
	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/gateway"
	"github.com/castellan-home/castellan/pkg/integration"
	castellanmcp "github.com/castellan-home/castellan/pkg/mcp"
	"github.com/castellan-home/castellan/pkg/session"
)

func main() {
	// Logging must go to stderr; stdout is the MCP transport
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
	defer sweeper.Stop()

	// Device registry
	registry := device.NewRegistry(adapters.NewFactory(sessions, adapters.NewDefaultClients()))
	for _, d := range cfg.Devices {
		if _, err := registry.Register(ctx, d.Name, device.Family(d.Family), d.DeviceSettings()); err != nil {
			log.Fatal().Err(err).Str("device", d.Name).Msg("Failed to register device")
		}
	}
	defer registry.Close()

	dispatcher := gateway.NewDispatcher(registry)

	// Create and start MCP server
	mcpServer := castellanmcp.NewServer(registry, dispatcher)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
