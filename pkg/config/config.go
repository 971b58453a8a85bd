// Package config loads gateway configuration from a YAML file and
// applies defaults and validation before anything starts.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/castellan-home/castellan/pkg/device"
)

// Config is the root configuration document.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Session  SessionConfig  `yaml:"session"`
	Devices  []DeviceConfig `yaml:"devices"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address in host:port form.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// DatabaseConfig configures the SQLite session cache.
type DatabaseConfig struct {
	// Path to the database file. Empty means the per-user default
	// (~/.config/castellan/castellan.db).
	Path string `yaml:"path"`
}

// MQTTConfig configures the optional action-event publisher.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

// Duration wraps time.Duration so YAML values like "90s" or "2m" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SessionConfig tunes token refresh behavior.
type SessionConfig struct {
	// RefreshMargin is how long before expiry a token counts as stale.
	RefreshMargin Duration `yaml:"refresh_margin"`
}

// DeviceConfig declares one device to register at startup.
type DeviceConfig struct {
	Name   string `yaml:"name"`
	Family string `yaml:"family"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	TokenURL     string `yaml:"token_url"`

	EagerConnect bool `yaml:"eager_connect"`
}

// DeviceSettings converts a DeviceConfig into the registry's device.Config.
func (d DeviceConfig) DeviceSettings() device.Config {
	return device.Config{
		Host:         d.Host,
		Port:         d.Port,
		Username:     d.Username,
		Password:     d.Password,
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		RefreshToken: d.RefreshToken,
		TokenURL:     d.TokenURL,
		EagerConnect: d.EagerConnect,
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8095,
		},
		MQTT: MQTTConfig{
			Port:        1883,
			ClientID:    "castellan",
			TopicPrefix: "castellan",
			QoS:         1,
		},
		Session: SessionConfig{
			RefreshMargin: Duration(time.Minute),
		},
	}
}

// Load reads and validates a configuration file. Missing optional
// sections fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for problems that would only
// surface later as confusing runtime errors.
func (c *Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}

	if c.MQTT.Enabled {
		if c.MQTT.Host == "" {
			return fmt.Errorf("mqtt.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
		}
	}

	if c.Session.RefreshMargin < 0 {
		return fmt.Errorf("session.refresh_margin must not be negative")
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("devices[%d]: duplicate device name %q", i, d.Name)
		}
		seen[d.Name] = true

		if !device.Family(d.Family).Valid() {
			return fmt.Errorf("devices[%d] (%s): unknown family %q", i, d.Name, d.Family)
		}
	}

	return nil
}
