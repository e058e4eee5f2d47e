package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Maison Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Modules   ModulesConfig   `yaml:"modules"`
	Guirlande GuirlandeConfig `yaml:"guirlande"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`

	// DevMode enables development-only conveniences such as registering
	// Test modules and relaxed CORS.
	DevMode bool `yaml:"dev_mode"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains module WebSocket endpoint settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// ModulesConfig contains module lifecycle settings.
type ModulesConfig struct {
	// EvictionTimeout is how long a registered but unvalidated module may
	// linger before it is deleted, in seconds.
	EvictionTimeout int `yaml:"eviction_timeout"`
}

// GuirlandeConfig contains settings for the Guirlande ambient light strip.
type GuirlandeConfig struct {
	// GPIOEnabled wires the colour output to the pigpio daemon on this
	// host. Off by default so dev machines run with the log sink only.
	GPIOEnabled bool `yaml:"gpio_enabled"`

	Pins GuirlandePinsConfig `yaml:"pins"`

	// CodeLength is the number of digits in the private access code.
	CodeLength int `yaml:"code_length"`

	// RotationInterval is the delay between preset rotations, in seconds.
	RotationInterval int `yaml:"rotation_interval"`

	// CrossfadeTick is the fade-to-black tick cadence during preset
	// handoff, in milliseconds.
	CrossfadeTick int `yaml:"crossfade_tick"`

	// HandoffPause is the dark pause between presets, in milliseconds.
	HandoffPause int `yaml:"handoff_pause"`
}

// GuirlandePinsConfig maps the three PWM output channels to GPIO pins.
type GuirlandePinsConfig struct {
	Red   int `yaml:"red"`
	Green int `yaml:"green"`
	Blue  int `yaml:"blue"`
}

// MQTTConfig contains MQTT broker connection settings for the event relay.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`

	// AccessTokenTTL is the access token lifetime, in minutes.
	AccessTokenTTL int `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MAISON_SECTION_KEY
// For example: MAISON_DATABASE_PATH, MAISON_JWT_SECRET
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "maison-001",
			Name:     "Maison",
			Timezone: "Europe/Paris",
		},
		Database: DatabaseConfig{
			Path:        "./data/maison.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws/module",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Modules: ModulesConfig{
			EvictionTimeout: 3600,
		},
		Guirlande: GuirlandeConfig{
			Pins:             GuirlandePinsConfig{Red: 17, Green: 22, Blue: 24},
			CodeLength:       8,
			RotationInterval: 600,
			CrossfadeTick:    20,
			HandoffPause:     2000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "maison-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAISON_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MAISON_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("MAISON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MAISON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MAISON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("MAISON_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	// JWT secret should always come from the environment in production.
	if v := os.Getenv("MAISON_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// minJWTSecretLength is the minimum accepted JWT secret length.
const minJWTSecretLength = 32

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.Modules.EvictionTimeout <= 0 {
		errs = append(errs, "modules.eviction_timeout must be positive")
	}
	if c.Guirlande.CodeLength < 4 {
		errs = append(errs, "guirlande.code_length must be at least 4")
	}
	if c.Guirlande.RotationInterval <= 0 {
		errs = append(errs, "guirlande.rotation_interval must be positive")
	}
	if c.Guirlande.CrossfadeTick <= 0 {
		errs = append(errs, "guirlande.crossfade_tick must be positive")
	}

	// The JWT secret gates every administrative surface, including module
	// validation. A weak secret would let anyone forge tokens and drive
	// physical devices.
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set MAISON_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// ModuleEvictionTimeout returns the module eviction window as a Duration.
func (c *Config) ModuleEvictionTimeout() time.Duration {
	return time.Duration(c.Modules.EvictionTimeout) * time.Second
}

// AccessTokenTTL returns the JWT access token lifetime as a Duration.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}

// Rotation returns the Guirlande preset rotation delay as a Duration.
func (g GuirlandeConfig) Rotation() time.Duration {
	return time.Duration(g.RotationInterval) * time.Second
}

// Crossfade returns the fade-to-black tick cadence as a Duration.
func (g GuirlandeConfig) Crossfade() time.Duration {
	return time.Duration(g.CrossfadeTick) * time.Millisecond
}

// Pause returns the dark pause between presets as a Duration.
func (g GuirlandeConfig) Pause() time.Duration {
	return time.Duration(g.HandoffPause) * time.Millisecond
}
