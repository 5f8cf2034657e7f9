package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the doorbell client daemon.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Client    ClientConfig    `yaml:"client"`
	Identity  IdentityConfig  `yaml:"identity"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Push      PushConfig      `yaml:"push"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ClientConfig identifies this install.
type ClientConfig struct {
	// Name is a human-readable label for this install (e.g. "kitchen-tablet").
	Name string `yaml:"name"`
}

// IdentityConfig contains settings for the remote identity/user-directory service.
type IdentityConfig struct {
	// BaseURL is the root URL of the identity service (e.g. "https://api.example.com").
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// DatabaseConfig contains SQLite database settings for the local client store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
// The broker carries the push-notification delivery channel.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains broker endpoint settings.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	TLS      bool   `yaml:"tls"`
}

// MQTTAuthConfig contains broker credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig controls reconnection backoff (values in seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// PushConfig controls push-subscription synchronisation behaviour.
type PushConfig struct {
	// Platform selects the permission flow: "web" prompts at most once per
	// install (durable flag), "native" always defers to the OS-level flow.
	Platform string `yaml:"platform"`

	// ReadyPollInterval is how often to poll for provider readiness, in
	// milliseconds. The web provider may not be ready at process start.
	ReadyPollInterval int `yaml:"ready_poll_interval"`

	// ReadyWaitCeiling is the maximum total time to wait for provider
	// readiness, in seconds. Zero waits until teardown.
	ReadyWaitCeiling int `yaml:"ready_wait_ceiling"`

	// LoginSyncDelay is how long after a successful login to wait before
	// running subscription sync, in milliseconds. Gives the provider time
	// to warm up.
	LoginSyncDelay int `yaml:"login_sync_delay"`
}

// APIConfig contains the loopback HTTP API settings for the UI layer.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP server timeouts (values in seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains settings for the UI event stream.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains settings for the optional session telemetry sink.
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

// Platform values for PushConfig.Platform.
const (
	PlatformWeb    = "web"
	PlatformNative = "native"
)

// Load reads, parses, and validates configuration from a YAML file.
//
// Load applies defaults first, then the file contents, then environment
// variable overrides, and finally validates the result.
//
// Parameters:
//   - path: Filesystem path to the YAML config file
//
// Returns:
//   - *Config: Validated configuration
//   - error: If reading, parsing, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Name: "doorbell-client",
		},
		Identity: IdentityConfig{
			Timeout: 15,
		},
		Database: DatabaseConfig{
			Path:        "./data/doorbell.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Push: PushConfig{
			Platform:          PlatformNative,
			ReadyPollInterval: 100,
			ReadyWaitCeiling:  30,
			LoginSyncDelay:    1000,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8137,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies DOORBELL_* environment variables on top of the
// file configuration. Only settings that change between deploys (paths,
// endpoints, credentials) are overridable.
func applyEnvOverrides(cfg *Config) {
	// Identity service
	if v := os.Getenv("DOORBELL_IDENTITY_URL"); v != "" {
		cfg.Identity.BaseURL = v
	}

	// Database
	if v := os.Getenv("DOORBELL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("DOORBELL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DOORBELL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DOORBELL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("DOORBELL_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("DOORBELL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Identity validation
	if c.Identity.BaseURL == "" {
		errs = append(errs, "identity.base_url is required (set DOORBELL_IDENTITY_URL environment variable)")
	}
	if c.Identity.Timeout <= 0 {
		errs = append(errs, "identity.timeout must be positive")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Push validation
	if c.Push.Platform != PlatformWeb && c.Push.Platform != PlatformNative {
		errs = append(errs, `push.platform must be "web" or "native"`)
	}
	if c.Push.ReadyPollInterval <= 0 {
		errs = append(errs, "push.ready_poll_interval must be positive")
	}
	if c.Push.LoginSyncDelay < 0 {
		errs = append(errs, "push.login_sync_delay must not be negative")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetIdentityTimeout returns the identity request timeout as a Duration.
func (c *Config) GetIdentityTimeout() time.Duration {
	return time.Duration(c.Identity.Timeout) * time.Second
}

// GetReadyPollInterval returns the push readiness poll interval as a Duration.
func (c *Config) GetReadyPollInterval() time.Duration {
	return time.Duration(c.Push.ReadyPollInterval) * time.Millisecond
}

// GetReadyWaitCeiling returns the push readiness wait ceiling as a Duration.
// Zero means wait until teardown.
func (c *Config) GetReadyWaitCeiling() time.Duration {
	return time.Duration(c.Push.ReadyWaitCeiling) * time.Second
}

// GetLoginSyncDelay returns the post-login sync delay as a Duration.
func (c *Config) GetLoginSyncDelay() time.Duration {
	return time.Duration(c.Push.LoginSyncDelay) * time.Millisecond
}
