package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the marketplace client.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := core.NewConfig(
//	    core.WithBaseURL("https://api.conexioncampesina.co"),
//	    core.WithStorageProvider("file"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// BaseURL is the root of the marketplace REST API. Required.
	BaseURL string `yaml:"base_url"`

	// HTTP client configuration
	HTTP HTTPConfig `yaml:"http"`

	// Storage configuration for persisted stores (cart, token)
	Storage StorageConfig `yaml:"storage"`

	// Stream configuration for the notification consumer
	Stream StreamConfig `yaml:"stream"`

	// Telemetry configuration (optional)
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// fileErr records a failed WithConfigFile load for Validate.
	fileErr error
}

// HTTPConfig contains HTTP client configuration.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// StorageConfig selects the persistence backend for the client stores.
// Providers: "memory" (volatile, tests), "file" (durable local JSON),
// "redis" (shared state for headless deployments).
type StorageConfig struct {
	Provider  string `yaml:"provider"`
	Dir       string `yaml:"dir"`
	RedisURL  string `yaml:"redis_url"`
	Namespace string `yaml:"namespace"`
}

// StreamConfig contains notification stream settings. ReconnectDelay
// applies to every reconnect attempt; there is no backoff growth, the
// server is expected back at the same address.
type StreamConfig struct {
	Path           string        `yaml:"path"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// TelemetryConfig contains observability configuration. Tracing is
// only wired when Enabled=true. When Endpoint is set, spans ship to
// an OTLP gRPC collector at that address; otherwise they go to
// stdout.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Option is a functional option for configuring the client
type Option func(*Config)

// DefaultConfig returns a Config with sensible defaults applied
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "conexion-campesina-go",
		},
		Storage: StorageConfig{
			Provider:  "file",
			Dir:       defaultStateDir(),
			Namespace: "campesina",
		},
		Stream: StreamConfig{
			Path:           "notifications/stream",
			ReconnectDelay: 5 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "conexion-campesina-client",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "campesina"
	}
	return ".campesina"
}

// LoadFromEnv applies environment variables on top of the current
// values. Variables use the CAMPESINA_ prefix; REDIS_URL is also
// honored as a standard fallback.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("CAMPESINA_API_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CAMPESINA_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("CAMPESINA_STORAGE_PROVIDER"); v != "" {
		c.Storage.Provider = v
	}
	if v := os.Getenv("CAMPESINA_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("CAMPESINA_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("CAMPESINA_STREAM_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Stream.ReconnectDelay = d
		}
	}
	if v := os.Getenv("CAMPESINA_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("CAMPESINA_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("CAMPESINA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// LoadFromFile merges a YAML config file into the current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for basic consistency
func (c *Config) Validate() error {
	if c.fileErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, c.fileErr)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL (CAMPESINA_API_URL)", ErrMissingConfiguration)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("%w: base URL must start with http:// or https://", ErrInvalidConfiguration)
	}
	switch c.Storage.Provider {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("%w: unknown storage provider %q", ErrInvalidConfiguration, c.Storage.Provider)
	}
	if c.Storage.Provider == "redis" && c.Storage.RedisURL == "" {
		return fmt.Errorf("%w: redis storage requires a redis URL", ErrMissingConfiguration)
	}
	if c.Stream.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: stream reconnect delay must be positive", ErrInvalidConfiguration)
	}
	return nil
}

// NewConfig builds a Config from defaults, environment variables and
// functional options, in that priority order, and validates it.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithBaseURL sets the marketplace API base URL
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPTimeout sets the request timeout for the HTTP client
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTP.Timeout = timeout
	}
}

// WithStorageProvider selects the persistence backend
func WithStorageProvider(provider string) Option {
	return func(c *Config) {
		c.Storage.Provider = provider
	}
}

// WithStorageDir sets the directory used by the file storage backend
func WithStorageDir(dir string) Option {
	return func(c *Config) {
		c.Storage.Dir = dir
	}
}

// WithRedisURL sets the Redis connection URL and selects redis storage
func WithRedisURL(url string) Option {
	return func(c *Config) {
		c.Storage.RedisURL = url
		c.Storage.Provider = "redis"
	}
}

// WithReconnectDelay sets the fixed delay between stream reconnects
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Config) {
		c.Stream.ReconnectDelay = d
	}
}

// WithTelemetry enables tracing with the given service name
func WithTelemetry(enabled bool, serviceName string) Option {
	return func(c *Config) {
		c.Telemetry.Enabled = enabled
		if serviceName != "" {
			c.Telemetry.ServiceName = serviceName
		}
	}
}

// WithTelemetryEndpoint points span export at an OTLP gRPC collector
// instead of stdout. Implies nothing about Enabled; combine with
// WithTelemetry.
func WithTelemetryEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Telemetry.Endpoint = endpoint
	}
}

// WithLogLevel sets the logging level (debug, info, warn, error)
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.Logging.Level = level
	}
}

// WithConfigFile loads configuration from a YAML file. File values
// apply at option priority, on top of defaults and environment. A
// missing or malformed file is recorded and reported by Validate so
// a typo'd path cannot silently degrade to defaults.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		if err := c.LoadFromFile(path); err != nil {
			c.fileErr = fmt.Errorf("config file %s: %w", path, err)
		}
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
