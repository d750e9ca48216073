// ABOUTME: Configuration loading and parsing for appsec-gateway
// ABOUTME: Supports YAML files with environment variable expansion plus an env-only profile

package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is the placeholder signing secret used when none is
// configured. It exists so development setups work out of the box; serving
// with it is logged loudly and must never happen in production.
const DefaultJWTSecret = "your-secret-key-change-in-production"

// DefaultTokenTTL is the validity window for issued bearer tokens.
const DefaultTokenTTL = 7 * 24 * time.Hour

// DefaultMetricsPath is where the metrics endpoint is served when no path
// is configured.
const DefaultMetricsPath = "/metrics"

// Config represents the complete appsec-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Agent    AgentConfig    `yaml:"agent"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" env:"APPSEC_HTTP_ADDR, default=localhost:3001"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" env:"APPSEC_DB_PATH, default=data/users.db"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"APPSEC_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TokenTTLRaw string `yaml:"token_ttl" env:"APPSEC_TOKEN_TTL"`
}

// AgentConfig holds configuration for the external analysis agent
type AgentConfig struct {
	APIKey      string        `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Endpoint    string        `yaml:"endpoint" env:"APPSEC_AGENT_ENDPOINT, default=http://localhost:8700"`
	Environment string        `yaml:"environment" env:"APPSEC_AGENT_ENV, default=development"`
	DefaultRole string        `yaml:"default_role" env:"APPSEC_AGENT_ROLE, default=simple_query_agent"`
	Verbose     bool          `yaml:"verbose" env:"APPSEC_AGENT_VERBOSE"`
	ReportsDir  string        `yaml:"reports_dir" env:"APPSEC_REPORTS_DIR, default=reports"`
	Timeout     time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout" env:"APPSEC_AGENT_TIMEOUT"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"APPSEC_LOG_LEVEL, default=info"`
	Format string `yaml:"format" env:"APPSEC_LOG_FORMAT"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"APPSEC_METRICS_ENABLED, default=true"`
	Path    string `yaml:"path" env:"APPSEC_METRICS_PATH, default=/metrics"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := finalize(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadEnv builds a Config entirely from environment variables. Used when no
// config file exists; the deployment model this replaces was a plain .env
// file, so every field has an env binding.
func LoadEnv(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := finalize(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// finalize parses duration fields, applies defaults, and validates.
func finalize(cfg *Config) error {
	if err := parseDurations(cfg); err != nil {
		return fmt.Errorf("parsing durations: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DefaultJWTSecret
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}

// InsecureSecret reports whether the gateway is running with the placeholder
// JWT signing secret.
func (c *Config) InsecureSecret() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	if cfg.Agent.TimeoutRaw != "" {
		cfg.Agent.Timeout, err = time.ParseDuration(cfg.Agent.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing agent timeout %q: %w", cfg.Agent.TimeoutRaw, err)
		}
	}

	return nil
}
