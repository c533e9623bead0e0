package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve in minimal containers

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/OscarCarPu/life-manager/internal/tasks"
)

const envPrefix = "LIFE_MANAGER_"

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config represents the application configuration
type Config struct {
	Server         ServerConfig         `json:"server"`
	Database       DatabaseConfig       `json:"database"`
	Redis          RedisConfig          `json:"redis"`
	Recommendation RecommendationConfig `json:"recommendation"`
	Scheduler      SchedulerConfig      `json:"scheduler"`
	Logging        LoggingConfig        `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	ReadTimeout    int    `json:"read_timeout_seconds"`
	WriteTimeout   int    `json:"write_timeout_seconds"`
	RequestTimeout int    `json:"request_timeout_seconds"`
	// CORSOrigins lists browser origins allowed to call the API.
	// Empty disables CORS headers; "*" allows any origin.
	CORSOrigins []string `json:"cors_origins"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig represents relational storage configuration
type DatabaseConfig struct {
	Driver          string `json:"driver"`
	Host            string `json:"host"`
	Port            int    `json:"port"`
	User            string `json:"user"`
	Password        string `json:"-"` // Never serialize password
	Name            string `json:"name"`
	SSLMode         string `json:"ssl_mode"`
	Path            string `json:"path"`
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime_seconds"`
	ConnectRetries  int    `json:"connect_retries"`
}

// DSN returns the connection string for the configured driver
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// RedisConfig represents the recommendation cache configuration
type RedisConfig struct {
	Enabled    bool   `json:"enabled"`
	Addr       string `json:"addr"`
	Password   string `json:"-"`
	DB         int    `json:"db"`
	TTLSeconds int    `json:"ttl_seconds"`
	KeyPrefix  string `json:"key_prefix"`
}

// TTL returns the cache entry lifetime
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// RecommendationConfig represents scoring configuration
type RecommendationConfig struct {
	Timezone     string        `json:"timezone"`
	DefaultLimit int           `json:"default_limit"`
	WeightsFile  string        `json:"weights_file,omitempty"`
	Weights      tasks.Weights `json:"weights"`
}

// Location resolves the configured timezone
func (r RecommendationConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

// SchedulerConfig represents the cache warmer schedule
type SchedulerConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "localhost",
			ReadTimeout:    30,
			WriteTimeout:   30,
			RequestTimeout: 15,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "life_manager",
			SSLMode:         "disable",
			Path:            "./data/life_manager.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnectRetries:  5,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			TTLSeconds: 300,
			KeyPrefix:  "life-manager:recommendations",
		},
		Recommendation: RecommendationConfig{
			Timezone:     "UTC",
			DefaultLimit: 10,
			Weights:      tasks.DefaultWeights(),
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
			Spec:    "5 0 * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from .env, environment variables and the
// optional weights file.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Don't fail if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()

	// Override with environment variables
	loadFromEnv(config)

	if config.Recommendation.WeightsFile != "" {
		weights, err := LoadWeightsFile(config.Recommendation.WeightsFile, config.Recommendation.Weights)
		if err != nil {
			return nil, err
		}
		config.Recommendation.Weights = weights
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	loadServerConfig(config)
	loadDatabaseConfig(config)
	loadRedisConfig(config)
	loadRecommendationConfig(config)
	loadSchedulerConfig(config)
	loadLoggingConfig(config)
}

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}

func setInt(key string, dst *int) {
	if v := getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v := getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setString(key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

// loadServerConfig loads server configuration from environment
func loadServerConfig(config *Config) {
	setInt("PORT", &config.Server.Port)
	setString("HOST", &config.Server.Host)
	setInt("READ_TIMEOUT_SECONDS", &config.Server.ReadTimeout)
	setInt("WRITE_TIMEOUT_SECONDS", &config.Server.WriteTimeout)
	setInt("REQUEST_TIMEOUT_SECONDS", &config.Server.RequestTimeout)
	if v := getenv("CORS_ORIGINS"); v != "" {
		config.Server.CORSOrigins = splitList(v)
	}
}

// splitList splits a comma separated value, dropping empty entries
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig(config *Config) {
	db := &config.Database
	setString("DB_DRIVER", &db.Driver)
	setString("DB_HOST", &db.Host)
	setInt("DB_PORT", &db.Port)
	setString("DB_USER", &db.User)
	setString("DB_PASSWORD", &db.Password)
	setString("DB_NAME", &db.Name)
	setString("DB_SSLMODE", &db.SSLMode)
	setString("DB_PATH", &db.Path)
	setInt("DB_MAX_OPEN_CONNS", &db.MaxOpenConns)
	setInt("DB_MAX_IDLE_CONNS", &db.MaxIdleConns)
	setInt("DB_CONN_MAX_LIFETIME_SECONDS", &db.ConnMaxLifetime)
	setInt("DB_CONNECT_RETRIES", &db.ConnectRetries)
}

// loadRedisConfig loads cache configuration from environment
func loadRedisConfig(config *Config) {
	setBool("REDIS_ENABLED", &config.Redis.Enabled)
	setString("REDIS_ADDR", &config.Redis.Addr)
	setString("REDIS_PASSWORD", &config.Redis.Password)
	setInt("REDIS_DB", &config.Redis.DB)
	setInt("REDIS_TTL_SECONDS", &config.Redis.TTLSeconds)
	setString("REDIS_KEY_PREFIX", &config.Redis.KeyPrefix)
}

func loadRecommendationConfig(config *Config) {
	setString("TIMEZONE", &config.Recommendation.Timezone)
	setInt("DEFAULT_LIMIT", &config.Recommendation.DefaultLimit)
	setString("WEIGHTS_FILE", &config.Recommendation.WeightsFile)
}

func loadSchedulerConfig(config *Config) {
	setBool("SCHEDULER_ENABLED", &config.Scheduler.Enabled)
	setString("SCHEDULER_SPEC", &config.Scheduler.Spec)
}

func loadLoggingConfig(config *Config) {
	setString("LOG_LEVEL", &config.Logging.Level)
	setString("LOG_FORMAT", &config.Logging.Format)
}

// LoadWeightsFile reads a YAML weights file and applies it over base. Keys
// absent from the file keep their base value; unknown keys are rejected.
func LoadWeightsFile(path string, base tasks.Weights) (tasks.Weights, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return base, fmt.Errorf("failed to read weights file: %w", err)
	}
	return ParseWeights(data, base)
}

// ParseWeights decodes YAML weight overrides onto base
func ParseWeights(data []byte, base tasks.Weights) (tasks.Weights, error) {
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return base, fmt.Errorf("failed to parse weights: %w", err)
	}

	weights := base
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &weights,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return base, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return base, fmt.Errorf("failed to decode weights: %w", err)
	}

	return weights, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("connect retries must be at least 1")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address cannot be empty when the cache is enabled")
		}
		if c.Redis.TTLSeconds <= 0 {
			return fmt.Errorf("redis ttl must be positive")
		}
	}

	if _, err := c.Recommendation.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Recommendation.Timezone, err)
	}
	if c.Recommendation.DefaultLimit < 0 {
		return fmt.Errorf("default limit cannot be negative")
	}
	if err := c.Recommendation.Weights.Validate(); err != nil {
		return err
	}

	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.Spec) == "" {
		return fmt.Errorf("scheduler spec cannot be empty when the scheduler is enabled")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Logging.Format)
	}

	return nil
}
