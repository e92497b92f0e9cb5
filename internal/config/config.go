package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Tracking TrackingConfig `yaml:"tracking"`
	Redis    RedisConfig    `yaml:"redis"`
	Sender   SenderConfig   `yaml:"sender"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig selects and locates the relational store.
// Driver "sqlite" keeps a tracker.db file under DataDir; driver "postgres"
// connects via DatabaseURL.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	DataDir     string `yaml:"data_dir"`
	DatabaseURL string `yaml:"database_url"`
}

// TrackingConfig holds tracking URL construction and register throttling settings
type TrackingConfig struct {
	// BaseURL is the externally-reachable base for tracking URLs. When empty,
	// the inbound request's own host is used instead.
	BaseURL           string `yaml:"base_url"`
	RegisterRateLimit int    `yaml:"register_rate_limit"`
	RateWindowSeconds int    `yaml:"rate_window_seconds"`
	LogTimeoutSeconds int    `yaml:"log_timeout_seconds"`
}

// RateWindow returns the rate limiter window as a duration
func (c TrackingConfig) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}

// LogTimeout returns the bounded open-event write timeout as a duration
func (c TrackingConfig) LogTimeout() time.Duration {
	return time.Duration(c.LogTimeoutSeconds) * time.Second
}

// RedisConfig holds the optional Redis connection for register rate limiting
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SenderConfig holds settings for the tracked-email sender binary
type SenderConfig struct {
	// Provider is "smtp" or "ses"
	Provider    string     `yaml:"provider"`
	APIURL      string     `yaml:"api_url"`
	FromAddress string     `yaml:"from_address"`
	SMTP        SMTPConfig `yaml:"smtp"`
	SES         SESConfig  `yaml:"ses"`
}

// SMTPConfig holds mail-submission credentials
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SESConfig holds AWS SES v2 API configuration
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Load reads and parses the configuration file. A missing file is not an
// error; defaults apply so the server can run with no config at all.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "."
	}
	if cfg.Tracking.RegisterRateLimit == 0 {
		cfg.Tracking.RegisterRateLimit = 60
	}
	if cfg.Tracking.RateWindowSeconds == 0 {
		cfg.Tracking.RateWindowSeconds = 60
	}
	if cfg.Tracking.LogTimeoutSeconds == 0 {
		cfg.Tracking.LogTimeoutSeconds = 2
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Sender.Provider == "" {
		cfg.Sender.Provider = "smtp"
	}
	if cfg.Sender.APIURL == "" {
		cfg.Sender.APIURL = "http://localhost:8080"
	}
	if cfg.Sender.SMTP.Port == 0 {
		cfg.Sender.SMTP.Port = 587
	}
	if cfg.Sender.SES.Region == "" {
		cfg.Sender.SES.Region = "us-west-2"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Storage.DataDir = dir
	}
	// Database override (critical for deployments where config.yaml has local defaults)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Storage.DatabaseURL = dbURL
		cfg.Storage.Driver = "postgres"
	}
	if baseURL := os.Getenv("TRACKING_SERVER_URL"); baseURL != "" {
		cfg.Tracking.BaseURL = baseURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// Sender overrides
	if v := os.Getenv("TRACKING_API_URL"); v != "" {
		cfg.Sender.APIURL = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.Sender.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Sender.SMTP.Port = p
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Sender.SMTP.Username = v
		if cfg.Sender.FromAddress == "" {
			cfg.Sender.FromAddress = v
		}
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Sender.SMTP.Password = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Sender.SES.Region = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Sender.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Sender.SES.SecretKey = v
	}

	return cfg, nil
}
