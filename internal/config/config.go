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
	Server     ServerConfig     `yaml:"server"`
	Popup      PopupConfig      `yaml:"popup"`
	Storage    StorageConfig    `yaml:"storage"`
	Newsletter NewsletterConfig `yaml:"newsletter"`
	CORS       CORSConfig       `yaml:"cors"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the bind host, defaulting to localhost
func (c ServerConfig) GetHost() string {
	if c.Host == "" {
		return "localhost"
	}
	return c.Host
}

// PopupConfig holds the engagement gate tunables
type PopupConfig struct {
	TimeoutInMs                        int      `yaml:"timeout_in_ms"`
	ContentScrollThresholdInPercentage int      `yaml:"content_scroll_threshold_in_percentage"`
	TargetPathPrefixes                 []string `yaml:"target_path_prefixes"`
	SessionTTLMinutes                  int      `yaml:"session_ttl_minutes"`
	AllowedReferrerDomains             []string `yaml:"allowed_referrer_domains"`
}

// Timeout returns the dwell duration
func (c PopupConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutInMs) * time.Millisecond
}

// SessionTTL returns how long an idle page-view session is kept
func (c PopupConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// StorageConfig holds exposure record persistence settings
type StorageConfig struct {
	Type          string `yaml:"type"` // "redis", "postgres", "dynamodb", "local"
	KeyPrefix     string `yaml:"key_prefix"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	DatabaseURL   string `yaml:"database_url"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"`
	LocalPath     string `yaml:"local_path"`
}

// NewsletterConfig holds the RSS feed used for the popup's preview content
type NewsletterConfig struct {
	FeedURL        string `yaml:"feed_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PreviewItems   int    `yaml:"preview_items"`
	CacheMinutes   int    `yaml:"cache_minutes"`
}

// CORSConfig holds browser origin settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Popup.TimeoutInMs == 0 {
		cfg.Popup.TimeoutInMs = 6000
	}
	if cfg.Popup.ContentScrollThresholdInPercentage == 0 {
		cfg.Popup.ContentScrollThresholdInPercentage = 35
	}
	if cfg.Popup.SessionTTLMinutes == 0 {
		cfg.Popup.SessionTTLMinutes = 30
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "polite-popup"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data"
	}
	if cfg.Storage.RedisAddr == "" {
		cfg.Storage.RedisAddr = "localhost:6379"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Newsletter.TimeoutSeconds == 0 {
		cfg.Newsletter.TimeoutSeconds = 10
	}
	if cfg.Newsletter.PreviewItems == 0 {
		cfg.Newsletter.PreviewItems = 5
	}
	if cfg.Newsletter.CacheMinutes == 0 {
		cfg.Newsletter.CacheMinutes = 5
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
		if cfg.Storage.Type == "local" {
			cfg.Storage.Type = "redis"
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.RedisPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
		if cfg.Storage.Type == "local" {
			cfg.Storage.Type = "postgres"
		}
	}
	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		cfg.Storage.DynamoDBTable = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("NEWSLETTER_FEED_URL"); v != "" {
		cfg.Newsletter.FeedURL = v
	}

	return cfg, nil
}
