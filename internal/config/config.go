package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by finder.
const EnvPrefix = "FINDER"

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	// pgx talks to Postgres directly; postgres, mysql and sqlite go through GORM.
	DBDriver string `envconfig:"DB_DRIVER" default:"pgx"`

	CatalogPath    string `envconfig:"CATALOG_PATH" default:"catalog.yaml"`
	DefaultPerPage int    `envconfig:"DEFAULT_PER_PAGE" default:"20"`
	MaxPerPage     int    `envconfig:"MAX_PER_PAGE" default:"100"`

	UsersTable      string `envconfig:"USERS_TABLE" default:"users"`
	UsersNameColumn string `envconfig:"USERS_NAME_COLUMN" default:"name"`

	// AdminTokens maps bearer tokens to user ids, e.g. "s3cret:42,other:7".
	AdminTokens map[string]int64 `envconfig:"ADMIN_TOKENS"`

	EnableSearchLogs bool `envconfig:"ENABLE_SEARCH_LOGS" default:"false"`
	LogUserIDs       bool `envconfig:"LOG_USER_IDS" default:"false"`

	SearchLogRetentionDays int           `envconfig:"SEARCH_LOG_RETENTION_DAYS" default:"0"`
	RetentionInterval      time.Duration `envconfig:"RETENTION_INTERVAL" default:"1h"`

	SentryDSN        string  `envconfig:"SENTRY_DSN"`
	Environment      string  `envconfig:"ENVIRONMENT" default:"development"`
	TracesSampleRate float64 `envconfig:"TRACES_SAMPLE_RATE" default:"1.0"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"finder-exports"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.DefaultPerPage < 1 {
		return nil, fmt.Errorf("failed to process config: %s_DEFAULT_PER_PAGE must be positive", EnvPrefix)
	}
	if cfg.RetentionInterval <= 0 {
		return nil, fmt.Errorf("failed to process config: %s_RETENTION_INTERVAL must be positive", EnvPrefix)
	}
	if cfg.MaxPerPage < cfg.DefaultPerPage {
		cfg.MaxPerPage = cfg.DefaultPerPage
	}

	return &cfg, nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// Retention returns how long search logs are kept; zero disables pruning.
func (c *Config) Retention() time.Duration {
	if c.SearchLogRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.SearchLogRetentionDays) * 24 * time.Hour
}
