package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yigit/internhub/internal/pkg/validation"
)

// RoleQuota assigns a guidance quota to teachers whose role contains Keyword.
type RoleQuota struct {
	Keyword string `yaml:"keyword" validate:"required"`
	Quota   int    `yaml:"quota" validate:"gte=0"`
}

// Config structure represents the application configuration
type Config struct {
	Database struct {
		Host            string `yaml:"host" env:"DB_HOST" validate:"required"`
		Port            string `yaml:"port" env:"DB_PORT" validate:"required"`
		User            string `yaml:"user" env:"DB_USER" validate:"required"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME" validate:"required"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		URL             string `yaml:"url" env:"DATABASE_URL"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" validate:"gte=0"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" validate:"gte=1"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		TxTimeout       string `yaml:"tx_timeout" env:"DB_TX_TIMEOUT"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal"`
		Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=json text"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr     string `yaml:"addr" env:"REDIS_ADDRESS" validate:"required_if=Enabled true"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB" validate:"gte=0"`
	} `yaml:"redis"`

	Import struct {
		HeaderScanRows         int    `yaml:"header_scan_rows" env:"IMPORT_HEADER_SCAN_ROWS" validate:"gte=1"`
		DefaultMergeMode       string `yaml:"default_merge_mode" env:"IMPORT_DEFAULT_MERGE_MODE" validate:"oneof=overwrite fill_empty"`
		TeacherCodePrefix      string `yaml:"teacher_code_prefix" env:"IMPORT_TEACHER_CODE_PREFIX" validate:"required"`
		TeacherCodeWidth       int    `yaml:"teacher_code_width" env:"IMPORT_TEACHER_CODE_WIDTH" validate:"gte=1,lte=12"`
		PlaceholderEmailDomain string `yaml:"placeholder_email_domain" env:"IMPORT_PLACEHOLDER_EMAIL_DOMAIN" validate:"required,hostname"`
		PhoneRegion            string `yaml:"phone_region" env:"IMPORT_PHONE_REGION" validate:"len=2"`
		AutoAssign             bool   `yaml:"auto_assign" env:"IMPORT_AUTO_ASSIGN"`
		ArchiveDir             string `yaml:"archive_dir" env:"IMPORT_ARCHIVE_DIR"`
	} `yaml:"import"`

	Assignment struct {
		RoleQuotas            []RoleQuota `yaml:"role_quotas" validate:"dive"`
		DefaultQuota          int         `yaml:"default_quota" env:"ASSIGN_DEFAULT_QUOTA" validate:"gte=0"`
		RunLockTTL            string      `yaml:"run_lock_ttl" env:"ASSIGN_RUN_LOCK_TTL"`
		CompanyMatchThreshold float64     `yaml:"company_match_threshold" env:"ASSIGN_COMPANY_MATCH_THRESHOLD" validate:"gte=0,lte=1"`
	} `yaml:"assignment"`
}

// LoadConfig loads configuration from a file, an optional .env file and
// environment variables, in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Set default values
	setDefaults(config)

	// Load from file if exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env fills variables the shell did not set
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv reads .env from the working directory; a missing file is fine.
// Variables already present in the process environment win.
func loadDotEnv() error {
	path := GetEnv("INTERNHUB_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "internhub"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.TxTimeout = "30s"
	config.Database.MigrationsDir = "migrations"

	config.Logging.Level = "info"
	config.Logging.Format = "text"

	config.Redis.Addr = "localhost:6379"

	config.Import.HeaderScanRows = 10
	config.Import.DefaultMergeMode = "fill_empty"
	config.Import.TeacherCodePrefix = "GV"
	config.Import.TeacherCodeWidth = 3
	config.Import.PlaceholderEmailDomain = "placeholder.internhub.local"
	config.Import.PhoneRegion = "VN"
	config.Import.ArchiveDir = "archive"

	// Longer keywords first: "trưởng khoa" is a substring of "phó trưởng khoa"
	config.Assignment.RoleQuotas = []RoleQuota{
		{Keyword: "phó trưởng khoa", Quota: 5},
		{Keyword: "trưởng khoa", Quota: 3},
	}
	config.Assignment.DefaultQuota = 10
	config.Assignment.RunLockTTL = "5m"
	config.Assignment.CompanyMatchThreshold = 0.5
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if err := validation.Struct(config); err != nil {
		return err
	}

	// Duration fields stay strings for YAML but must still parse
	durations := map[string]string{
		"database.conn_max_lifetime": config.Database.ConnMaxLifetime,
		"database.tx_timeout":        config.Database.TxTimeout,
		"assignment.run_lock_ttl":    config.Assignment.RunLockTTL,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	// A full URL, e.g. from a hosting provider, wins over the parts
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	switch strings.ToLower(valueStr) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	// Fall back to Go's own spellings, e.g. "T" or "FALSE"
	if b, err := strconv.ParseBool(valueStr); err == nil {
		return b
	}
	return defaultValue
}
