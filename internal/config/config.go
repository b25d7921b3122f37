package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL           MySQLConfig
	Redis           RedisConfig
	JWT             JWTConfig
	Migrate         bool
	HTTPAddr        string
	Edge            EdgeConfig
	Postmark        PostmarkConfig
	GracePeriod     GracePeriodConfig
	ExpiryScheduler ExpirySchedulerConfig
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// EdgeConfig holds the Cloudflare custom hostname configuration
type EdgeConfig struct {
	ZoneID      string
	Email       string
	APIToken    string
	CNAMETarget string
}

// PostmarkConfig holds Postmark configuration. Empty tokens switch the
// notifier to log-only mode.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	FromEmail    string
}

// GracePeriodConfig holds grace period configuration
type GracePeriodConfig struct {
	Days int
}

// ExpirySchedulerConfig holds expiry scheduler configuration
type ExpirySchedulerConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "linkhub"),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Edge: EdgeConfig{
			ZoneID:      getEnv("CF_ZONE_ID", ""),
			Email:       getEnv("CF_EMAIL", ""),
			APIToken:    getEnv("CF_API_TOKEN", ""),
			CNAMETarget: getEnv("EDGE_CNAME_TARGET", "edge.linkhub.app"),
		},
		Postmark: PostmarkConfig{
			ServerToken:  getEnv("POSTMARK_SERVER_TOKEN", ""),
			AccountToken: getEnv("POSTMARK_ACCOUNT_TOKEN", ""),
			FromEmail:    getEnv("POSTMARK_FROM_EMAIL", ""),
		},
		GracePeriod: GracePeriodConfig{
			Days: getEnvInt("GRACE_PERIOD_DAYS", 7),
		},
		ExpiryScheduler: ExpirySchedulerConfig{
			Enabled:     getEnv("EXPIRY_SCHEDULER_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("EXPIRY_SCHEDULER_INTERVAL_SEC", 3600),
			BatchSize:   getEnvInt("EXPIRY_SCHEDULER_BATCH_SIZE", 50),
		},
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	// Load INI file
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Helper function: get value with priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		// Priority 1: Environment variable
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		// Priority 2: INI file
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		// Priority 3: Default value
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		// Priority 1: Environment variable
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		// Priority 2: INI file
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		// Priority 3: Default value
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		// Priority 1: Environment variable
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		// Priority 2: INI file
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		// Priority 3: Default value
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_seconds", 86400) / 60,
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "linkhub"),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
		Edge: EdgeConfig{
			ZoneID:      getValue("CF_ZONE_ID", "edge", "zone_id", ""),
			Email:       getValue("CF_EMAIL", "edge", "email", ""),
			APIToken:    getValue("CF_API_TOKEN", "edge", "api_token", ""),
			CNAMETarget: getValue("EDGE_CNAME_TARGET", "edge", "cname_target", "edge.linkhub.app"),
		},
		Postmark: PostmarkConfig{
			ServerToken:  getValue("POSTMARK_SERVER_TOKEN", "postmark", "server_token", ""),
			AccountToken: getValue("POSTMARK_ACCOUNT_TOKEN", "postmark", "account_token", ""),
			FromEmail:    getValue("POSTMARK_FROM_EMAIL", "postmark", "from_email", ""),
		},
		GracePeriod: GracePeriodConfig{
			Days: getValueInt("GRACE_PERIOD_DAYS", "grace_period", "days", 7),
		},
		ExpiryScheduler: ExpirySchedulerConfig{
			Enabled:     getValueBool("EXPIRY_SCHEDULER_ENABLED", "expiry_scheduler", "enabled", true),
			IntervalSec: getValueInt("EXPIRY_SCHEDULER_INTERVAL_SEC", "expiry_scheduler", "interval_sec", 3600),
			BatchSize:   getValueInt("EXPIRY_SCHEDULER_BATCH_SIZE", "expiry_scheduler", "batch_size", 50),
		},
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
