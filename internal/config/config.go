package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server configuration
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Storage: "redis" or "memory"
	StorageDriver string `yaml:"storage_driver"`
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	LedgerPrefix  string `yaml:"ledger_prefix"`

	// Catalog: "postgres" or "memory"
	CatalogDriver string         `yaml:"catalog_driver"`
	CatalogSeed   string         `yaml:"catalog_seed"`
	Database      DatabaseConfig `yaml:"database"`

	// Lifecycle
	CleanupMode         string `yaml:"cleanup_mode"`
	ClearLedgerOnLogout bool   `yaml:"clear_ledger_on_logout"`

	// Booking
	ServiceFee           string        `yaml:"service_fee"`
	MaxTicketsPerBooking int           `yaml:"max_tickets_per_booking"`
	PaymentDelay         time.Duration `yaml:"payment_delay"`

	// Monitoring
	EnableMetrics bool `yaml:"enable_metrics"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

func Default() *Config {
	return &Config{
		Port:        "8080",
		Environment: "development",

		LogLevel:  "info",
		LogFormat: "text",

		StorageDriver: "redis",
		RedisURL:      "localhost:6379",
		LedgerPrefix:  "bookings_",

		CatalogDriver: "postgres",
		Database: DatabaseConfig{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "event_ledger",
		},

		CleanupMode: "once",

		ServiceFee:           "0",
		MaxTicketsPerBooking: 10,
		PaymentDelay:         1500 * time.Millisecond,

		EnableMetrics: true,
	}
}

// Load layers defaults, then the YAML file at path (if any), then
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.StorageDriver = getEnv("STORAGE_DRIVER", c.StorageDriver)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvAsInt("REDIS_DB", c.RedisDB)
	c.LedgerPrefix = getEnv("LEDGER_PREFIX", c.LedgerPrefix)

	c.CatalogDriver = getEnv("CATALOG_DRIVER", c.CatalogDriver)
	c.CatalogSeed = getEnv("CATALOG_SEED", c.CatalogSeed)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)

	c.CleanupMode = getEnv("CLEANUP_MODE", c.CleanupMode)
	c.ClearLedgerOnLogout = getEnvAsBool("CLEAR_LEDGER_ON_LOGOUT", c.ClearLedgerOnLogout)

	c.ServiceFee = getEnv("SERVICE_FEE", c.ServiceFee)
	c.MaxTicketsPerBooking = getEnvAsInt("MAX_TICKETS_PER_BOOKING", c.MaxTicketsPerBooking)
	c.PaymentDelay = getEnvAsDuration("PAYMENT_DELAY", c.PaymentDelay)

	c.EnableMetrics = getEnvAsBool("ENABLE_METRICS", c.EnableMetrics)
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "redis", "memory":
	default:
		return fmt.Errorf("invalid storage_driver %q: must be redis or memory", c.StorageDriver)
	}

	switch c.CatalogDriver {
	case "postgres":
	case "memory":
		if c.CatalogSeed == "" {
			return fmt.Errorf("catalog_seed is required when catalog_driver is memory")
		}
	default:
		return fmt.Errorf("invalid catalog_driver %q: must be postgres or memory", c.CatalogDriver)
	}

	switch c.CleanupMode {
	case "once", "always":
	default:
		return fmt.Errorf("invalid cleanup_mode %q: must be once or always", c.CleanupMode)
	}

	fee, err := decimal.NewFromString(c.ServiceFee)
	if err != nil || fee.IsNegative() {
		return fmt.Errorf("invalid service_fee %q: must be a non-negative amount", c.ServiceFee)
	}

	if c.MaxTicketsPerBooking < 1 {
		return fmt.Errorf("max_tickets_per_booking must be at least 1")
	}
	if c.PaymentDelay < 0 {
		return fmt.Errorf("payment_delay must not be negative")
	}
	if c.LedgerPrefix == "" {
		return fmt.Errorf("ledger_prefix must not be empty")
	}

	return nil
}

// Fee returns ServiceFee as a decimal. Call only after Validate.
func (c *Config) Fee() decimal.Decimal {
	fee, _ := decimal.NewFromString(c.ServiceFee)
	return fee
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}
