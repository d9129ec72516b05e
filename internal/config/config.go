package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Sale     SaleConfig
	Orders   OrdersConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// GatewayConfig holds terminal gateway configuration
type GatewayConfig struct {
	Environment string // "sandbox" or "production"
	BaseURL     string // Optional override of the environment base URL
	Timeout     int    // Request timeout in seconds; card insertion is part of this window (default: 120)
}

// SaleConfig holds sale orchestration tuning
type SaleConfig struct {
	Deadline     time.Duration // Initiator deadline before answering processing (default: 20s)
	PollInterval time.Duration // Gateway status check cadence (default: 5s)
	MaxWait      time.Duration // Give up on a processing sale after this long (default: 180s)
}

// OrdersConfig holds order system client configuration
type OrdersConfig struct {
	BaseURL string
	APIKey  string
}

// SecretsConfig selects and configures the secret manager backend
type SecretsConfig struct {
	Backend string // "local", "aws", or "vault"

	// Local backend
	LocalPath string

	// AWS backend
	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	// Vault backend
	VaultAddress string
	VaultToken   string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "terminal_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Gateway: GatewayConfig{
			Environment: getEnv("SPIN_ENVIRONMENT", "sandbox"),
			BaseURL:     getEnv("SPIN_BASE_URL", ""),
			Timeout:     getEnvAsInt("SPIN_TIMEOUT", 120),
		},
		Sale: SaleConfig{
			Deadline:     getEnvAsDuration("SALE_DEADLINE", 20*time.Second),
			PollInterval: getEnvAsDuration("SALE_POLL_INTERVAL", 5*time.Second),
			MaxWait:      getEnvAsDuration("SALE_MAX_WAIT", 180*time.Second),
		},
		Orders: OrdersConfig{
			BaseURL: getEnv("ORDERS_BASE_URL", ""),
			APIKey:  getEnv("ORDERS_API_KEY", ""),
		},
		Secrets: SecretsConfig{
			Backend:      getEnv("SECRETS_BACKEND", "local"),
			LocalPath:    getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			AWSRegion:    getEnv("AWS_REGION", "us-west-2"),
			AWSProfile:   getEnv("AWS_PROFILE", ""),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Orders.BaseURL == "" {
		return nil, fmt.Errorf("ORDERS_BASE_URL is required")
	}
	switch cfg.Secrets.Backend {
	case "local", "aws":
	case "vault":
		if cfg.Secrets.VaultAddress == "" {
			return nil, fmt.Errorf("VAULT_ADDR is required for the vault secrets backend")
		}
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Secrets.Backend)
	}

	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection URL
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
