package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	DatabaseURL      string
	DatabaseMaxConns int

	JWTSecret     string
	JWTTTLSeconds int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string

	SMTP SMTPConfig

	LogLevel  string
	LogPretty bool

	Invoicing *InvoicingConfig
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	DefaultBCC string
}

// Configured reports whether enough is set to send mail
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.From != ""
}

// Load reads .env (when present) and the process environment, then the
// optional invoicing TOML file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:             getEnvInt("PORT", 8080),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseMaxConns: getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTLSeconds:    getEnvInt("JWT_TTL_SECONDS", 8*3600),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		MinioEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:      getEnvBool("MINIO_USE_SSL", false),
		MinioBucket:      getEnv("MINIO_BUCKET", "invoices"),
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvInt("SMTP_PORT", 587),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			From:       getEnv("SMTP_FROM", ""),
			DefaultBCC: getEnv("DEFAULT_BCC", ""),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),
	}

	invoicing := DefaultInvoicingConfig()
	if path := getEnv("INVOICING_CONFIG", ""); path != "" {
		loaded, err := LoadInvoicingConfig(path)
		if err != nil {
			return nil, err
		}
		invoicing = loaded
	}
	config.Invoicing = invoicing

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.JWTTTLSeconds <= 0 {
		return fmt.Errorf("JWT_TTL_SECONDS must be positive")
	}
	return c.Invoicing.Validate()
}

// RequireDatabase fails when no DATABASE_URL was configured
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// RequireJWTSecret fails when no JWT_SECRET was configured
func (c *Config) RequireJWTSecret() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

// JWTTTL returns the access token lifetime
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return defaultValue
}
