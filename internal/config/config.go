// Package config provides configuration for the application
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Review   ReviewConfig
	Drafts   DraftsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings used by the draft store and the task queue
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds the access token settings shared with the auth service
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ReviewConfig holds settings of the pending review reminder
type ReviewConfig struct {
	// ReminderCron is the cron spec on which the worker checks for stale requests
	ReminderCron string
	// ReminderAfter is how long a request may stay pending before admins are reminded
	ReminderAfter time.Duration
	// NotifyUserIDs lists the admins that receive in-app reminders
	NotifyUserIDs []int
	// Mailbox receives the review digest email, empty disables it
	Mailbox string
}

// DraftsConfig holds settings of the curriculum draft store
type DraftsConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional, real deployments pass the environment directly
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// Database configuration
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = requireInt("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intOrDefault("SERVER_PORT", 8080); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = stringOrDefault("LOG_LEVEL", "info")

	// CORS configuration, all origins are allowed when nothing valid is configured
	cfg.CORS.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	// JWT configuration
	if cfg.JWT.Secret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWT.AccessTokenExpiry, err = durationOrDefault("JWT_ACCESS_TOKEN_EXPIRY", time.Hour); err != nil {
		return nil, err
	}

	// Redis configuration
	cfg.Redis.Host = stringOrDefault("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intOrDefault("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intOrDefault("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// SMTP configuration
	cfg.SMTP.Host = stringOrDefault("SMTP_HOST", "localhost")
	if cfg.SMTP.Port, err = intOrDefault("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = stringOrDefault("SMTP_FROM", "noreply@coursehub.dev")

	// Review reminder configuration
	cfg.Review.ReminderCron = stringOrDefault("REVIEW_REMINDER_CRON", "0 9 * * *")
	if cfg.Review.ReminderAfter, err = durationOrDefault("REVIEW_REMINDER_AFTER", 24*time.Hour); err != nil {
		return nil, err
	}
	for _, raw := range splitList(os.Getenv("REVIEW_NOTIFY_USER_IDS")) {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REVIEW_NOTIFY_USER_IDS entry %q: %w", raw, err)
		}
		cfg.Review.NotifyUserIDs = append(cfg.Review.NotifyUserIDs, id)
	}
	cfg.Review.Mailbox = os.Getenv("REVIEW_MAILBOX")

	// Draft store configuration
	if cfg.Drafts.TTL, err = durationOrDefault("DRAFT_TTL", 72*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func requireInt(key string) (int, error) {
	raw, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func stringOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func intOrDefault(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

// splitList parses a comma-separated value, dropping blank entries
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
