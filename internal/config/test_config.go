package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads configuration for integration tests from TEST_* variables.
//
// Missing values are left empty so tests can decide to skip.
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("./../../configs/.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	if cfg.Database.Host == "" {
		return cfg, nil
	}

	var err error
	if cfg.Database.Port, err = intOrDefault("TEST_DB_PORT", 3306); err != nil {
		return nil, err
	}
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")

	cfg.Redis.Host = stringOrDefault("TEST_REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intOrDefault("TEST_REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("TEST_REDIS_PASSWORD")
	if cfg.Redis.DB, err = intOrDefault("TEST_REDIS_DB", 15); err != nil {
		return nil, err
	}

	return cfg, nil
}
