package config

import (
	"fmt"
	"os"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SecretKey     string
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "5002"),
		DatabaseURL:   BuildDatabaseURL(),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		// dev-unsafe-secret is exactly what it says; set SECRET_KEY in
		// any real deployment.
		SecretKey: getenv("SECRET_KEY", "dev-unsafe-secret"),
	}
}

// BuildDatabaseURL returns DATABASE_URL verbatim when it is set. Otherwise
// the connection string is assembled from the individual POSTGRES_*
// variables, each with a local-development default.
func BuildDatabaseURL() string {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}

	user := getenv("POSTGRES_USER", "postgres")
	password := getenv("POSTGRES_PASSWORD", "postgres")
	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	name := getenv("POSTGRES_DB", "taskmanager")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
