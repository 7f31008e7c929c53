package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPPort        string
	BackendBaseURL  string
	DBPath          string
	MigrationsPath  string
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	BackendTimeout  time.Duration
	ShutdownTimeout time.Duration
	CatalogCacheSz  int
	LogLevel        string
	StartOnline     bool
}

func loadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendBaseURL:  getEnv("BACKEND_BASE_URL", "http://localhost:3000"),
		DBPath:          getEnv("DB_PATH", "./pedidos.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		RequestTimeout:  30 * time.Second,
		BackendTimeout:  10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CatalogCacheSz:  128,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StartOnline:     getEnv("START_ONLINE", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
