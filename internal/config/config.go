// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv          string
	Port            string
	DBDriver        string
	DatabaseURL     string
	JWTSecret       string
	TokenTTL        time.Duration
	AllowedOrigins  []string
	RedisURL        string
	LogLevel        slog.Level
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads .env (if present) without overriding variables already set,
// then builds the Config.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL:     getEnv("DATABASE_URL", "./data/ledger.db"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:        getMinutes("TOKEN_TTL_MINUTES", 24*60),
		AllowedOrigins:  getList("ALLOWED_ORIGINS", "*"),
		RedisURL:        os.Getenv("REDIS_URL"),
		LogLevel:        ParseLevel(os.Getenv("LOG_LEVEL")),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		ShutdownTimeout: getSeconds("SHUTDOWN_TIMEOUT_SECONDS", 10),
	}
}

// Production reports whether APP_ENV is "production".
func (c Config) Production() bool {
	return c.AppEnv == "production"
}

// ParseLevel maps debug, info, warn and error to slog levels (default info).
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getMinutes(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Minute
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
