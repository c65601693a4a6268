package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/construction-schedule-api/internal/constants"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	SQLitePath    string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
	OpenAIAPIKey  string
	ServerPort    string
	LogLevel      slog.Level

	// Derived-field write retries after a successful recompute
	PersistAttempts int
	PersistBackoff  time.Duration
}

func Load() *Config {
	return &Config{
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBUser:          getEnv("DB_USER", "scheduleuser"),
		DBPassword:      getEnv("DB_PASSWORD", "schedulepassword"),
		DBName:          getEnv("DB_NAME", "construction_schedule"),
		SQLitePath:      getEnv("SQLITE_PATH", "schedule.db"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		SessionSecret:   getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getLogLevel("LOG_LEVEL", slog.LevelInfo),
		PersistAttempts: getIntEnv("SCHEDULE_PERSIST_ATTEMPTS", constants.DefaultPersistAttempts),
		PersistBackoff:  getDurationEnv("SCHEDULE_PERSIST_BACKOFF", 50*time.Millisecond),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 1 {
		return defaultValue
	}
	return n
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}

func getLogLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(key))); err != nil {
		return defaultValue
	}
	return level
}
