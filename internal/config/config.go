package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	Storage     StorageConfig
	Session     SessionConfig
	Sweeper     SweeperConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type StorageConfig struct {
	Path string
}

type SessionConfig struct {
	JWTSecret string
	JWTIssuer string
	TTL       time.Duration
}

type SweeperConfig struct {
	Enabled  bool
	Schedule string
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the application can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "taskdeck"),
		Environment: getString("APP_ENV", "development"),
		Storage: StorageConfig{
			Path: getString("BOLTDB_PATH", "./data/taskdeck.db"),
		},
		Session: SessionConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			JWTIssuer: getString("JWT_ISSUER", "taskdeck"),
			TTL:       getDuration("SESSION_TTL", 24*time.Hour),
		},
		Sweeper: SweeperConfig{
			Enabled: getBool("SWEEP_ENABLED", true),
			// Runs the recurrence pass just after local midnight so overdue
			// repeating tasks regenerate as the day rolls over.
			Schedule: getString("SWEEP_SCHEDULE", "1 0 * * *"),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
