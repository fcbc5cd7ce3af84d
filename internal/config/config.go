package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Admin   AdminConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type APIConfig struct {
	BaseURL             string
	Timeout             time.Duration
	RefreshSingleFlight bool
}

type StorageConfig struct {
	Driver         string // "file", "memory" or "redis"
	TokenFilePath  string
	RedisURL       string
	RedisKeyPrefix string
}

type AdminConfig struct {
	DocumentPollInterval time.Duration
	PageSize             int
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "kasbi-client.log"),
		},
		API: APIConfig{
			BaseURL:             getEnv("API_URL", "http://localhost:8000"),
			Timeout:             time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
			RefreshSingleFlight: getEnvAsBool("HTTP_REFRESH_SINGLEFLIGHT", false),
		},
		Storage: StorageConfig{
			Driver:         getEnv("TOKEN_STORE", "file"),
			TokenFilePath:  getEnv("TOKEN_FILE_PATH", defaultTokenFile()),
			RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
			RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "kasbi:"),
		},
		Admin: AdminConfig{
			DocumentPollInterval: time.Duration(getEnvAsInt("DOCUMENT_POLL_SECONDS", 5)) * time.Second,
			PageSize:             getEnvAsInt("DOCUMENT_PAGE_SIZE", 10),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "kasbi", "session.json")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
