package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Upload  UploadConfig
	Session SessionConfig
	Events  EventsConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	// StubPort is where cmd/stubbackend listens.
	StubPort           string
	CorsAllowedOrigins string
}

type BackendConfig struct {
	ChatBaseURL   string // RAG endpoints (upload, chat)
	SlidesBaseURL string // presentation endpoints (upload, recommendations, generate, download)
	Timeout       time.Duration
}

type UploadConfig struct {
	MaxFileSizeMB int
	StageInterval time.Duration
}

type SessionConfig struct {
	TTL time.Duration
}

type EventsConfig struct {
	NatsURL string // empty disables the JetStream mirror
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "finq.log"),
			StubPort:           getEnv("STUB_PORT", "5000"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Backend: BackendConfig{
			ChatBaseURL:   getEnv("FINQ_CHAT_API_URL", "http://localhost:5000/api/rag"),
			SlidesBaseURL: getEnv("FINQ_SLIDES_API_URL", "http://localhost:5000/api/ppt"),
			Timeout:       getEnvAsDuration("FINQ_HTTP_TIMEOUT", 120*time.Second),
		},
		Upload: UploadConfig{
			MaxFileSizeMB: getEnvAsInt("FINQ_MAX_FILE_SIZE_MB", 10),
			StageInterval: getEnvAsDuration("FINQ_STAGE_INTERVAL", 1500*time.Millisecond),
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("FINQ_SESSION_TTL", 1*time.Hour),
		},
		Events: EventsConfig{
			NatsURL: getEnv("NATS_URL", ""),
		},
		Tracing: TracingConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

// getEnvAsDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
