package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Billing  BillingConfig
	Ai       AIConfig
	Limits   LimitsConfig
	Recovery RecoveryConfig
	SMTP     SMTPConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables event publishing
	RedisURL           string // empty disables the burst limiter
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret            string
	AdminRecoveryKeyHash string // bcrypt
}

type BillingConfig struct {
	TrialDays              int
	MidtransServerKey      string
	MidtransProduction     bool
	PaymentSignatureSecret string
}

type AIConfig struct {
	OllamaBaseURL       string
	EmbeddingModel      string
	LLMModel            string
	SearchLimit         int
	SimilarityThreshold float64
	IndexTopic          string
}

type LimitsConfig struct {
	BurstPerMinute int
}

type RecoveryConfig struct {
	Interval        time.Duration // 0 disables the ticker
	Window          time.Duration
	ReportRecipient string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("JWT_SECRET", ""),
			AdminRecoveryKeyHash: getEnv("ADMIN_RECOVERY_KEY_HASH", ""),
		},
		Billing: BillingConfig{
			TrialDays:              getEnvAsInt("TRIAL_DAYS", 14),
			MidtransServerKey:      getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransProduction:     getEnvAsBool("MIDTRANS_PRODUCTION", false),
			PaymentSignatureSecret: getEnv("PAYMENT_SIGNATURE_SECRET", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:      getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMModel:            getEnv("LLM_MODEL", "llama3"),
			SearchLimit:         getEnvAsInt("KNOWLEDGE_SEARCH_LIMIT", 5),
			SimilarityThreshold: getEnvAsFloat("KNOWLEDGE_SIMILARITY_THRESHOLD", 0.3),
			IndexTopic:          getEnv("KNOWLEDGE_INDEX_TOPIC", "KNOWLEDGE_INDEX"),
		},
		Limits: LimitsConfig{
			BurstPerMinute: getEnvAsInt("BURST_LIMIT_PER_MINUTE", 30),
		},
		Recovery: RecoveryConfig{
			Interval:        getEnvAsDuration("RECOVERY_INTERVAL", 10*time.Minute),
			Window:          getEnvAsDuration("RECOVERY_WINDOW", 7*24*time.Hour),
			ReportRecipient: getEnv("RECOVERY_REPORT_EMAIL", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Chatbot Billing"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-chatbot-backend"),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
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

// getEnvAsDuration accepts Go durations ("10m", "168h").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
