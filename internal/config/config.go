package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env        string
	Port       string
	LogLevel   string
	CORSOrigin string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens issued by the identity provider
	SessionJWTSecret string
	SessionJWTIssuer string

	// Pipeline (internal jobs). Several keys may be active while one rotates.
	PipelineAPIKeys []string

	// Assistant question-answering endpoint
	AssistantURL     string
	AssistantTimeout time.Duration

	// Receipt scanning
	GeminiAPIKey   string
	GeminiModel    string
	ReceiptTimeout time.Duration

	// Recurring transactions
	AMQPURL            string
	AMQPExchange       string
	AMQPQueue          string
	RecurringInterval  time.Duration
	RecurringBatchSize int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", ""),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "finguy"),
		DBPassword: getEnv("DB_PASSWORD", "finguy"),
		DBName:     getEnv("DB_NAME", "finguy"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SessionJWTSecret: getEnv("SESSION_JWT_SECRET", "fallback-secret-key-for-dev-only"),
		SessionJWTIssuer: getEnv("SESSION_JWT_ISSUER", ""),

		PipelineAPIKeys: splitList(getEnv("PIPELINE_API_KEY", "")),

		AssistantURL: getEnv("ASSISTANT_URL", "https://therealbuble-backend.hf.space/query"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finguy"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "recurring-transactions"),
	}

	var err error
	if config.AssistantTimeout, err = parseDuration("ASSISTANT_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if config.ReceiptTimeout, err = parseDuration("RECEIPT_TIMEOUT", "45s"); err != nil {
		return nil, err
	}
	if config.RecurringInterval, err = parseDuration("RECURRING_INTERVAL", "1h"); err != nil {
		return nil, err
	}

	batch := getEnv("RECURRING_BATCH_SIZE", "100")
	config.RecurringBatchSize, err = strconv.Atoi(batch)
	if err != nil || config.RecurringBatchSize <= 0 {
		return nil, fmt.Errorf("invalid RECURRING_BATCH_SIZE %q: must be a positive integer", batch)
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	raw := getEnv(key, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

// splitList parses a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
