// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	PostgresURL string

	KafkaBrokers     []string
	OrderPlacedTopic string

	WhatsAppBaseURL       string
	DefaultWhatsAppNumber string
	DefaultCompanyName    string

	AdminToken string

	ERPSyncURL  string
	ERPHost     string
	ERPDB       string
	ERPUsername string
	ERPAPIKey   string

	SessionTTL      time.Duration
	CatalogPageSize int

	MessagingWebhookURL string
	NotifierGroupID     string

	OTLPEndpoint   string
	LogLevel       string
	LogFormat      string
	MigrationsPath string
}

// Load reads a .env file from the working directory when one exists, then
// builds the config from the environment. Variables already set in the
// environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv(), nil
}

func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		PostgresURL: getEnv("POSTGRES_URL", ""),

		KafkaBrokers:     getEnvList("KAFKA_BROKERS"),
		OrderPlacedTopic: getEnv("ORDER_PLACED_TOPIC", "order.placed"),

		WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", "https://wa.me"),
		DefaultWhatsAppNumber: getEnv("DEFAULT_WHATSAPP_NUMBER", "51900000000"),
		DefaultCompanyName:    getEnv("DEFAULT_COMPANY_NAME", "Botica"),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		ERPSyncURL:  getEnv("ERP_SYNC_URL", ""),
		ERPHost:     getEnv("ERP_HOST", ""),
		ERPDB:       getEnv("ERP_DB", ""),
		ERPUsername: getEnv("ERP_USERNAME", ""),
		ERPAPIKey:   getEnv("ERP_API_KEY", ""),

		SessionTTL:      getEnvDuration("SESSION_TTL", 2*time.Hour),
		CatalogPageSize: getEnvInt("CATALOG_PAGE_SIZE", 1000),

		MessagingWebhookURL: getEnv("MESSAGING_WEBHOOK_URL", ""),
		NotifierGroupID:     getEnv("NOTIFIER_GROUP_ID", "order-notifier"),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
