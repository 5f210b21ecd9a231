package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Clinic-facing behavior
	ClinicTimezone  string
	DefaultLanguage string
	BusinessName    string

	// Twilio voice + SMS
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	TwilioWebhookSecret string

	// OpenAI generation
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Cal.com scheduling
	CalAPIKey       string
	CalEventTypeID  int
	CalBaseURL      string
	SlotHorizonDays int
	SlotLimit       int

	// Notion CRM lead sink
	NotionToken      string
	NotionDatabaseID string
	NotionBaseURL    string

	// Postgres lead sink
	DatabaseURL string

	// Redis transcript archive
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	TranscriptTTL time.Duration

	// Email confirmations
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string

	// AWS (SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		ClinicTimezone:  getEnv("CLINIC_TIMEZONE", "America/New_York"),
		DefaultLanguage: strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_LANGUAGE", "en"))),
		BusinessName:    getEnv("BUSINESS_NAME", "Orbyn AI"),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAITimeout: getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),

		CalAPIKey:       getEnv("CAL_API_KEY", ""),
		CalEventTypeID:  getEnvAsInt("CAL_EVENT_TYPE_ID", 3871645),
		CalBaseURL:      getEnv("CAL_BASE_URL", "https://api.cal.com/v2"),
		SlotHorizonDays: getEnvAsInt("SLOT_HORIZON_DAYS", 7),
		SlotLimit:       getEnvAsInt("SLOT_LIMIT", 5),

		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DATABASE_ID", ""),
		NotionBaseURL:    getEnv("NOTION_BASE_URL", "https://api.notion.com/v1"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		TranscriptTTL: getEnvAsDuration("TRANSCRIPT_TTL", 7*24*time.Hour),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Orbyn AI"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Orbyn AI"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
