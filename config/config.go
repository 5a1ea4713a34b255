package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBURL         string
	DBAutoMigrate bool
	JWTSecret     string
	CORSOrigin    string

	StripeSecretKey     string
	StripeWebhookSecret string

	Currency         string
	Timezone         *time.Location
	RunnerCron       string
	RetryCron        string
	SchedulerEnabled bool

	TwilioAccountSID string
	TwilioAuthToken  string
	PublicBaseURL    string

	LogLevel  string
	LogFormat string
}

// Load reads the process environment, optionally seeded from a .env file.
// Provider secrets are not required here; callers that need them check at use.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	dbURL, err := mustEnv("DB_URL")
	if err != nil {
		return nil, err
	}

	tzName := getEnv("BILLING_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_TIMEZONE %q: %w", tzName, err)
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DBURL:         dbURL,
		DBAutoMigrate: getBool("DB_AUTO_MIGRATE", false),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		CORSOrigin:    getEnv("CORS_ORIGIN", "*"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		Currency:         strings.ToLower(getEnv("BILLING_CURRENCY", "aud")),
		Timezone:         loc,
		RunnerCron:       getEnv("BILLING_RUNNER_CRON", "0 18 * * *"),
		RetryCron:        getEnv("BILLING_RETRY_CRON", "15 * * * *"),
		SchedulerEnabled: getBool("SCHEDULER_ENABLED", false),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}, nil
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required environment variable: %s", key)
	}
	return v, nil
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
