package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Stripe
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePriceMonthly   string
	StripePriceAnnual    string
	StripePriceLifetime  string
	BillingFrontendURL   string

	// Speech-to-text provider
	STTAPIKey  string
	STTAPIURL  string
	STTModel   string
	STTTimeout time.Duration

	// Quota
	FreeDailySeconds int64

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "vocanote_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceMonthly:  getEnv("STRIPE_PRICE_MONTHLY", ""),
		StripePriceAnnual:   getEnv("STRIPE_PRICE_ANNUAL", ""),
		StripePriceLifetime: getEnv("STRIPE_PRICE_LIFETIME", ""),
		BillingFrontendURL:  getEnv("BILLING_FRONTEND_URL", "http://localhost:3000"),

		STTAPIKey:  getEnv("STT_API_KEY", ""),
		STTAPIURL:  getEnv("STT_API_URL", "https://api.openai.com/v1/audio/transcriptions"),
		STTModel:   getEnv("STT_MODEL", "whisper-1"),
		STTTimeout: parseDuration(getEnv("STT_TIMEOUT", "120s")),

		FreeDailySeconds: parseInt64(getEnv("FREE_DAILY_SECONDS", "300")),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
