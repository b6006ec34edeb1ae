package config

import (
	"os"
	"strconv"
)

// Config holds all application-level configuration
type Config struct {
	// Database
	DBPath string

	// HTTP
	Port               string
	CORSAllowedOrigins string

	// Extraction worker pool
	WorkerCount      int
	MaxAttempts      int // attempts per date (first try + retries)
	RetryBaseDelayMs int
	RetryMaxDelayMs  int

	// Platform politeness
	PlatformRatePerSec float64
	BookingAPIURL      string
	ExpediaAPIURL      string

	// Recurring schedule
	ScheduleHour        int // hour of day (0-23) for automatic scheduling
	ScheduleHorizonDays int // how far ahead automatic searches look
	ScheduleEnabled     bool
	PriceRetentionDays  int // 0 = keep history forever
}

// Load reads configuration from environment variables or falls back to defaults
func Load() *Config {
	return &Config{
		DBPath:              getEnv("DB_PATH", "./rate_shopper.db"),
		Port:                getEnv("PORT", "8080"),
		CORSAllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", ""),
		WorkerCount:         getEnvInt("WORKER_COUNT", 4),
		MaxAttempts:         getEnvInt("MAX_ATTEMPTS", 3),
		RetryBaseDelayMs:    getEnvInt("RETRY_BASE_DELAY_MS", 2000),
		RetryMaxDelayMs:     getEnvInt("RETRY_MAX_DELAY_MS", 30000),
		PlatformRatePerSec:  getEnvFloat("PLATFORM_RATE_PER_SEC", 0.5),
		BookingAPIURL:       getEnv("BOOKING_API_URL", "https://www.booking.com"),
		ExpediaAPIURL:       getEnv("EXPEDIA_API_URL", "https://www.expedia.com"),
		ScheduleHour:        getEnvInt("SCHEDULE_HOUR", 4),
		ScheduleHorizonDays: getEnvInt("SCHEDULE_HORIZON_DAYS", 30),
		ScheduleEnabled:     getEnv("SCHEDULE_ENABLED", "true") == "true",
		PriceRetentionDays:  getEnvInt("PRICE_RETENTION_DAYS", 0),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
