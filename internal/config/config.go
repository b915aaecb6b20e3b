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
	LogLevel      string
	DatabaseURL   string
	PublicBaseURL string

	// Admin credentials (single staff login)
	AdminUsername  string
	AdminPassword  string
	AdminJWTSecret string
	SessionTTL     time.Duration

	// Work-day policy for the slot engine
	WorkDayStartHour int
	WorkDayEndHour   int
	SlotStepMinutes  int

	// Google Calendar sync
	CalendarSyncEnabled     bool
	GoogleCalendarID        string
	GoogleCredentialsJSON   string
	CalendarSyncQueueBuffer int

	// Gemini suggestion service
	GeminiAPIKey  string
	GeminiModelID string

	// Redis rollup cache
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	RollupCacheTTL time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		AdminUsername:  getEnv("ADMIN_USERNAME", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 12*time.Hour),

		WorkDayStartHour: getEnvAsInt("WORKDAY_START_HOUR", 6),
		WorkDayEndHour:   getEnvAsInt("WORKDAY_END_HOUR", 20),
		SlotStepMinutes:  getEnvAsInt("SLOT_STEP_MINUTES", 30),

		CalendarSyncEnabled:     getEnvAsBool("CALENDAR_SYNC_ENABLED", false),
		GoogleCalendarID:        getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleCredentialsJSON:   getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		CalendarSyncQueueBuffer: getEnvAsInt("CALENDAR_SYNC_QUEUE_BUFFER", 64),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		RollupCacheTTL: getEnvAsDuration("ROLLUP_CACHE_TTL", 10*time.Minute),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
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

// getEnvAsSlice splits a comma-separated environment variable, trimming blanks.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
