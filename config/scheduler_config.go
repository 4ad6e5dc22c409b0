package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// JWT
	JWTSecret string

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Pre-issued OAuth tokens for provider access
	GoogleAccessToken  string
	GoogleRefreshToken string

	// Scheduling defaults
	DefaultBufferMinutes int
	SlotStepMinutes      int
	DefaultSlotLimit     int
	MaxSlotLimit         int

	// Provider
	MaxConcurrentFetches int
	ProviderTimeout      time.Duration

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OAuth - Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		// Pre-issued OAuth tokens for provider access
		GoogleAccessToken:  getEnv("GOOGLE_ACCESS_TOKEN", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		// Scheduling defaults
		DefaultBufferMinutes: getEnvInt("DEFAULT_BUFFER_MINUTES", 0),
		SlotStepMinutes:      getEnvInt("SLOT_STEP_MINUTES", 30),
		DefaultSlotLimit:     getEnvInt("DEFAULT_SLOT_LIMIT", 10),
		MaxSlotLimit:         getEnvInt("MAX_SLOT_LIMIT", 50),

		// Provider
		MaxConcurrentFetches: getEnvInt("MAX_CONCURRENT_FETCHES", 5),
		ProviderTimeout:      time.Duration(getEnvInt("PROVIDER_TIMEOUT_SEC", 30)) * time.Second,

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
