package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration loaded from environment variables
type Config struct {
	Host           string
	Port           string
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins string

	// Scraper settings
	BrowserBin           string
	ScreenshotDir        string
	OCRServiceURL        string
	MaxConcurrentScrapes int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Host:           getEnvOrDefault("HOST", "0.0.0.0"),
		Port:           getEnvOrDefault("PORT", "3001"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", "lootlook-dev-secret-change-this"),
		AllowedOrigins: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"),

		BrowserBin:           os.Getenv("BROWSER_BIN"),
		ScreenshotDir:        getEnvOrDefault("SCREENSHOT_DIR", "screenshots"),
		OCRServiceURL:        getEnvOrDefault("OCR_SERVICE_URL", "http://ocr-service:5000"),
		MaxConcurrentScrapes: getEnvIntOrDefault("MAX_CONCURRENT_SCRAPES", 2),
	}
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault gets an integer environment variable or returns default value
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
