package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey string
	DatabaseURL  string
	HTTPPort     string
	UploadDir    string
	LogLevel     string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
	}

	// No API key is not fatal: the service runs with template answers and
	// keyword citations instead of the Gemini-backed pipeline.
	if AppConfig.GeminiAPIKey == "" {
		log.Println("GEMINI_API_KEY not set; running in fallback (template) mode")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
