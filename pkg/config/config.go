package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Fetch    FetchConfig
	OCR      OCRConfig
	AI       AIConfig
	Sentry   SentryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int // per-request budget for the analysis endpoints, seconds
	CORSOrigins    string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds evidence-archive object storage configuration
type StorageConfig struct {
	Enabled   bool
	Bucket    string
	Region    string
	Endpoint  string // for S3-compatible storage (MinIO, etc.)
	AccessKey string
	SecretKey string
	BaseURL   string
}

// FetchConfig bounds the source-image download
type FetchConfig struct {
	TimeoutSeconds int
	MaxBytes       int64
}

// OCRConfig holds Tesseract configuration
type OCRConfig struct {
	Languages      string // e.g. "eng" or "eng+hin"
	TimeoutSeconds int    // budget per extraction attempt
}

// AIConfig holds the external classifier configuration
type AIConfig struct {
	Enabled        bool
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN     string
	Enabled bool
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 60),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 55),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "flatfundpro"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Enabled:   getEnvAsBool("EVIDENCE_ARCHIVE_ENABLED", false),
			Bucket:    getEnv("EVIDENCE_BUCKET", ""),
			Region:    getEnv("EVIDENCE_REGION", "ap-south-1"),
			Endpoint:  getEnv("EVIDENCE_ENDPOINT", ""),
			AccessKey: getEnv("EVIDENCE_ACCESS_KEY", ""),
			SecretKey: getEnv("EVIDENCE_SECRET_KEY", ""),
			BaseURL:   getEnv("EVIDENCE_BASE_URL", ""),
		},
		Fetch: FetchConfig{
			TimeoutSeconds: getEnvAsInt("IMAGE_FETCH_TIMEOUT", 15),
			MaxBytes:       int64(getEnvAsInt("IMAGE_FETCH_MAX_MB", 15)) * 1024 * 1024,
		},
		OCR: OCRConfig{
			Languages:      getEnv("OCR_LANGUAGES", "eng"),
			TimeoutSeconds: getEnvAsInt("OCR_TIMEOUT", 20),
		},
		AI: AIConfig{
			Enabled:        getEnvAsBool("AI_CLASSIFIER_ENABLED", true),
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			TimeoutSeconds: getEnvAsInt("AI_CLASSIFIER_TIMEOUT", 25),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Enabled: getEnvAsBool("SENTRY_ENABLED", false),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
