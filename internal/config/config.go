package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration.
type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	DBMaxOpenConns int
	RedisAddr      string
	CacheTTL       time.Duration
	MaxUploadBytes int64
	LogLevel       string
	S3             S3Config
}

// S3Config is only used when Bucket is set.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

var (
	once     sync.Once
	instance *Config
)

// GetConfig returns the singleton instance of the Config.
// It loads the configuration from an .env file on its first call.
func GetConfig() *Config {
	once.Do(func() {
		// Load .env file. You can specify the path to your .env file.
		// If no path is provided, it will look for a .env file in the current directory.
		err := godotenv.Load()
		if err != nil {
			log.Println("No .env file found, using default environment variables")
		}

		instance = Load()
	})
	return instance
}

// Load builds a Config from the current environment.
func Load() *Config {
	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":3000"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 5),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		CacheTTL:       getEnvDuration("CACHE_TTL", 2*time.Hour),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 64<<20)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", ""),
		},
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
