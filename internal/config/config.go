package config

import (
	"os"
	"strconv"
	"time"
)

// Supported datasource kinds.
const (
	KindPostgreSQL = "postgresql"
	KindMySQL      = "mysql"
	KindSQLite     = "sqlite"
)

// DatabaseConfig holds datasource settings.
// URL, when set, is used verbatim as the driver DSN; otherwise the DSN is composed from the discrete fields.
type DatabaseConfig struct {
	Kind               string
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// InitSQL is a seed script executed once at startup: a local path or s3://bucket/key.
	InitSQL            string
	LogQueries         bool
	// LogArgs adds bound statement arguments to the mapper's debug log. They may hold user data.
	LogArgs            bool
	SlowQueryMS        int
}

// CacheConfig selects the read-through cache backend for user lookups.
type CacheConfig struct {
	Kind          string
	TTLSec        int
	Size          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TTL returns the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// MinIOConfig holds object storage settings for MinIO.
// It is only needed when InitSQL points at an object.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port     string
	Timezone string
	LogLevel string
	Database DatabaseConfig
	Cache    CacheConfig
	MinIO    MinIOConfig
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Kind:               getEnv("DB_KIND", KindPostgreSQL),
			URL:                getEnv("DB_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", ""),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			InitSQL:            getEnv("DB_INIT_SQL", ""),
			LogQueries:         getEnvBool("DB_LOG_QUERIES", false),
			LogArgs:            getEnvBool("DB_LOG_ARGS", false),
			SlowQueryMS:        getEnvInt("DB_SLOW_QUERY_MS", 200),
		},
		Cache: CacheConfig{
			Kind:          getEnv("CACHE_KIND", "none"),
			TTLSec:        getEnvInt("CACHE_TTL_SEC", 60),
			Size:          getEnvInt("CACHE_SIZE", 1024),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
