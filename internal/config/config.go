package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Supported record store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MinIOConfig holds object storage settings for MinIO.
// PublicURL is the base under which stored objects are publicly reachable
// (e.g. a CDN or reverse proxy). When empty it is derived from Endpoint and Bucket.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// UploadConfig controls how report photos are accepted and where they are stored.
type UploadConfig struct {
	Folder         string
	AllowedFormats []string
}

// ExportConfig controls the image variants embedded into exported documents.
type ExportConfig struct {
	ThumbWidth      int
	ThumbHeight     int
	Fit             string
	Quality         int
	Concurrency     int
	FetchTimeoutSec int
	TimeoutSec      int
	MaxImageBytes   int64
	MaxImagePixels  int
	CacheSize       int
	CacheTTLSec     int
	// Transform selects how the variant URL is derived: none, query or cloudinary.
	Transform string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Timezone    string
	StoreDriver string
	Database    DatabaseConfig
	Mongo       MongoConfig
	MinIO       MinIOConfig
	Upload      UploadConfig
	Export      ExportConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:3000"),
		Port:        getEnv("PORT", "3000"),
		Timezone:    getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", ""),
			Database:   getEnv("MONGO_DATABASE", "laporan"),
			Collection: getEnv("MONGO_COLLECTION", "reports"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
		Upload: UploadConfig{
			Folder:         getEnv("UPLOAD_FOLDER", "laporan_foto"),
			AllowedFormats: getEnvList("UPLOAD_ALLOWED_FORMATS", []string{"jpg", "png", "jpeg"}),
		},
		Export: ExportConfig{
			ThumbWidth:      getEnvInt("EXPORT_THUMB_WIDTH", 200),
			ThumbHeight:     getEnvInt("EXPORT_THUMB_HEIGHT", 200),
			Fit:             getEnv("EXPORT_THUMB_FIT", "fit"),
			Quality:         getEnvInt("EXPORT_THUMB_QUALITY", 60),
			Concurrency:     getEnvInt("EXPORT_CONCURRENCY", 4),
			FetchTimeoutSec: getEnvInt("EXPORT_FETCH_TIMEOUT_SEC", 10),
			TimeoutSec:      getEnvInt("EXPORT_TIMEOUT_SEC", 120),
			MaxImageBytes:   int64(getEnvInt("EXPORT_MAX_IMAGE_BYTES", 10<<20)),
			MaxImagePixels:  getEnvInt("EXPORT_MAX_IMAGE_PIXELS", 40_000_000),
			CacheSize:       getEnvInt("EXPORT_CACHE_SIZE", 0),
			CacheTTLSec:     getEnvInt("EXPORT_CACHE_TTL_SEC", 300),
			Transform:       strings.ToLower(getEnv("EXPORT_TRANSFORM", "none")),
		},
	}
}

// Location resolves the configured timezone. The zone database is embedded,
// so only a misspelt name falls back to UTC, and that is logged.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("timezone_fallback",
			slog.String("timezone", c.Timezone),
			slog.String("using", "UTC"),
			slog.String("error", err.Error()),
		)
		return time.UTC
	}
	return loc
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

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
