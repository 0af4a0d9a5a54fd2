package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	ApplicationName    string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Upload plugin settings used when the environment leaves them unset.
const (
	DefaultUploadDirectory   = "uploads"
	DefaultUploadRoute       = "/upload"
	DefaultUploadPublicRoute = "/uploads"
)

// UploadConfig holds the upload plugin settings.
type UploadConfig struct {
	Directory   string
	Route       string
	PublicRoute string
	// Events is "method=event[,event];method=event", e.g. "bindRoutes=bind-routes".
	Events   string
	MaxBytes int
}

// ArchiveConfig toggles copying stored uploads to object storage and the catalog database.
type ArchiveConfig struct {
	Enabled bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	TimeZone string
	Upload   UploadConfig
	Archive  ArchiveConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		TimeZone: getEnv("APP_TIMEZONE", "UTC"),
		Upload: UploadConfig{
			Directory:   getEnv("UPLOAD_DIRECTORY", DefaultUploadDirectory),
			Route:       getEnv("UPLOAD_ROUTE", DefaultUploadRoute),
			PublicRoute: getEnv("UPLOAD_PUBLIC_ROUTE", DefaultUploadPublicRoute),
			Events:      getEnv("UPLOAD_EVENTS", ""),
			MaxBytes:    getEnvInt("UPLOAD_MAX_BYTES", 32<<20),
		},
		Archive: ArchiveConfig{
			Enabled: getEnvBool("ARCHIVE_ENABLED", false),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			ApplicationName:    getEnv("DB_APPLICATION_NAME", "fileupload"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// Location returns the configured time zone, or UTC if it cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Section returns the raw upload plugin section. The directory and both routes
// are always present; empty values take the Default* settings.
func (u UploadConfig) Section() map[string]any {
	section := map[string]any{
		"directory":   orDefault(u.Directory, DefaultUploadDirectory),
		"route":       orDefault(u.Route, DefaultUploadRoute),
		"publicRoute": orDefault(u.PublicRoute, DefaultUploadPublicRoute),
	}
	if u.Events != "" {
		section["events"] = parseEvents(u.Events)
	}
	return section
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseEvents(raw string) map[string][]string {
	out := map[string][]string{}
	for _, entry := range strings.Split(raw, ";") {
		method, events, ok := strings.Cut(entry, "=")
		method = strings.TrimSpace(method)
		if !ok || method == "" {
			continue
		}
		names := []string{}
		for _, ev := range strings.Split(events, ",") {
			if ev = strings.TrimSpace(ev); ev != "" {
				names = append(names, ev)
			}
		}
		out[method] = names
	}
	return out
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
