package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBind                   = ":8080"
	DefaultStorageRoot            = "/srv/devboard"
	DefaultMaxUploadBytes   int64 = 10 * 1024 * 1024
	DefaultMaxAvatarPixels        = 25_000_000
	DefaultSessionTTL             = 24 * time.Hour
	DefaultS3Region               = "us-east-1"
)

type StorageBackend string

const (
	StorageFS StorageBackend = "fs"
	StorageS3 StorageBackend = "s3"
)

type Config struct {
	Bind               string
	DBDSN              string
	StorageBackend     StorageBackend
	StorageRoot        string
	PublicBaseURL      string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	S3PublicURL        string
	MaxUploadBytes     int64
	MaxAvatarPixels    int
	SessionSecret      string
	SessionTTL         time.Duration
	APIKeysFile        string
	CORSAllowedOrigins []string
	LogLevel           string
	SwaggerUIPath      string
	OpenAPIPath        string
	MetricsPath        string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Bind:               getenv("DEVBOARD_BIND", DefaultBind),
		StorageBackend:     StorageBackend(getenv("DEVBOARD_STORAGE_BACKEND", string(StorageFS))),
		StorageRoot:        getenv("DEVBOARD_STORAGE_ROOT", DefaultStorageRoot),
		PublicBaseURL:      strings.TrimSuffix(os.Getenv("DEVBOARD_PUBLIC_BASE_URL"), "/"),
		S3Bucket:           os.Getenv("DEVBOARD_S3_BUCKET"),
		S3Region:           getenv("DEVBOARD_S3_REGION", DefaultS3Region),
		S3Endpoint:         os.Getenv("DEVBOARD_S3_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("DEVBOARD_S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("DEVBOARD_S3_SECRET_ACCESS_KEY"),
		S3PublicURL:        os.Getenv("DEVBOARD_S3_PUBLIC_URL"),
		MaxUploadBytes:     getInt64("DEVBOARD_MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		MaxAvatarPixels:    getInt("DEVBOARD_MAX_AVATAR_PIXELS", DefaultMaxAvatarPixels),
		SessionTTL:         getDuration("DEVBOARD_SESSION_TTL", DefaultSessionTTL),
		APIKeysFile:        os.Getenv("DEVBOARD_API_KEYS_FILE"),
		CORSAllowedOrigins: splitAndTrim(os.Getenv("DEVBOARD_CORS_ALLOWED_ORIGINS")),
		LogLevel:           os.Getenv("DEVBOARD_LOG_LEVEL"),
		SwaggerUIPath:      "/swagger",
		OpenAPIPath:        "/openapi.yaml",
		MetricsPath:        "/metrics",
	}

	cfg.DBDSN = os.Getenv("DEVBOARD_DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DEVBOARD_DB_DSN is required")
	}

	cfg.SessionSecret = os.Getenv("DEVBOARD_SESSION_SECRET")
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("DEVBOARD_SESSION_SECRET must be at least 32 bytes")
	}

	switch cfg.StorageBackend {
	case StorageFS:
	case StorageS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("DEVBOARD_S3_BUCKET is required when DEVBOARD_STORAGE_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("invalid DEVBOARD_STORAGE_BACKEND: %s", cfg.StorageBackend)
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid DEVBOARD_LOG_LEVEL: %s", s)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}

func splitAndTrim(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
