// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Media backends accepted by MEDIA_BACKEND.
const (
	MediaBackendLocal = "local"
	MediaBackendMinio = "minio"
	MediaBackendS3    = "s3"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	AccessTokenTTLMinutes         int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTokenTTLHours          int    `mapstructure:"REFRESH_TOKEN_TTL_HOURS"`
	Port                          string `mapstructure:"PORT"`
	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string `mapstructure:"DB_READ_USER"`
	DBReadPassword                string `mapstructure:"DB_READ_PASSWORD"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	RedisURL                      string `mapstructure:"REDIS_URL"`
	AllowedOrigins                string `mapstructure:"ALLOWED_ORIGINS"`
	Env                           string `mapstructure:"APP_ENV"`

	MediaBackend       string `mapstructure:"MEDIA_BACKEND"`
	MediaLocalDir      string `mapstructure:"MEDIA_LOCAL_DIR"`
	MediaPublicBaseURL string `mapstructure:"MEDIA_PUBLIC_BASE_URL"`
	MediaMaxUploadMB   int    `mapstructure:"MEDIA_MAX_UPLOAD_MB"`
	ImageMaxDimension  int    `mapstructure:"IMAGE_MAX_DIMENSION"`
	MinioEndpoint      string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey     string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey     string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket        string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL        bool   `mapstructure:"MINIO_USE_SSL"`
	S3Region           string `mapstructure:"S3_REGION"`
	S3Bucket           string `mapstructure:"S3_BUCKET"`
	S3Endpoint         string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey        string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey        string `mapstructure:"S3_SECRET_KEY"`

	PaginationMaxLimit int `mapstructure:"PAGINATION_MAX_LIMIT"`
	ThreadDefaultDepth int `mapstructure:"THREAD_DEFAULT_DEPTH"`
	ThreadMaxDepth     int `mapstructure:"THREAD_MAX_DEPTH_LIMIT"`
	VideoListCacheTTL  int `mapstructure:"VIDEO_LIST_CACHE_TTL_SECONDS"`

	SeedDemoData bool `mapstructure:"SEED_DEMO_DATA"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional; env vars and defaults are enough.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "vidnest")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 15)
	viper.SetDefault("REFRESH_TOKEN_TTL_HOURS", 240)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("MEDIA_BACKEND", MediaBackendLocal)
	viper.SetDefault("MEDIA_LOCAL_DIR", "./uploads")
	viper.SetDefault("MEDIA_PUBLIC_BASE_URL", "/media")
	viper.SetDefault("MEDIA_MAX_UPLOAD_MB", 200)
	viper.SetDefault("IMAGE_MAX_DIMENSION", 1920)
	viper.SetDefault("MINIO_BUCKET", "vidnest")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("S3_REGION", "us-east-1")

	viper.SetDefault("PAGINATION_MAX_LIMIT", 100)
	viper.SetDefault("THREAD_DEFAULT_DEPTH", 3)
	viper.SetDefault("THREAD_MAX_DEPTH_LIMIT", 10)
	viper.SetDefault("VIDEO_LIST_CACHE_TTL_SECONDS", 30)
	viper.SetDefault("SEED_DEMO_DATA", false)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.MediaBackend = strings.ToLower(strings.TrimSpace(c.MediaBackend))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
}

// IsProduction reports whether the config targets a production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if c.MediaMaxUploadMB <= 0 {
		return errors.New("MEDIA_MAX_UPLOAD_MB must be positive")
	}
	if c.DBConnMaxLifetimeMinutes <= 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be positive")
	}
	if c.ThreadMaxDepth > 0 && c.ThreadDefaultDepth > c.ThreadMaxDepth {
		return errors.New("THREAD_DEFAULT_DEPTH must not exceed THREAD_MAX_DEPTH_LIMIT")
	}

	switch c.MediaBackend {
	case MediaBackendLocal, "":
	case MediaBackendMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio media backend")
		}
	case MediaBackendS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("S3_BUCKET and S3_REGION are required for the s3 media backend")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
