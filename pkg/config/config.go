package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Content  ContentConfig
	Capture  CaptureConfig
	Channel  ChannelConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds the shared bearer secret protecting mutating routes.
type AuthConfig struct {
	BearerToken string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ContentConfig controls the page content blob store.
type ContentConfig struct {
	StorageDir     string
	DownloadSecret string
	DownloadTTL    time.Duration
}

// CaptureConfig tunes the capture pipeline.
type CaptureConfig struct {
	LoadGraceTimeout  time.Duration
	InlineConcurrency int
	MaxResourceSize   int64
	ResourceTimeout   time.Duration
	Headless          bool
}

// ChannelConfig tunes the typed message channel.
type ChannelConfig struct {
	InvokeTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{BearerToken: v.GetString("BEARER_TOKEN")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Content = ContentConfig{
		StorageDir:     v.GetString("CONTENT_STORAGE_DIR"),
		DownloadSecret: v.GetString("CONTENT_DOWNLOAD_SECRET"),
		DownloadTTL:    parseDuration(v.GetString("CONTENT_DOWNLOAD_TTL"), 30*time.Minute),
	}

	maxResourceSize := v.GetInt64("CAPTURE_MAX_RESOURCE_SIZE")
	if maxResourceSize <= 0 {
		maxResourceSize = 5 * 1024 * 1024
	}
	cfg.Capture = CaptureConfig{
		LoadGraceTimeout:  parseDuration(v.GetString("CAPTURE_LOAD_GRACE_TIMEOUT"), 10*time.Second),
		InlineConcurrency: v.GetInt("CAPTURE_INLINE_CONCURRENCY"),
		MaxResourceSize:   maxResourceSize,
		ResourceTimeout:   parseDuration(v.GetString("CAPTURE_RESOURCE_TIMEOUT"), 15*time.Second),
		Headless:          v.GetBool("CAPTURE_HEADLESS"),
	}

	cfg.Channel = ChannelConfig{
		InvokeTimeout: parseDuration(v.GetString("CHANNEL_INVOKE_TIMEOUT"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pagevault")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BEARER_TOKEN", "dev_token")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CONTENT_STORAGE_DIR", "./content")
	v.SetDefault("CONTENT_DOWNLOAD_SECRET", "dev_content_secret")
	v.SetDefault("CONTENT_DOWNLOAD_TTL", "30m")

	v.SetDefault("CAPTURE_LOAD_GRACE_TIMEOUT", "10s")
	v.SetDefault("CAPTURE_INLINE_CONCURRENCY", 4)
	v.SetDefault("CAPTURE_MAX_RESOURCE_SIZE", 5*1024*1024)
	v.SetDefault("CAPTURE_RESOURCE_TIMEOUT", "15s")
	v.SetDefault("CAPTURE_HEADLESS", true)

	v.SetDefault("CHANNEL_INVOKE_TIMEOUT", "30s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
