package config

import (
	"errors"
	"io/fs"
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
	CORS     CORSConfig
	Log      LogConfig
	CRM      CRMConfig
	Seed     SeedConfig
	Imports  ImportsConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CRMConfig holds the lead store defaults.
type CRMConfig struct {
	DefaultOwnerID string
	TimezoneName   string
	Location       *time.Location
}

// SeedConfig controls the demo dataset loaded at start-up.
type SeedConfig struct {
	Leads int
	Value int64
}

// ImportsConfig configures bulk CSV lead imports.
type ImportsConfig struct {
	Enabled         bool
	StorageDir      string
	ProcessingDelay time.Duration
	Workers         int
	Retries         int
	MaxFileSize     int64
	StatusTTL       time.Duration
	// UploadTTL bounds how long an unprocessed upload is kept on disk.
	UploadTTL time.Duration
}

// AuditConfig selects the audit sink for mutating requests.
type AuditConfig struct {
	DatabaseEnabled bool
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	tz := v.GetString("CRM_TIMEZONE")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	cfg.CRM = CRMConfig{
		DefaultOwnerID: v.GetString("CRM_DEFAULT_OWNER_ID"),
		TimezoneName:   tz,
		Location:       loc,
	}

	cfg.Seed = SeedConfig{
		Leads: v.GetInt("SEED_LEADS"),
		Value: v.GetInt64("SEED_VALUE"),
	}

	maxFileSize := v.GetInt64("IMPORTS_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	workers := v.GetInt("IMPORTS_WORKERS")
	if workers <= 0 {
		workers = 1
	}
	cfg.Imports = ImportsConfig{
		Enabled:         v.GetBool("ENABLE_IMPORTS"),
		StorageDir:      v.GetString("IMPORTS_STORAGE_DIR"),
		ProcessingDelay: parseDuration(v.GetString("IMPORTS_PROCESSING_DELAY"), 2*time.Second),
		Workers:         workers,
		Retries:         v.GetInt("IMPORTS_RETRIES"),
		MaxFileSize:     maxFileSize,
		StatusTTL:       parseDuration(v.GetString("IMPORTS_STATUS_TTL"), 24*time.Hour),
		UploadTTL:       parseDuration(v.GetString("IMPORTS_UPLOAD_TTL"), 6*time.Hour),
	}

	cfg.Audit = AuditConfig{DatabaseEnabled: v.GetBool("ENABLE_AUDIT_DB")}
	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

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
	v.SetDefault("DB_NAME", "edu_erp_crm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CRM_DEFAULT_OWNER_ID", "USR-001")
	v.SetDefault("CRM_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("SEED_LEADS", 100)
	v.SetDefault("SEED_VALUE", 0)

	v.SetDefault("ENABLE_IMPORTS", true)
	v.SetDefault("IMPORTS_STORAGE_DIR", "./uploads")
	v.SetDefault("IMPORTS_PROCESSING_DELAY", "2s")
	v.SetDefault("IMPORTS_WORKERS", 1)
	v.SetDefault("IMPORTS_RETRIES", 2)
	v.SetDefault("IMPORTS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("IMPORTS_STATUS_TTL", "24h")
	v.SetDefault("IMPORTS_UPLOAD_TTL", "6h")

	v.SetDefault("ENABLE_AUDIT_DB", false)
	v.SetDefault("ENABLE_METRICS", true)
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
