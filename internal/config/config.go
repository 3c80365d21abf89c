package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Clamd         ClamdConfig         `mapstructure:"clamd"`
	Export        ExportConfig        `mapstructure:"export"`
	Payments      PaymentsConfig      `mapstructure:"payments"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port         int    `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	CORSOrigins  string `mapstructure:"cors_origins"`
	MaxDocuments int    `mapstructure:"max_documents"`
}

// AllowedOrigins splits the comma separated origin list.
func (a APIConfig) AllowedOrigins() []string {
	parts := strings.Split(a.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port for go-redis and asynq.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// AuthConfig 描述 JWT 密钥与登录保护参数。
type AuthConfig struct {
	PrivateKeyPath     string        `mapstructure:"private_key_path"`
	PublicKeyPath      string        `mapstructure:"public_key_path"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	LoginRatePerHour   int           `mapstructure:"login_rate_per_hour"`
	LoginLockThreshold int           `mapstructure:"login_lock_threshold"`
	LoginLockTTL       time.Duration `mapstructure:"login_lock_ttl"`
	CookieDomain       string        `mapstructure:"cookie_domain"`
}

// ClamdConfig points at the clamd daemon used for upload scanning.
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// ExportConfig controls the headless browser used for PDF and thumbnails.
type ExportConfig struct {
	Engine         string        `mapstructure:"engine"`
	ChromePath     string        `mapstructure:"chrome_path"`
	ThumbnailWidth int           `mapstructure:"thumbnail_width"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
}

// PaymentsConfig holds the shared secret of the payment webhook.
type PaymentsConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// ObservabilityConfig configures Sentry and OpenTelemetry.
type ObservabilityConfig struct {
	SentryDSN       string  `mapstructure:"sentry_dsn"`
	OtelExporter    string  `mapstructure:"otel_exporter"`
	OtelEndpoint    string  `mapstructure:"otel_endpoint"`
	OtelSampleRatio float64 `mapstructure:"otel_sample_ratio"`
}

// AnalyticsConfig configures the dashboard window and refresh schedule.
type AnalyticsConfig struct {
	TrailingMonths int           `mapstructure:"trailing_months"`
	RefreshCron    string        `mapstructure:"refresh_cron"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from environment variables (with optional defaults).
// A .env file in the working directory is honoured when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.cors_origins", "http://localhost:3000")
	v.SetDefault("api.max_documents", 20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "cvforge")
	v.SetDefault("database.user", "cvforge")
	v.SetDefault("database.password", "cvforge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "documents")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("auth.private_key_path", "keys/jwt_private.pem")
	v.SetDefault("auth.public_key_path", "keys/jwt_public.pem")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.login_rate_per_hour", 10)
	v.SetDefault("auth.login_lock_threshold", 5)
	v.SetDefault("auth.login_lock_ttl", 15*time.Minute)
	v.SetDefault("clamd.addr", "tcp://localhost:3310")
	v.SetDefault("export.engine", "rod")
	v.SetDefault("export.thumbnail_width", 320)
	v.SetDefault("export.settle_delay", 500*time.Millisecond)
	v.SetDefault("observability.otel_exporter", "none")
	v.SetDefault("observability.otel_sample_ratio", 0.1)
	v.SetDefault("analytics.trailing_months", 12)
	v.SetDefault("analytics.refresh_cron", "@every 30m")
	v.SetDefault("analytics.cache_ttl", time.Hour)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                        "API_PORT",
		"api.environment":                 "APP_ENV",
		"api.cors_origins":                "CORS_ORIGINS",
		"api.max_documents":               "MAX_DOCUMENTS_PER_USER",
		"database.host":                   "DATABASE_HOST",
		"database.port":                   "DATABASE_PORT",
		"database.name":                   "POSTGRES_DB",
		"database.user":                   "POSTGRES_USER",
		"database.password":               "POSTGRES_PASSWORD",
		"database.sslmode":                "DATABASE_SSLMODE",
		"redis.host":                      "REDIS_HOST",
		"redis.port":                      "REDIS_PORT",
		"minio.endpoint":                  "MINIO_ENDPOINT",
		"minio.public_endpoint":           "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":             "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":         "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                   "MINIO_USE_SSL",
		"minio.bucket":                    "MINIO_BUCKET",
		"minio.region":                    "MINIO_REGION",
		"minio.bucket_lookup":             "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":        "MINIO_AUTO_CREATE_BUCKET",
		"auth.private_key_path":           "JWT_PRIVATE_KEY_PATH",
		"auth.public_key_path":            "JWT_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":           "JWT_ACCESS_TTL",
		"auth.refresh_token_ttl":          "JWT_REFRESH_TTL",
		"auth.login_rate_per_hour":        "LOGIN_RATE_LIMIT_PER_HOUR",
		"auth.login_lock_threshold":       "LOGIN_LOCK_THRESHOLD",
		"auth.login_lock_ttl":             "LOGIN_LOCK_TTL",
		"auth.cookie_domain":              "COOKIE_DOMAIN",
		"clamd.addr":                      "CLAMD_ADDR",
		"export.engine":                   "EXPORT_ENGINE",
		"export.chrome_path":              "CHROME_PATH",
		"export.thumbnail_width":          "EXPORT_THUMBNAIL_WIDTH",
		"export.settle_delay":             "EXPORT_SETTLE_DELAY",
		"payments.webhook_secret":         "PAYMENT_WEBHOOK_SECRET",
		"observability.sentry_dsn":        "SENTRY_DSN",
		"observability.otel_exporter":     "OTEL_EXPORTER",
		"observability.otel_endpoint":     "OTEL_EXPORTER_OTLP_ENDPOINT",
		"observability.otel_sample_ratio": "OTEL_SAMPLE_RATIO",
		"analytics.trailing_months":       "ANALYTICS_TRAILING_MONTHS",
		"analytics.refresh_cron":          "ANALYTICS_REFRESH_CRON",
		"analytics.cache_ttl":             "ANALYTICS_CACHE_TTL",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	switch strings.ToLower(cfg.Export.Engine) {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("unsupported export engine %q", cfg.Export.Engine)
	}
	switch strings.ToLower(cfg.Observability.OtelExporter) {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unsupported otel exporter %q", cfg.Observability.OtelExporter)
	}
	if cfg.Analytics.TrailingMonths <= 0 {
		return errors.New("analytics trailing months must be positive")
	}
	return nil
}
