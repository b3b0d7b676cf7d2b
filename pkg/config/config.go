package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Media        MediaConfig
	Claims       ClaimsConfig
	Square       SquareConfig
	Webhook      WebhookConfig
	Sweeper      SweeperConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOUNDLEAF_APP_ENV" required:"true"`
	Port         string `envconfig:"SOUNDLEAF_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOUNDLEAF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUNDLEAF_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOUNDLEAF_DB_DSN"`
	Driver string `envconfig:"SOUNDLEAF_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOUNDLEAF_DB_HOST"`
	LegacyPort     int    `envconfig:"SOUNDLEAF_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOUNDLEAF_DB_USER"`
	LegacyPassword string `envconfig:"SOUNDLEAF_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOUNDLEAF_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOUNDLEAF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOUNDLEAF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOUNDLEAF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOUNDLEAF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOUNDLEAF_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUNDLEAF_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOUNDLEAF_REDIS_ADDR"`
	Password     string        `envconfig:"SOUNDLEAF_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOUNDLEAF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOUNDLEAF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOUNDLEAF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOUNDLEAF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUNDLEAF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOUNDLEAF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOUNDLEAF_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOUNDLEAF_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOUNDLEAF_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type StorageConfig struct {
	Endpoint      string        `envconfig:"SOUNDLEAF_STORAGE_ENDPOINT" required:"true"`
	AccessKey     string        `envconfig:"SOUNDLEAF_STORAGE_ACCESS_KEY" required:"true"`
	SecretKey     string        `envconfig:"SOUNDLEAF_STORAGE_SECRET_KEY" required:"true"`
	BucketName    string        `envconfig:"SOUNDLEAF_STORAGE_BUCKET_NAME" required:"true"`
	Region        string        `envconfig:"SOUNDLEAF_STORAGE_REGION" default:"us-east-1"`
	UseSSL        bool          `envconfig:"SOUNDLEAF_STORAGE_USE_SSL" default:"true"`
	StreamExpiry  time.Duration `envconfig:"SOUNDLEAF_STORAGE_STREAM_URL_EXPIRY" default:"4h"`
	UploadTimeout time.Duration `envconfig:"SOUNDLEAF_STORAGE_UPLOAD_TIMEOUT" default:"10m"`
}

type MediaConfig struct {
	MaxChapterUploadMB int `envconfig:"SOUNDLEAF_MAX_CHAPTER_UPLOAD_MB" default:"300"`
	MaxCoverUploadMB   int `envconfig:"SOUNDLEAF_MAX_COVER_UPLOAD_MB" default:"10"`
	MaxChaptersPerItem int `envconfig:"SOUNDLEAF_MAX_CHAPTERS_PER_ITEM" default:"500"`
	MaxDurationSeconds int `envconfig:"SOUNDLEAF_MAX_CHAPTER_DURATION_SECONDS" default:"86400"`
}

// MaxChapterUploadBytes converts the configured megabyte budget to bytes.
func (m MediaConfig) MaxChapterUploadBytes() int64 {
	return int64(m.MaxChapterUploadMB) * 1024 * 1024
}

// MaxCoverUploadBytes converts the configured megabyte budget to bytes.
func (m MediaConfig) MaxCoverUploadBytes() int64 {
	return int64(m.MaxCoverUploadMB) * 1024 * 1024
}

type ClaimsConfig struct {
	RateLimitWindow time.Duration `envconfig:"SOUNDLEAF_CLAIM_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMax    int           `envconfig:"SOUNDLEAF_CLAIM_RATE_LIMIT_MAX" default:"10"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"SOUNDLEAF_SQUARE_ACCESS_TOKEN"`
	Env           string `envconfig:"SOUNDLEAF_SQUARE_ENV" default:"sandbox"`
	WebhookSecret string `envconfig:"SOUNDLEAF_SQUARE_WEBHOOK_SECRET"`
	WebhookURL    string `envconfig:"SOUNDLEAF_SQUARE_WEBHOOK_URL"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SOUNDLEAF_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type SweeperConfig struct {
	Interval    time.Duration `envconfig:"SOUNDLEAF_SWEEPER_INTERVAL" default:"1h"`
	GracePeriod time.Duration `envconfig:"SOUNDLEAF_SWEEPER_GRACE_PERIOD" default:"24h"`
	BatchSize   int           `envconfig:"SOUNDLEAF_SWEEPER_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOUNDLEAF_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
