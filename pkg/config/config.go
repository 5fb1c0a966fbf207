package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Square       SquareConfig
	Checkout     CheckoutConfig
	Wallet       WalletConfig
	Invoice      InvoiceConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"FERMELINK_APP_ENV" required:"true"`
	Port         string `envconfig:"FERMELINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FERMELINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FERMELINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FERMELINK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FERMELINK_DB_DSN"`
	Driver string `envconfig:"FERMELINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FERMELINK_DB_HOST"`
	LegacyPort     int    `envconfig:"FERMELINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FERMELINK_DB_USER"`
	LegacyPassword string `envconfig:"FERMELINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"FERMELINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"FERMELINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FERMELINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FERMELINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FERMELINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FERMELINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FERMELINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FERMELINK_REDIS_ADDR"`
	Password     string        `envconfig:"FERMELINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"FERMELINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FERMELINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FERMELINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FERMELINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FERMELINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FERMELINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FERMELINK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FERMELINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FERMELINK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FERMELINK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FERMELINK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FERMELINK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FERMELINK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FERMELINK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FERMELINK_ARGON_KEY_LEN" default:"32"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FERMELINK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type RateLimitConfig struct {
	Window    time.Duration `envconfig:"FERMELINK_RATE_LIMIT_WINDOW" default:"1m"`
	UserLimit int           `envconfig:"FERMELINK_RATE_LIMIT_USER_LIMIT" default:"60"`
	IPLimit   int           `envconfig:"FERMELINK_RATE_LIMIT_IP_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FERMELINK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FERMELINK_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"FERMELINK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FERMELINK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FERMELINK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FERMELINK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic               string `envconfig:"FERMELINK_PUBSUB_EVENTS_TOPIC" default:"fl-domain-events"`
	NotificationsSubscription string `envconfig:"FERMELINK_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" required:"true"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"FERMELINK_SQUARE_ACCESS_TOKEN"`
	Environment string `envconfig:"FERMELINK_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"FERMELINK_SQUARE_LOCATION_ID"`
	Currency    string `envconfig:"FERMELINK_SQUARE_CURRENCY" default:"EUR"`
}

// IsSandbox reports whether the gateway points at the Square sandbox.
func (s SquareConfig) IsSandbox() bool {
	return !strings.EqualFold(strings.TrimSpace(s.Environment), "production")
}

type CheckoutConfig struct {
	DeliveryFee string `envconfig:"FERMELINK_CHECKOUT_DELIVERY_FEE" default:"15.00"`
}

// DeliveryFeeAmount parses the configured flat delivery fee.
func (c CheckoutConfig) DeliveryFeeAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(c.DeliveryFee)
}

type WalletConfig struct {
	MinWithdrawal string `envconfig:"FERMELINK_WALLET_MIN_WITHDRAWAL" default:"10.00"`
}

// MinWithdrawalAmount parses the configured minimum withdrawal.
func (w WalletConfig) MinWithdrawalAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(w.MinWithdrawal)
}

type InvoiceConfig struct {
	DueDays int `envconfig:"FERMELINK_INVOICE_DUE_DAYS" default:"30"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FERMELINK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FERMELINK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FERMELINK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	InvoiceOverdueInterval  time.Duration `envconfig:"FERMELINK_CRON_INVOICE_OVERDUE_INTERVAL" default:"1h"`
	OutboxRetentionInterval time.Duration `envconfig:"FERMELINK_CRON_OUTBOX_RETENTION_INTERVAL" default:"24h"`
	OutboxRetentionAge      time.Duration `envconfig:"FERMELINK_CRON_OUTBOX_RETENTION_AGE" default:"168h"`
	LockTTL                 time.Duration `envconfig:"FERMELINK_CRON_LOCK_TTL" default:"5m"`
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
