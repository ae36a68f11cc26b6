package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	Sendgrid     SendgridConfig
	Shipping     ShippingConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOUQ_APP_ENV" required:"true"`
	Port         string `envconfig:"SOUQ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOUQ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUQ_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SOUQ_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOUQ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SOUQ_DB_DSN"`
	Driver string `envconfig:"SOUQ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOUQ_DB_HOST"`
	LegacyPort     int    `envconfig:"SOUQ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOUQ_DB_USER"`
	LegacyPassword string `envconfig:"SOUQ_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOUQ_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOUQ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOUQ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOUQ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOUQ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOUQ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUQ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOUQ_REDIS_ADDR"`
	Password     string        `envconfig:"SOUQ_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOUQ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOUQ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOUQ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOUQ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUQ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOUQ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOUQ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOUQ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOUQ_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOUQ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOUQ_AUTO_MIGRATE" default:"false"`
}

// LedgerConfig holds the bookkeeping knobs shared by wallets, earnings and payouts.
type LedgerConfig struct {
	Currency        string          `envconfig:"SOUQ_LEDGER_CURRENCY" default:"BHD"`
	AdminWalletID   string          `envconfig:"SOUQ_ADMIN_WALLET_ID"`
	VendorShareRate decimal.Decimal `envconfig:"SOUQ_VENDOR_SHARE_RATE" default:"0.9"`
	CommissionRate  decimal.Decimal `envconfig:"SOUQ_COMMISSION_RATE" default:"0.1"`
}

// AdminWallet returns the configured admin wallet owner, or uuid.Nil when unset.
func (l LedgerConfig) AdminWallet() uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(l.AdminWalletID))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (l LedgerConfig) validate() error {
	if strings.TrimSpace(l.AdminWalletID) != "" && l.AdminWallet() == uuid.Nil {
		return fmt.Errorf("%s must be a uuid", EnvAdminWalletID)
	}
	if !l.VendorShareRate.Add(l.CommissionRate).Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s and %s must sum to 1", EnvVendorShareRate, EnvCommissionRate)
	}
	return nil
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SOUQ_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SOUQ_SENDGRID_FROM_EMAIL"`
	BaseURL     string `envconfig:"SOUQ_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

// Enabled reports whether outbound email is configured.
func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.DefaultFrom) != ""
}

type ShippingConfig struct {
	BaseURL string        `envconfig:"SOUQ_SHIPPING_BASE_URL"`
	APIKey  string        `envconfig:"SOUQ_SHIPPING_API_KEY"`
	Timeout time.Duration `envconfig:"SOUQ_SHIPPING_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"SOUQ_CRON_INTERVAL" default:"15m"`
	LockTTL           time.Duration `envconfig:"SOUQ_CRON_LOCK_TTL" default:"10m"`
	ReconcileLookback time.Duration `envconfig:"SOUQ_CRON_RECONCILE_LOOKBACK" default:"72h"`
}

// RateLimitConfig caps state-changing requests per user. A zero limit disables it.
type RateLimitConfig struct {
	Window     time.Duration `envconfig:"SOUQ_RATE_LIMIT_WINDOW" default:"1m"`
	WriteLimit int           `envconfig:"SOUQ_RATE_LIMIT_WRITES" default:"30"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if sqlite {
		db.Driver = DriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if db.Driver == DriverSQLite {
		db.DSN = "file:souq.db?cache=shared"
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
