package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/pactwine/pact-backend/pkg/enums"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Fulfillment  FulfillmentConfig
	FX           FXConfig
	Notify       NotifyConfig
	Cron         CronConfig
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
	Env          string `envconfig:"PACT_APP_ENV" required:"true"`
	Port         string `envconfig:"PACT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PACT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PACT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PACT_DB_DSN"`
	Driver string `envconfig:"PACT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PACT_DB_HOST"`
	LegacyPort     int    `envconfig:"PACT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PACT_DB_USER"`
	LegacyPassword string `envconfig:"PACT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PACT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PACT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PACT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PACT_REDIS_ADDR"`
	Password     string        `envconfig:"PACT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// FulfillmentConfig carries the pallet consolidation defaults.
type FulfillmentConfig struct {
	DefaultBottleCapacity int    `envconfig:"PACT_PALLET_BOTTLE_CAPACITY" default:"720"`
	BottleMultiple        int    `envconfig:"PACT_BOTTLE_MULTIPLE" default:"6"`
	LocalCurrency         string `envconfig:"PACT_LOCAL_CURRENCY" default:"SEK"`
}

// SettlementCurrency parses the configured local currency, defaulting
// to SEK when the knob is unset.
func SettlementCurrency(cfg FulfillmentConfig) (enums.Currency, error) {
	if cfg.LocalCurrency == "" {
		return enums.LocalCurrency, nil
	}
	currency, err := enums.ParseCurrency(cfg.LocalCurrency)
	if err != nil {
		return "", fmt.Errorf("parsing local currency: %w", err)
	}
	return currency, nil
}

type FXConfig struct {
	BaseURL  string        `envconfig:"PACT_FX_BASE_URL"`
	Timeout  time.Duration `envconfig:"PACT_FX_TIMEOUT" default:"3s"`
	CacheTTL time.Duration `envconfig:"PACT_FX_CACHE_TTL" default:"1h"`
}

type NotifyConfig struct {
	CompletionWebhookURL string        `envconfig:"PACT_NOTIFY_COMPLETION_WEBHOOK_URL"`
	Timeout              time.Duration `envconfig:"PACT_NOTIFY_TIMEOUT" default:"5s"`
}

type CronConfig struct {
	ReconcileInterval time.Duration `envconfig:"PACT_CRON_RECONCILE_INTERVAL" default:"1m"`
	LockTTL           time.Duration `envconfig:"PACT_CRON_LOCK_TTL" default:"50s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PACT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PACT_AUTO_MIGRATE" default:"false"`
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
