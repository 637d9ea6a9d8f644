package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "FAMILYSOUQ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FAMILYSOUQ_DB_DSN"
	EnvDBHost = "FAMILYSOUQ_DB_HOST"
	EnvDBUser = "FAMILYSOUQ_DB_USER"
	EnvDBName = "FAMILYSOUQ_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
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
	Env          string `envconfig:"FAMILYSOUQ_APP_ENV" required:"true"`
	Port         string `envconfig:"FAMILYSOUQ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FAMILYSOUQ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FAMILYSOUQ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FAMILYSOUQ_DB_DSN"`
	Driver string `envconfig:"FAMILYSOUQ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FAMILYSOUQ_DB_HOST"`
	LegacyPort     int    `envconfig:"FAMILYSOUQ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FAMILYSOUQ_DB_USER"`
	LegacyPassword string `envconfig:"FAMILYSOUQ_DB_PASSWORD"`
	LegacyName     string `envconfig:"FAMILYSOUQ_DB_NAME"`
	LegacySSLMode  string `envconfig:"FAMILYSOUQ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FAMILYSOUQ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FAMILYSOUQ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FAMILYSOUQ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FAMILYSOUQ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FAMILYSOUQ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FAMILYSOUQ_REDIS_ADDR"`
	Password     string        `envconfig:"FAMILYSOUQ_REDIS_PASSWORD"`
	DB           int           `envconfig:"FAMILYSOUQ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FAMILYSOUQ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FAMILYSOUQ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FAMILYSOUQ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FAMILYSOUQ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FAMILYSOUQ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FAMILYSOUQ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FAMILYSOUQ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FAMILYSOUQ_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	IdempotencyTTL         time.Duration `envconfig:"FAMILYSOUQ_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	OrderNumberMaxAttempts int           `envconfig:"FAMILYSOUQ_ORDER_NUMBER_MAX_ATTEMPTS" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FAMILYSOUQ_AUTO_MIGRATE" default:"false"`
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
