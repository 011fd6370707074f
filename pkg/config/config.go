package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FASTFARE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "FASTFARE_APP_ENV"
	EnvDBDSN  = "FASTFARE_DB_DSN"
	EnvDBHost = "FASTFARE_DB_HOST"
	EnvDBUser = "FASTFARE_DB_USER"
	EnvDBName = "FASTFARE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Settlement   SettlementConfig
	Razorpay     RazorpayConfig
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
	Env          string `envconfig:"FASTFARE_APP_ENV" required:"true"`
	Port         string `envconfig:"FASTFARE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FASTFARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FASTFARE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FASTFARE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FASTFARE_DB_DSN"`
	Driver string `envconfig:"FASTFARE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FASTFARE_DB_HOST"`
	LegacyPort     int    `envconfig:"FASTFARE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FASTFARE_DB_USER"`
	LegacyPassword string `envconfig:"FASTFARE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FASTFARE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FASTFARE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FASTFARE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FASTFARE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FASTFARE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FASTFARE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FASTFARE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FASTFARE_REDIS_ADDR"`
	Password     string        `envconfig:"FASTFARE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FASTFARE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FASTFARE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FASTFARE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FASTFARE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FASTFARE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FASTFARE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FASTFARE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FASTFARE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FASTFARE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FASTFARE_FEATURE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"FASTFARE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ShipmentsTopic        string `envconfig:"FASTFARE_PUBSUB_SHIPMENTS_TOPIC" required:"true"`
	ShipmentsSubscription string `envconfig:"FASTFARE_PUBSUB_SHIPMENTS_SUBSCRIPTION" required:"true"`
	DomainTopic           string `envconfig:"FASTFARE_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription    string `envconfig:"FASTFARE_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FASTFARE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FASTFARE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FASTFARE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"FASTFARE_OUTBOX_RETENTION_DAYS" default:"30"`
}

// SettlementConfig holds the operational thresholds the settlement core needs
// but the product docs leave open: the RTO clearance window before a
// delivered order becomes settlement-eligible, COD reconciliation tolerance,
// retry budgets and the stuck-processing alert threshold.
type SettlementConfig struct {
	EligibilityWindow    time.Duration `envconfig:"FASTFARE_SETTLEMENT_ELIGIBILITY_WINDOW" default:"48h"`
	MaxRetries           int           `envconfig:"FASTFARE_SETTLEMENT_MAX_RETRIES" default:"3"`
	CarryOverMissedCycle bool          `envconfig:"FASTFARE_SETTLEMENT_CARRY_OVER" default:"true"`
	ProcessingStuckAfter time.Duration `envconfig:"FASTFARE_PROCESSING_STUCK_AFTER" default:"24h"`
	CODTolerancePaise    int64         `envconfig:"FASTFARE_COD_TOLERANCE_PAISE" default:"0"`
	LedgerWriteRetries   int           `envconfig:"FASTFARE_LEDGER_WRITE_RETRIES" default:"3"`
}

type RazorpayConfig struct {
	KeyID         string `envconfig:"FASTFARE_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"FASTFARE_RAZORPAY_KEY_SECRET"`
	AccountNo     string `envconfig:"FASTFARE_RAZORPAY_ACCOUNT_NO"`
	WebhookSecret string `envconfig:"FASTFARE_RAZORPAY_WEBHOOK_SECRET"`
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
