package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	NotifyLog     = "log"
	NotifySMTP    = "smtp"
	NotifyWebhook = "webhook"
)

var (
	ErrMissingJWTSecret  = errors.New("JWT_SECRET must be set")
	ErrUnknownStore      = errors.New("unknown STORE_DRIVER")
	ErrUnknownNotifier   = errors.New("unknown NOTIFY_DRIVER")
	ErrMissingPostgresDS = errors.New("POSTGRES_DSN must be set when STORE_DRIVER=postgres")
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret  string        `env:"JWT_SECRET"`
	JWTTTL     time.Duration `env:"JWT_TTL,     default=24h"`
	BcryptCost int           `env:"BCRYPT_COST, default=12"`

	// AdminLogins are usernames that start with the admin role when registered.
	AdminLogins []string `env:"ADMIN_LOGINS"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	Store    StoreConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Notify   NotifyConfig
	SMTP     SMTPConfig
}

type StoreConfig struct {
	Driver  string        `env:"STORE_DRIVER,  default=mongo"`
	Timeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,         default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database   string `env:"MONGO_DB,          default=account_system"`
	ReplicaSet string `env:"MONGO_REPLICA_SET"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Username string `env:"REDIS_USERNAME"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	TLS      bool   `env:"REDIS_TLS,      default=false"`
}

type NotifyConfig struct {
	Driver     string        `env:"NOTIFY_DRIVER,      default=log"`
	AdminEmail string        `env:"NOTIFY_ADMIN_EMAIL"`
	WebhookURL string        `env:"NOTIFY_WEBHOOK_URL"`
	Workers    int           `env:"NOTIFY_WORKERS,     default=4"`
	QueueSize  int           `env:"NOTIFY_QUEUE_SIZE,  default=256"`
	Timeout    time.Duration `env:"NOTIFY_TIMEOUT,     default=10s"`
	DedupTTL   time.Duration `env:"NOTIFY_DEDUP_TTL,   default=1h"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules envconfig tags cannot express.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	switch c.Store.Driver {
	case StoreMongo:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return ErrMissingPostgresDS
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store.Driver)
	}

	switch c.Notify.Driver {
	case NotifyLog, NotifySMTP, NotifyWebhook:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNotifier, c.Notify.Driver)
	}
	return nil
}

// IsDevelopment reports whether the process runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
