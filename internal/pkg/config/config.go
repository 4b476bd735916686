package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Session backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Activity backends.
const (
	ActivityLog   = "log"
	ActivityMongo = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth     AuthConfig
	Session  SessionConfig
	Activity ActivityConfig
	Mongo    MongoConfig
	Redis    RedisConfig

	NotificationBuffer int `env:"NOTIFICATION_BUFFER, default=32"`
}

type AuthConfig struct {
	// AdminPasswordDigest overrides the compiled-in admin digest when set.
	AdminPasswordDigest string `env:"ADMIN_PASSWORD_DIGEST"`
	DigestAlgorithm     string `env:"DIGEST_ALGORITHM, default=sha256"`
}

type SessionConfig struct {
	Backend    string `env:"SESSION_BACKEND, default=sqlite"`
	Key        string `env:"SESSION_KEY,     default=huygym_user"`
	SQLitePath string `env:"SQLITE_PATH,     default=huygym.db"`
}

type ActivityConfig struct {
	Backend string `env:"ACTIVITY_BACKEND, default=log"`
	Workers int    `env:"ACTIVITY_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=huygym"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper and validates the backend
// selections.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	switch c.Activity.Backend {
	case ActivityLog, ActivityMongo:
	default:
		return fmt.Errorf("unknown ACTIVITY_BACKEND %q", c.Activity.Backend)
	}
	if c.Session.Key == "" {
		return fmt.Errorf("SESSION_KEY must not be empty")
	}
	return nil
}
