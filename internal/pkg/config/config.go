package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DevPepper is the CREDENTIAL_PEPPER default. It is refused in production.
const DevPepper = "clipcoins-dev-pepper"

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session  SessionConfig
	Delivery DeliveryConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

// SessionConfig controls token signing and the rotating credential.
type SessionConfig struct {
	// JWTSecret signs session tokens. A random key is generated at startup
	// when empty, which invalidates every token on restart.
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,         default=24h"`
	CredentialTTL time.Duration `env:"CREDENTIAL_TTL,    default=5m"`
	Pepper        string        `env:"CREDENTIAL_PEPPER, default=clipcoins-dev-pepper"`
}

type DeliveryConfig struct {
	Workers   int    `env:"DELIVERY_WORKERS, default=4"`
	OutboxKey string `env:"TELEGRAM_OUTBOX,  default=telegram:outbox"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=clipcoins"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsProduction reports whether ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Session.CredentialTTL <= 0 {
		return nil, fmt.Errorf("CREDENTIAL_TTL must be positive, got %s", cfg.Session.CredentialTTL)
	}
	if cfg.Session.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.Session.TokenTTL)
	}
	if cfg.IsProduction() && (cfg.Session.Pepper == "" || cfg.Session.Pepper == DevPepper) {
		return nil, fmt.Errorf("CREDENTIAL_PEPPER must be set when ENV=production")
	}
	return &cfg, nil
}
