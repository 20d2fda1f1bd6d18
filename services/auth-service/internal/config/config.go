package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/landlordy-api/shared/mailer"
	"github.com/vasapolrittideah/landlordy-api/shared/security"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMongo    = "mongo"

	NotifierDriverLog  = "log"
	NotifierDriverSMTP = "smtp"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"

	minSessionSecretLength = 32
)

// AuthServiceConfig holds all configuration of the auth service.
type AuthServiceConfig struct {
	AppEnv         string `env:"APP_ENV"          envDefault:"development"`
	ServiceName    string `env:"SERVICE_NAME"     envDefault:"auth-service"`
	GRPCHealthAddr string `env:"GRPC_HEALTH_ADDR"`
	FrontendURL    string `env:"FRONTEND_URL"     envDefault:"http://localhost:5173"`

	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Storage   StorageConfig
	Token     TokenConfig     `envPrefix:"TOKEN_"`
	Password  PasswordConfig  `envPrefix:"PASSWORD_"`
	Account   AccountConfig   `envPrefix:"ACCOUNT_"`
	Notifier  NotifierConfig  `envPrefix:"NOTIFIER_"`
	SMTP      mailer.Config   `envPrefix:"SMTP_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Consul    ConsulConfig    `envPrefix:"CONSUL_"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR"             envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Pretty bool   `env:"PRETTY" envDefault:"false"`
}

type StorageConfig struct {
	Driver   string         `env:"STORAGE_DRIVER" envDefault:"postgres"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Mongo    MongoConfig    `envPrefix:"MONGO_"`
}

type PostgresConfig struct {
	URL          string `env:"URL"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"20"`
}

type MongoConfig struct {
	URI      string `env:"URI"`
	Database string `env:"DATABASE" envDefault:"landlordy"`
}

// TokenConfig controls session tokens and the lifetime of one-time tokens.
type TokenConfig struct {
	Issuer                 string        `env:"ISSUER"                    envDefault:"landlordy-api"`
	SessionSecret          string        `env:"SESSION_SECRET"`
	SessionExpiresIn       time.Duration `env:"SESSION_EXPIRES_IN"        envDefault:"168h"`
	VerificationExpiresIn  time.Duration `env:"VERIFICATION_EXPIRES_IN"   envDefault:"24h"`
	PasswordResetExpiresIn time.Duration `env:"PASSWORD_RESET_EXPIRES_IN" envDefault:"1h"`
	SweepInterval          time.Duration `env:"SWEEP_INTERVAL"            envDefault:"1h"`
}

type PasswordConfig struct {
	Algorithm  string `env:"ALGORITHM"   envDefault:"bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"12"`
}

type AccountConfig struct {
	// EmailCaseInsensitive lower-cases emails before any store access.
	EmailCaseInsensitive bool `env:"EMAIL_CASE_INSENSITIVE" envDefault:"false"`
}

type NotifierConfig struct {
	Driver  string        `env:"DRIVER"  envDefault:"log"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type RateLimitConfig struct {
	Enabled         bool          `env:"ENABLED"          envDefault:"true"`
	Backend         string        `env:"BACKEND"          envDefault:"memory"`
	RedisURL        string        `env:"REDIS_URL"`
	GeneralRequests int           `env:"GENERAL_REQUESTS" envDefault:"100"`
	GeneralWindow   time.Duration `env:"GENERAL_WINDOW"   envDefault:"15m"`
	AuthRequests    int           `env:"AUTH_REQUESTS"    envDefault:"5"`
	AuthWindow      time.Duration `env:"AUTH_WINDOW"      envDefault:"15m"`
}

// ConsulConfig enables service registration when Addr is set.
type ConsulConfig struct {
	Addr           string `env:"ADDR"`
	ServiceAddress string `env:"SERVICE_ADDRESS"`
	ServicePort    int    `env:"SERVICE_PORT"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AuthServiceConfig) validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Storage.Postgres.URL == "" {
			return errors.New("missing POSTGRES_URL environment variable")
		}
	case StorageDriverMongo:
		if c.Storage.Mongo.URI == "" {
			return errors.New("missing MONGO_URI environment variable")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if len(c.Token.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("TOKEN_SESSION_SECRET must be at least %d bytes", minSessionSecretLength)
	}
	if c.Token.SessionExpiresIn <= 0 || c.Token.VerificationExpiresIn <= 0 || c.Token.PasswordResetExpiresIn <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Token.SweepInterval < 0 {
		return errors.New("TOKEN_SWEEP_INTERVAL must not be negative")
	}

	switch c.Password.Algorithm {
	case security.AlgorithmBcrypt, security.AlgorithmArgon2:
	default:
		return fmt.Errorf("unsupported PASSWORD_ALGORITHM %q", c.Password.Algorithm)
	}

	switch c.Notifier.Driver {
	case NotifierDriverLog:
		if c.IsProduction() {
			return errors.New("NOTIFIER_DRIVER=log is not allowed in production")
		}
	case NotifierDriverSMTP:
		if err := c.SMTP.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported NOTIFIER_DRIVER %q", c.Notifier.Driver)
	}

	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case RateLimitBackendMemory:
		case RateLimitBackendRedis:
			if c.RateLimit.RedisURL == "" {
				return errors.New("missing RATE_LIMIT_REDIS_URL environment variable")
			}
		default:
			return fmt.Errorf("unsupported RATE_LIMIT_BACKEND %q", c.RateLimit.Backend)
		}
		if c.RateLimit.GeneralRequests <= 0 || c.RateLimit.AuthRequests <= 0 ||
			c.RateLimit.GeneralWindow <= 0 || c.RateLimit.AuthWindow <= 0 {
			return errors.New("rate limit requests and windows must be positive")
		}
	}

	if c.Consul.Addr != "" && c.Consul.ServicePort == 0 {
		return errors.New("missing CONSUL_SERVICE_PORT environment variable")
	}

	return nil
}

// IsProduction reports whether the service runs in production.
func (c *AuthServiceConfig) IsProduction() bool {
	return c.AppEnv == "production"
}
