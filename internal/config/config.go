package config

import (
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"SERVER_PORT" envDefault:"8000"`
	Env             string        `env:"APP_ENV" envDefault:"dev"` // dev or prod
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	TrustedOrigins  []string      `env:"TRUSTED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type DatabaseConfig struct {
	URL          string `env:"DB_URL,required"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	// AutoMigrate applies pending migrations on startup
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// RedisConfig is optional. An empty host disables rate limiting and
// email confirmation.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AuthConfig struct {
	Secret    string `env:"JWT_SECRET,required"`
	Algorithm string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	// Expiration is the access token lifetime in seconds
	Expiration int `env:"JWT_EXPIRATION" envDefault:"3600"`

	PasswordAlgorithm string `env:"PASSWORD_ALGORITHM" envDefault:"bcrypt"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`

	// MergeCredentialErrors reports unknown email and wrong password as the
	// same error on sign-in.
	MergeCredentialErrors bool          `env:"AUTH_MERGE_CREDENTIAL_ERRORS" envDefault:"false"`
	DefaultAvatar         string        `env:"DEFAULT_AVATAR" envDefault:"/path/to/default/avatar.jpg"`
	ConfirmationTTL       time.Duration `env:"CONFIRMATION_TTL" envDefault:"24h"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// EmailConfig is optional. An empty SMTP host disables confirmation emails.
type EmailConfig struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"teamtasks-api"`
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
		if c.Auth.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	case "v4.local":
		if len(c.Auth.Secret) != 32 {
			return fmt.Errorf("JWT_SECRET must be exactly 32 bytes for v4.local, got %d", len(c.Auth.Secret))
		}
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Auth.Algorithm)
	}

	if c.Auth.Expiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive, got %d", c.Auth.Expiration)
	}

	switch c.Auth.PasswordAlgorithm {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("unsupported PASSWORD_ALGORITHM %q", c.Auth.PasswordAlgorithm)
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}

	return nil
}

// TokenTTL returns the access token lifetime
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.Expiration) * time.Second
}

// Address returns the listen address (host:port)
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// Enabled reports whether a Redis host is configured
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Enabled reports whether outgoing email is configured
func (c *EmailConfig) Enabled() bool {
	return c.SMTPHost != ""
}

// Address returns the SMTP server address (host:port)
func (c *EmailConfig) Address() string {
	return net.JoinHostPort(c.SMTPHost, c.SMTPPort)
}
