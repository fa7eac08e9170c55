package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the identity server configuration.
type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// TokenTTL applies to password login and registration; GoogleTokenTTL to Google sign-in.
	TokenTTL       time.Duration `env:"TOKEN_TTL,        default=720h"`
	GoogleTokenTTL time.Duration `env:"GOOGLE_TOKEN_TTL, default=360h"`
	AuditWorkers   int           `env:"AUDIT_WORKERS,    default=4"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Avatar AvatarConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// AvatarConfig is optional; uploads are skipped when Bucket is empty.
type AvatarConfig struct {
	Bucket          string `env:"AVATAR_BUCKET"`
	Region          string `env:"AVATAR_REGION,   default=us-east-1"`
	Endpoint        string `env:"AVATAR_ENDPOINT"`
	PublicBaseURL   string `env:"AVATAR_PUBLIC_URL"`
	AccessKeyID     string `env:"AVATAR_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AVATAR_SECRET_ACCESS_KEY"`
}

// ClientConfig configures the session client used by sessionctl.
type ClientConfig struct {
	APIURL   string        `env:"IDENTITY_API_URL, default=http://localhost:8080"`
	Timeout  time.Duration `env:"IDENTITY_TIMEOUT, default=10s"`
	DeviceID string        `env:"DEVICE_ID,        default=default"`
	LogLevel string        `env:"LOG_LEVEL,        default=info"`

	Redis RedisConfig
}

// Load reads the server configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// LoadClient reads the client configuration from environment variables.
func LoadClient(ctx context.Context) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
