package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Mail     MailConfig
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

type DatabaseConfig struct {
	URL            string `env:"DATABASE_URL,required"`
	MaxConns       int    `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns       int    `env:"DB_MIN_CONNS" envDefault:"5"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET,required"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,required"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	APIKeyHeader     string        `env:"API_KEY_HEADER" envDefault:"X-API-Key"`
}

type MailConfig struct {
	Host        string `env:"MAIL_HOST" envDefault:"localhost"`
	Port        int    `env:"MAIL_PORT" envDefault:"1025"`
	Username    string `env:"MAIL_USER"`
	Password    string `env:"MAIL_PASSWORD"`
	From        string `env:"MAIL_FROM" envDefault:"noreply@saasbase.dev"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3001"`
}

func Load() (*Config, error) {
	// .env is for local development; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
