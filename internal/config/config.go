package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains all runtime configuration, loaded from the environment.
type Config struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	DatabasePath string        `env:"DATABASE_PATH" envDefault:"reelpick.db"`
	BaseURL      string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	JWTSecret    string        `env:"JWT_SECRET,required"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"12"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	SMTP    SMTP    `envPrefix:"SMTP_"`
	Catalog Catalog `envPrefix:"CATALOG_"`
}

// SMTP contains the mail relay used for activation messages. When Host is
// empty the server falls back to logging activation links instead of sending.
type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Catalog contains the upstream movie-catalog API parameters.
type Catalog struct {
	BaseURL     string `env:"BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	BearerToken string `env:"BEARER_TOKEN"`
}

// Load reads configuration from the environment. In development a .env file
// in the working directory is loaded first, if present.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cfg.BcryptCost)
	}

	return cfg, nil
}
