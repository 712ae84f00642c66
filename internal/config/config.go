// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting the server reads at boot.
type Config struct {
	Port           string        `env:"PORT"             envDefault:"5175"`
	LogLevel       string        `env:"LOG_LEVEL"        envDefault:"info"`
	DBPath         string        `env:"DB_PATH"          envDefault:"./data/digits.db"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN"    envDefault:"http://localhost:5173"`
	JWTSecret      string        `env:"JWT_SECRET"       envDefault:"dev_secret_change_me"`
	JWTExpiresDays int           `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string        `env:"COOKIE_NAME"      envDefault:"digits_token"`
	AppEnv         string        `env:"APP_ENV"          envDefault:"development"`
	DailySalt      string        `env:"DAILY_SALT"       envDefault:"local_dev_salt"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"10s"`
	SessionTTL     time.Duration `env:"SESSION_TTL"      envDefault:"24h"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	if c.JWTExpiresDays <= 0 {
		return c, fmt.Errorf("parse env: JWT_EXPIRES_DAYS must be positive, got %d", c.JWTExpiresDays)
	}
	return c, nil
}

// Production reports whether cookies must be Secure.
func (c Config) Production() bool { return c.AppEnv == "production" }

// TokenTTL is the lifetime of player tokens.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
