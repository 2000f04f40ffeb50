// Package config loads tabsplit settings from TABSPLIT_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Server configures the tabsplit server.
type Server struct {
	Port      int           `env:"TABSPLIT_PORT" envDefault:"8080"`
	DBPath    string        `env:"TABSPLIT_DB_PATH" envDefault:"./data/tabsplit.db"`
	JWTSecret string        `env:"TABSPLIT_JWT_SECRET"`
	TokenTTL  time.Duration `env:"TABSPLIT_TOKEN_TTL" envDefault:"24h"`

	FairnessCutoff decimal.Decimal `env:"TABSPLIT_FAIRNESS_CUTOFF" envDefault:"0.02"`
}

// Client configures the command-line client and its bill session.
type Client struct {
	DataDir string `env:"TABSPLIT_DATA_DIR" envDefault:"./data"`

	MinIdle      time.Duration `env:"TABSPLIT_MIN_IDLE" envDefault:"15m"`
	MaxIdle      time.Duration `env:"TABSPLIT_MAX_IDLE" envDefault:"3h"`
	IdleCheck    time.Duration `env:"TABSPLIT_IDLE_CHECK" envDefault:"10m"`
	SaveInterval time.Duration `env:"TABSPLIT_SAVE_INTERVAL" envDefault:"1m"`

	RetryBackoff  time.Duration `env:"TABSPLIT_RETRY_BACKOFF" envDefault:"500ms"`
	RetryAttempts uint          `env:"TABSPLIT_RETRY_ATTEMPTS" envDefault:"5"`

	FairnessCutoff decimal.Decimal `env:"TABSPLIT_FAIRNESS_CUTOFF" envDefault:"0.02"`

	RemoteURL      string `env:"TABSPLIT_REMOTE_URL"`
	RemoteEmail    string `env:"TABSPLIT_REMOTE_EMAIL"`
	RemotePassword string `env:"TABSPLIT_REMOTE_PASSWORD"`
}

// LoadServer parses the server settings and validates them.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadClient parses the client settings and validates them.
func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return Client{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unusable server settings.
func (c Server) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("TABSPLIT_PORT %d out of range", c.Port))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("TABSPLIT_JWT_SECRET must be at least 16 characters"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TABSPLIT_TOKEN_TTL must be positive"))
	}
	if c.FairnessCutoff.IsNegative() {
		errs = append(errs, errors.New("TABSPLIT_FAIRNESS_CUTOFF must not be negative"))
	}
	return errors.Join(errs...)
}

// Validate rejects inconsistent client settings.
func (c Client) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("TABSPLIT_DATA_DIR is required"))
	}
	if c.MinIdle < 0 || c.MaxIdle <= 0 {
		errs = append(errs, errors.New("idle thresholds must be positive"))
	}
	if c.MinIdle > c.MaxIdle {
		errs = append(errs, fmt.Errorf("TABSPLIT_MIN_IDLE %s exceeds TABSPLIT_MAX_IDLE %s", c.MinIdle, c.MaxIdle))
	}
	if c.IdleCheck <= 0 || c.SaveInterval <= 0 {
		errs = append(errs, errors.New("TABSPLIT_IDLE_CHECK and TABSPLIT_SAVE_INTERVAL must be positive"))
	}
	if c.RetryAttempts == 0 {
		errs = append(errs, errors.New("TABSPLIT_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.FairnessCutoff.IsNegative() {
		errs = append(errs, errors.New("TABSPLIT_FAIRNESS_CUTOFF must not be negative"))
	}
	if c.RemoteURL != "" && (c.RemoteEmail == "" || c.RemotePassword == "") {
		errs = append(errs, errors.New("TABSPLIT_REMOTE_URL needs TABSPLIT_REMOTE_EMAIL and TABSPLIT_REMOTE_PASSWORD"))
	}
	return errors.Join(errs...)
}

// RemoteEnabled reports whether a backup server is configured.
func (c Client) RemoteEnabled() bool {
	return c.RemoteURL != ""
}
