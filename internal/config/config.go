// Package config loads the office server's runtime settings from the
// environment and the office definition (policy, rooms, employee
// directory) from a YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration for the office server.
type Config struct {
	ListenAddr string `env:"OFFICE_LISTEN_ADDR" envDefault:":8080"`
	OfficeFile string `env:"OFFICE_DEFINITION_FILE" envDefault:"office.yaml"`

	// WorkingHoursSweepInterval paces the working-hours audit; the invite
	// sweep runs much tighter because visitor sessions are short-lived
	// and must be cut promptly after expiry.
	WorkingHoursSweepInterval time.Duration `env:"OFFICE_HOURS_SWEEP_INTERVAL" envDefault:"1m"`
	InviteSweepInterval       time.Duration `env:"OFFICE_INVITE_SWEEP_INTERVAL" envDefault:"5s"`

	// OfferTTL discards incoming-call offers that ring unanswered for
	// longer than this; zero keeps offers pending indefinitely.
	OfferTTL time.Duration `env:"OFFICE_OFFER_TTL" envDefault:"0"`

	// AutoRespondDelay, when positive, enables the simulated call
	// responder that resolves offers after the delay.
	AutoRespondDelay time.Duration `env:"OFFICE_AUTO_RESPOND_DELAY" envDefault:"0"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.WorkingHoursSweepInterval <= 0 {
		return fmt.Errorf("config: working-hours sweep interval must be positive")
	}
	if c.InviteSweepInterval <= 0 {
		return fmt.Errorf("config: invite sweep interval must be positive")
	}
	if c.OfferTTL < 0 {
		return fmt.Errorf("config: offer TTL must not be negative")
	}
	if c.AutoRespondDelay < 0 {
		return fmt.Errorf("config: auto-respond delay must not be negative")
	}
	return nil
}
