package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.ListenAddr != ":8080" {
			t.Fatalf("expected default listen address, got %q", cfg.ListenAddr)
		}
		if cfg.OfficeFile != "office.yaml" {
			t.Fatalf("expected default office file, got %q", cfg.OfficeFile)
		}
		if cfg.WorkingHoursSweepInterval != time.Minute {
			t.Fatalf("expected one-minute hours sweep, got %v", cfg.WorkingHoursSweepInterval)
		}
		if cfg.InviteSweepInterval != 5*time.Second {
			t.Fatalf("expected five-second invite sweep, got %v", cfg.InviteSweepInterval)
		}
		if cfg.OfferTTL != 0 || cfg.AutoRespondDelay != 0 {
			t.Fatalf("expected disabled offer ttl and responder, got %v and %v", cfg.OfferTTL, cfg.AutoRespondDelay)
		}
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("OFFICE_LISTEN_ADDR", ":9999")
		t.Setenv("OFFICE_DEFINITION_FILE", "custom.yaml")
		t.Setenv("OFFICE_HOURS_SWEEP_INTERVAL", "30s")
		t.Setenv("OFFICE_INVITE_SWEEP_INTERVAL", "1s")
		t.Setenv("OFFICE_OFFER_TTL", "45s")
		t.Setenv("OFFICE_AUTO_RESPOND_DELAY", "2s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.ListenAddr != ":9999" || cfg.OfficeFile != "custom.yaml" {
			t.Fatalf("unexpected overrides: %#v", cfg)
		}
		if cfg.WorkingHoursSweepInterval != 30*time.Second || cfg.InviteSweepInterval != time.Second {
			t.Fatalf("unexpected sweep intervals: %#v", cfg)
		}
		if cfg.OfferTTL != 45*time.Second || cfg.AutoRespondDelay != 2*time.Second {
			t.Fatalf("unexpected call settings: %#v", cfg)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Setenv("OFFICE_INVITE_SWEEP_INTERVAL", "-1s")
		if _, err := Load(); err == nil {
			t.Fatal("expected a negative sweep interval to be rejected")
		}
	})
}
