package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.UpstreamBaseURL != DefaultUpstreamBaseURL {
		t.Errorf("expected default upstream base URL, got %s", cfg.UpstreamBaseURL)
	}
	if cfg.PaymentMethod != "cash" {
		t.Errorf("expected default payment method cash, got %s", cfg.PaymentMethod)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "UPSTREAM_BASE_URL", "http://localhost:7000")
	setEnv(t, "SEARCH_DEBOUNCE_MS", "150")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.UpstreamBaseURL != "http://localhost:7000" {
		t.Errorf("expected overridden upstream base URL, got %s", cfg.UpstreamBaseURL)
	}
	if cfg.SearchDebounce() != 150*time.Millisecond {
		t.Errorf("expected 150ms debounce, got %v", cfg.SearchDebounce())
	}
}

func TestUpstreamTimeoutFallback(t *testing.T) {
	cfg := &Config{UpstreamTimeoutSeconds: 0}
	if cfg.UpstreamTimeout() != 15*time.Second {
		t.Errorf("expected 15s fallback, got %v", cfg.UpstreamTimeout())
	}
	cfg.UpstreamTimeoutSeconds = 3
	if cfg.UpstreamTimeout() != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.UpstreamTimeout())
	}
}

func TestValidateRequiresAuthOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", UpstreamBaseURL: "https://api.example.com"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when production has no auth configuration")
	}
	cfg.AuthSigningKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateUpstreamScheme(t *testing.T) {
	cfg := &Config{Env: "development", UpstreamBaseURL: "ftp://nope"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-http upstream URL")
	}
}
