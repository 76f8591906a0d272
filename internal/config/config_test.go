package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.JWTExpirationDur != 4*time.Hour {
			t.Errorf("expected 4h token expiry, got %v", cfg.JWTExpirationDur)
		}
		if cfg.MLTimeout != 10*time.Second {
			t.Errorf("expected 10s ML timeout, got %v", cfg.MLTimeout)
		}
		if cfg.DBMaxOpenConns != 20 {
			t.Errorf("expected 20 max open conns, got %d", cfg.DBMaxOpenConns)
		}
		if cfg.CategorizeBatchDelay != time.Second {
			t.Errorf("expected 1s batch delay, got %v", cfg.CategorizeBatchDelay)
		}
		if cfg.IsProduction() {
			t.Error("default env should not be production")
		}
	})

	t.Run("missing_jwt_secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		if _, err := Load(); err == nil {
			t.Fatal("expected error when JWT_SECRET is unset")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("ML_TIMEOUT", "2s")
		t.Setenv("DB_MAX_OPEN_CONNS", "7")
		t.Setenv("ENV", "production")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MLTimeout != 2*time.Second {
			t.Errorf("expected 2s, got %v", cfg.MLTimeout)
		}
		if cfg.DBMaxOpenConns != 7 {
			t.Errorf("expected 7, got %d", cfg.DBMaxOpenConns)
		}
		if !cfg.IsProduction() {
			t.Error("expected production")
		}
	})

	t.Run("invalid_duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("JWT_EXPIRES_IN", "four hours")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for invalid JWT_EXPIRES_IN")
		}
	})

	t.Run("invalid_pool_size", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("DB_MAX_IDLE_CONNS", "0")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for non-positive DB_MAX_IDLE_CONNS")
		}
	})
}
