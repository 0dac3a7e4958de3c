package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://helpme.example.edu, http://localhost:3000")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", StoragePostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/helpme")
	t.Setenv("AUTH_MODE", AuthJWT)
	t.Setenv("JWT_SECRET", "shh")
	t.Setenv("SESSION_COOKIE_EXPIRATION", "48h")
	t.Setenv("CLEAN_SCHEDULE", "")
	t.Setenv("IS_HTTPS", "true")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "brown.edu,risd.edu")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}

	expectedOrigins := []string{"https://helpme.example.edu", "http://localhost:3000"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, expectedOrigins) {
		t.Errorf("Expected origins %v, got %v", expectedOrigins, cfg.AllowedOrigins)
	}
	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.SessionCookieExpiration != 48*time.Hour {
		t.Errorf("Expected 48h cookie expiration, got %v", cfg.SessionCookieExpiration)
	}
	if !reflect.DeepEqual(cfg.AllowedEmailDomains, []string{"brown.edu", "risd.edu"}) {
		t.Errorf("Expected email domains [brown.edu risd.edu], got %v", cfg.AllowedEmailDomains)
	}
	if !cfg.IsHTTPS {
		t.Errorf("Expected IsHTTPS to be set")
	}
	if cfg.CleanSchedule != DefaultConfig().CleanSchedule {
		t.Errorf("Expected default clean schedule, got %q", cfg.CleanSchedule)
	}
}

func TestValidateRejectsIncompleteBackends(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config with a secret to be valid, got %v", err)
	}

	cfg.StorageBackend = StoragePostgres
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected postgres without DATABASE_URL to be rejected")
	}

	cfg = DefaultConfig()
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected jwt auth without a secret to be rejected")
	}

	cfg = DefaultConfig()
	cfg.AuthMode = AuthFirebase
	cfg.SessionCookieExpiration = 30 * 24 * time.Hour
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected a 30 day cookie expiration to be rejected")
	}
}
