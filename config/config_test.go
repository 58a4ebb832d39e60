package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		t.Fatalf("env.Parse() error = %v", err)
	}
	cfg.Sanitize()

	if cfg.IsDev {
		t.Error("IsDev should default to false")
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want 12h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.ErrorQueryParam != "login-error" {
		t.Errorf("ErrorQueryParam = %q, want login-error", cfg.Auth.ErrorQueryParam)
	}
	if cfg.Auth.AdminPathPrefix != "/admin" {
		t.Errorf("AdminPathPrefix = %q, want /admin", cfg.Auth.AdminPathPrefix)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
}

func TestAppConfig_EnvOverrides(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"DEV":                    "true",
		"AUTH_SESSION_TTL":       "30m",
		"AUTH_ERROR_QUERY_PARAM": "auth-failed",
		"DB_HOST":                "db.internal",
		"REDIS_URI":              "redis.internal:6379",
		"APP_BASE_URL":           "https://www.ua.edu",
	}})
	if err != nil {
		t.Fatalf("env.Parse() error = %v", err)
	}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Error("IsDev should be true")
	}
	if cfg.Auth.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.ErrorQueryParam != "auth-failed" {
		t.Errorf("ErrorQueryParam = %q", cfg.Auth.ErrorQueryParam)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q", cfg.Postgres.Host)
	}
	if cfg.Redis.URI != "redis.internal:6379" {
		t.Errorf("Redis.URI = %q", cfg.Redis.URI)
	}
	if cfg.HTTP.BaseURL != "https://www.ua.edu" {
		t.Errorf("HTTP.BaseURL = %q", cfg.HTTP.BaseURL)
	}
}

func TestAuthConfig_SanitizeGuardrails(t *testing.T) {
	a := AuthConfig{SessionTTL: -time.Minute, AssertionTTL: 0}
	a.Sanitize()

	if a.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want 12h", a.SessionTTL)
	}
	if a.AssertionTTL != 12*time.Hour {
		t.Errorf("AssertionTTL = %v, want 12h", a.AssertionTTL)
	}
	if a.ErrorQueryParam != "login-error" || a.AdminPathPrefix != "/admin" {
		t.Errorf("guardrails not applied: %+v", a)
	}
}
