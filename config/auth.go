package config

import "time"

// AuthConfig groups session and authentication-flow configuration. The CAS
// server coordinates themselves live in the policy store, not here: they are
// site settings an administrator edits at runtime.
type AuthConfig struct {
	// SessionTTL is the lifetime of a local session.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"12h"`

	// AssertionTTL is the lifetime of a stored CAS assertion.
	AssertionTTL time.Duration `env:"AUTH_ASSERTION_TTL" envDefault:"12h"`

	// ErrorQueryParam is the query parameter appended to the landing URL when
	// an authentication attempt fails.
	ErrorQueryParam string `env:"AUTH_ERROR_QUERY_PARAM" envDefault:"login-error"`

	// AdminPathPrefix marks the administration area. Authentication flows
	// never fire on admin paths.
	AdminPathPrefix string `env:"AUTH_ADMIN_PATH_PREFIX" envDefault:"/admin"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = 12 * time.Hour
	}
	if a.AssertionTTL <= 0 {
		a.AssertionTTL = 12 * time.Hour
	}
	if a.ErrorQueryParam == "" {
		a.ErrorQueryParam = "login-error"
	}
	if a.AdminPathPrefix == "" {
		a.AdminPathPrefix = "/admin"
	}
}
