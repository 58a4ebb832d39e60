package httpx

import (
	"context"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// identityKey carries the verified external identity for the request.
type identityKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session from context and a boolean indicating presence.
func GetSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// SetIdentityInContext returns a child context carrying the external identity.
// If identity is nil, the original ctx is returned unchanged.
func SetIdentityInContext(ctx context.Context, identity *domainauth.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext returns the external identity from context and a
// boolean indicating presence.
func GetIdentityFromContext(ctx context.Context) (*domainauth.Identity, bool) {
	if identity, ok := ctx.Value(identityKey{}).(*domainauth.Identity); ok && identity != nil {
		return identity, true
	}
	return nil, false
}

// IsExternallyAuthenticated reports whether the request carries a verified
// external identity.
func IsExternallyAuthenticated(ctx context.Context) bool {
	_, ok := GetIdentityFromContext(ctx)
	return ok
}

// IsLocallyAuthenticated reports whether the request carries a live local session.
func IsLocallyAuthenticated(ctx context.Context) bool {
	_, ok := GetSessionFromContext(ctx)
	return ok
}
