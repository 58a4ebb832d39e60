// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.
package ports

import (
	"context"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
)

// CASClient speaks the CAS protocol against a configured server. The login
// and logout flows are redirect-based: issuing the login URL ends the current
// request, and the server calls back with a service ticket on the next one.
type CASClient interface {
	// LoginURL returns the CAS login entry point with the given service
	// (callback) URL attached.
	LoginURL(service string) string

	// LogoutURL returns the CAS logout entry point, redirecting to the given
	// URL afterwards when non-empty.
	LogoutURL(redirect string) string

	// ValidateTicket verifies a service ticket and returns the asserted
	// identity.
	ValidateTicket(ctx context.Context, ticket, service string) (domainauth.Identity, error)
}

// SessionStore persists and retrieves local user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// AssertionStore persists verified CAS assertions between the validation
// callback and subsequent requests.
type AssertionStore interface {
	Save(ctx context.Context, a domainauth.Assertion) error
	Get(ctx context.Context, id string) (domainauth.Assertion, error)
	Delete(ctx context.Context, id string) error
}

// AccountStore is the local account collaborator.
type AccountStore interface {
	// FindByLogin looks up an account whose login name equals login exactly
	// (case-sensitive). Returns a not_found error when absent.
	FindByLogin(ctx context.Context, login string) (*model.Account, error)
	Create(ctx context.Context, acct *model.Account) (int64, error)
	Update(ctx context.Context, acct *model.Account) error
}

// NewAuthenticationAuthorizer is the extensible accept-or-reject decision
// point run against every fresh CAS authentication. The default accepts.
type NewAuthenticationAuthorizer interface {
	Authorize(ctx context.Context, username string, attributes map[string]string) bool
}

// LoginNotifier observes successful identity-bridge sign-ins so other
// subsystems can react. isNew reports whether the account was just created.
type LoginNotifier interface {
	UserLoggedIn(ctx context.Context, acct *model.Account, isNew bool)
}
