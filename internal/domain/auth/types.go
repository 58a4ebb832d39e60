// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
	RoleSubscriber    Role = "subscriber"
)

// DefaultRole is assigned to auto-provisioned accounts when no role is configured.
const DefaultRole = RoleSubscriber

// Attribute names delivered by the CAS server for an authenticated principal.
const (
	AttrEmail     = "email"
	AttrFirstName = "firstname"
	AttrLastName  = "lastname"
)

// Identity represents the principal asserted by the CAS server once a ticket
// has been validated. It is read-only for the remainder of the request and is
// never persisted beyond the assertion's own session state.
type Identity struct {
	Username   string
	Attributes map[string]string
}

// Attribute returns the named attribute and whether it was present and non-empty.
func (i Identity) Attribute(name string) (string, bool) {
	v, ok := i.Attributes[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Assertion is the server-side record of a verified CAS authentication,
// keyed by an opaque ID carried in the assertion cookie.
type Assertion struct {
	ID         string            `json:"id"`
	Username   string            `json:"username"`
	Attributes map[string]string `json:"attributes,omitempty"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// Identity returns the identity carried by the assertion.
func (a Assertion) Identity() Identity {
	return Identity{Username: a.Username, Attributes: a.Attributes}
}

// Session is the server-side record we persist for a locally signed-in user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"account_id"`
	Login     string    `json:"login"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin returns true if the session carries the administrator role.
func (s Session) IsAdmin() bool { return s.Role == RoleAdministrator }
