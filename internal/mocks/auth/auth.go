// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CASClient                   = (*StubCASClient)(nil)
	_ ports.SessionStore                = (*MemorySessionStore)(nil)
	_ ports.AssertionStore              = (*MemoryAssertionStore)(nil)
	_ ports.AccountStore                = (*MemoryAccountStore)(nil)
	_ ports.SettingsStore               = (*MemorySettingsStore)(nil)
	_ ports.NewAuthenticationAuthorizer = (*StaticAuthorizer)(nil)
	_ ports.LoginNotifier               = (*RecordingNotifier)(nil)
)

// StubCASClient simulates a CAS server with deterministic URLs and a
// canned validation result.
type StubCASClient struct {
	ValidateFunc func(ctx context.Context, ticket, service string) (domainauth.Identity, error)

	Base     string
	Identity domainauth.Identity
}

// NewStubCASClient creates a StubCASClient with sensible defaults.
func NewStubCASClient() *StubCASClient {
	return &StubCASClient{
		Base: "https://cas.example.edu/cas",
		Identity: domainauth.Identity{
			Username: "jdoe",
			Attributes: map[string]string{
				domainauth.AttrEmail:     "jdoe@example.edu",
				domainauth.AttrFirstName: "Jane",
				domainauth.AttrLastName:  "Doe",
			},
		},
	}
}

func (c *StubCASClient) LoginURL(service string) string {
	return c.Base + "/login?service=" + service
}

func (c *StubCASClient) LogoutURL(redirect string) string {
	if redirect == "" {
		return c.Base + "/logout"
	}
	return c.Base + "/logout?service=" + redirect
}

func (c *StubCASClient) ValidateTicket(ctx context.Context, ticket, service string) (domainauth.Identity, error) {
	if c.ValidateFunc != nil {
		return c.ValidateFunc(ctx, ticket, service)
	}
	return c.Identity, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MemoryAssertionStore is an in-memory assertion store for unit tests.
type MemoryAssertionStore struct {
	mu         sync.Mutex
	assertions map[string]domainauth.Assertion
}

// NewMemoryAssertionStore creates a new in-memory assertion store.
func NewMemoryAssertionStore() *MemoryAssertionStore {
	return &MemoryAssertionStore{assertions: make(map[string]domainauth.Assertion)}
}

func (m *MemoryAssertionStore) Save(_ context.Context, a domainauth.Assertion) error {
	if a.ID == "" {
		return errors.New("assertion ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assertions[a.ID] = a
	return nil
}

func (m *MemoryAssertionStore) Get(_ context.Context, id string) (domainauth.Assertion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assertions[id]
	if id == "" || !ok {
		return domainauth.Assertion{}, apperrors.NotFound("assertion not found")
	}
	return a, nil
}

func (m *MemoryAssertionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assertions, id)
	return nil
}

// MemoryAccountStore is an in-memory account store for unit tests.
type MemoryAccountStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.Account

	// CreateErr, when set, is returned by Create.
	CreateErr error
	// UpdateErr, when set, is returned by Update.
	UpdateErr error
}

// NewMemoryAccountStore creates a new in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{byID: make(map[int64]*model.Account)}
}

// Seed inserts an account directly, assigning an ID.
func (m *MemoryAccountStore) Seed(acct model.Account) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	acct.ID = m.nextID
	m.byID[acct.ID] = &acct
	return &acct
}

func (m *MemoryAccountStore) FindByLogin(_ context.Context, login string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acct := range m.byID {
		if acct.Login == login {
			copied := *acct
			return &copied, nil
		}
	}
	return nil, apperrors.NotFoundf("account %q not found", login)
}

func (m *MemoryAccountStore) Create(_ context.Context, acct *model.Account) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Login == acct.Login {
			return 0, apperrors.Conflict("account login already exists")
		}
	}
	m.nextID++
	acct.ID = m.nextID
	copied := *acct
	m.byID[acct.ID] = &copied
	return acct.ID, nil
}

func (m *MemoryAccountStore) Update(_ context.Context, acct *model.Account) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[acct.ID]; !ok {
		return apperrors.NotFoundf("account %d not found", acct.ID)
	}
	copied := *acct
	m.byID[acct.ID] = &copied
	return nil
}

// Get returns the stored account by ID, or nil.
func (m *MemoryAccountStore) Get(id int64) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acct, ok := m.byID[id]; ok {
		copied := *acct
		return &copied
	}
	return nil
}

// MemorySettingsStore serves a fixed settings map.
type MemorySettingsStore struct {
	mu       sync.Mutex
	Values   policy.Settings
	LoadErr  error
	SaveErr  error
	LastSave policy.Settings
}

// NewMemorySettingsStore creates a settings store seeded with the given values.
func NewMemorySettingsStore(values policy.Settings) *MemorySettingsStore {
	if values == nil {
		values = policy.Settings{}
	}
	return &MemorySettingsStore{Values: values}
}

func (m *MemorySettingsStore) Load(_ context.Context) (policy.Settings, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Values.WithDefaults(), nil
}

func (m *MemorySettingsStore) Save(_ context.Context, s policy.Settings) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Sanitize()
	m.Values = s
	m.LastSave = s
	return nil
}

// StaticAuthorizer accepts or rejects every authentication.
type StaticAuthorizer struct {
	Accept bool
	// AuthorizeFunc overrides the static decision when set.
	AuthorizeFunc func(ctx context.Context, username string, attributes map[string]string) bool
}

func (a *StaticAuthorizer) Authorize(ctx context.Context, username string, attributes map[string]string) bool {
	if a.AuthorizeFunc != nil {
		return a.AuthorizeFunc(ctx, username, attributes)
	}
	return a.Accept
}

// RecordingNotifier records sign-in notifications.
type RecordingNotifier struct {
	mu     sync.Mutex
	Events []NotifiedLogin
}

// NotifiedLogin is one recorded sign-in.
type NotifiedLogin struct {
	Login string
	IsNew bool
}

func (n *RecordingNotifier) UserLoggedIn(_ context.Context, acct *model.Account, isNew bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, NotifiedLogin{Login: acct.Login, IsNew: isNew})
}
