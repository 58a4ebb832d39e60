// Package service contains the application's orchestration layer: session
// management, the identity bridge, the authentication-settlement state
// machine, and the access gate. Services depend only on ports and domain
// types.
package service

import (
	"context"
	"fmt"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/google/uuid"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Sessions     ports.SessionStore
	Assertions   ports.AssertionStore
	SessionTTL   time.Duration
	AssertionTTL time.Duration
}

// SessionService manages local sessions and server-side CAS assertions.
type SessionService struct {
	sessions     ports.SessionStore
	assertions   ports.AssertionStore
	sessionTTL   time.Duration
	assertionTTL time.Duration
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	return &SessionService{
		sessions:     opts.Sessions,
		assertions:   opts.Assertions,
		sessionTTL:   opts.SessionTTL,
		assertionTTL: opts.AssertionTTL,
	}
}

// Establish creates and persists a local session for the given account.
func (s *SessionService) Establish(ctx context.Context, acct *model.Account) (domainauth.Session, error) {
	sess := domainauth.Session{
		ID:        uuid.New().String(),
		AccountID: acct.ID,
		Login:     acct.Login,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Email:     acct.Email,
		Role:      domainauth.Role(acct.Role),
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Get retrieves a live session by ID. Returns a not_found error when the
// session is absent or expired.
func (s *SessionService) Get(ctx context.Context, sessionID string) (domainauth.Session, error) {
	if sessionID == "" {
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domainauth.Session{}, err
	}
	return sess, nil
}

// Logout removes a session. A missing ID is a no-op.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RecordAssertion persists a freshly validated CAS identity and returns the
// stored assertion, keyed by an opaque ID for the assertion cookie.
func (s *SessionService) RecordAssertion(ctx context.Context, identity domainauth.Identity) (domainauth.Assertion, error) {
	a := domainauth.Assertion{
		ID:         uuid.New().String(),
		Username:   identity.Username,
		Attributes: identity.Attributes,
		ExpiresAt:  time.Now().Add(s.assertionTTL),
	}
	if err := s.assertions.Save(ctx, a); err != nil {
		return domainauth.Assertion{}, fmt.Errorf("save assertion: %w", err)
	}
	return a, nil
}

// Assertion retrieves a live CAS assertion by ID. Returns a not_found error
// when absent or expired.
func (s *SessionService) Assertion(ctx context.Context, assertionID string) (domainauth.Assertion, error) {
	if assertionID == "" {
		return domainauth.Assertion{}, apperrors.NotFound("assertion not found")
	}
	return s.assertions.Get(ctx, assertionID)
}

// DropAssertion removes a CAS assertion. A missing ID is a no-op.
func (s *SessionService) DropAssertion(ctx context.Context, assertionID string) error {
	if assertionID == "" {
		return nil
	}
	if err := s.assertions.Delete(ctx, assertionID); err != nil {
		return fmt.Errorf("delete assertion: %w", err)
	}
	return nil
}
