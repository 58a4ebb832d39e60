package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

// generatedPasswordLength is the length of the random password assigned to
// auto-provisioned accounts. The password is never disclosed; accounts are
// expected to sign in through the external identity.
const generatedPasswordLength = 30

// IdentityBridgeOptions groups dependencies for IdentityBridge.
type IdentityBridgeOptions struct {
	Accounts ports.AccountStore
	Sessions *SessionService
	Notifier ports.LoginNotifier
	Logger   *slog.Logger
}

// IdentityBridge maps a verified external identity onto a local account and
// session. It looks up the account by exact username match, optionally
// refreshes profile fields from the identity's attributes, and optionally
// provisions a new account when none exists.
type IdentityBridge struct {
	accounts ports.AccountStore
	sessions *SessionService
	notifier ports.LoginNotifier
	logger   *slog.Logger
}

// NewIdentityBridge constructs a new IdentityBridge.
func NewIdentityBridge(opts IdentityBridgeOptions) *IdentityBridge {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityBridge{
		accounts: opts.Accounts,
		sessions: opts.Sessions,
		notifier: opts.Notifier,
		logger:   logger,
	}
}

// BindResult reports the outcome of bridging an external identity.
type BindResult struct {
	// SignedIn is true when a local session was established.
	SignedIn bool
	// NewlyCreated is true when the local account was provisioned during
	// this bind.
	NewlyCreated bool
	Session      domainauth.Session
	Account      *model.Account
}

// Bind bridges the given identity into a local session under the supplied
// settings. Returns a not_eligible error when single sign-on is disabled or
// the identity is empty, a denied error when the local-login policy lists
// reject the username, and a creation_failed error when provisioning a
// missing account fails. When the account is missing and provisioning is
// disabled, Bind succeeds with SignedIn false: the external authentication
// stands on its own.
func (b *IdentityBridge) Bind(ctx context.Context, identity domainauth.Identity, settings policy.Settings) (*BindResult, error) {
	if !settings.IsSingleSignOn() {
		return nil, apperrors.NotEligible("single sign-on is not enabled")
	}
	if identity.Username == "" {
		return nil, apperrors.NotEligible("identity has no username")
	}

	whitelist, blacklist := settings.Lists(policy.AxisWordPress)
	if !policy.Allowed(identity.Username, whitelist, blacklist) {
		return nil, apperrors.Deniedf("username %q is not permitted to sign in locally", identity.Username)
	}

	provisioned := false
	acct, err := b.accounts.FindByLogin(ctx, identity.Username)
	switch {
	case err == nil:
		if settings.MatchUserData() {
			if updateErr := b.refreshProfile(ctx, acct, identity); updateErr != nil {
				// A stale profile must not block the sign-in.
				b.logger.Warn("profile refresh failed",
					slog.String("login", acct.Login),
					slog.String("error", updateErr.Error()))
			}
		}
	case apperrors.IsNotFound(err):
		if !settings.CreateMatchingProfile() {
			return &BindResult{}, nil
		}
		acct, err = b.provision(ctx, identity, settings)
		if err != nil {
			return nil, err
		}
		provisioned = true
	default:
		return nil, fmt.Errorf("find account: %w", err)
	}

	sess, err := b.sessions.Establish(ctx, acct)
	if err != nil {
		return nil, fmt.Errorf("establish session: %w", err)
	}

	if b.notifier != nil {
		b.notifier.UserLoggedIn(ctx, acct, provisioned)
	}
	return &BindResult{SignedIn: true, NewlyCreated: provisioned, Session: sess, Account: acct}, nil
}

// refreshProfile overwrites local profile fields from the identity's
// attributes. Absent attributes leave the existing values untouched.
func (b *IdentityBridge) refreshProfile(ctx context.Context, acct *model.Account, identity domainauth.Identity) error {
	changed := false
	if v, ok := identity.Attribute(domainauth.AttrEmail); ok && v != acct.Email {
		acct.Email = v
		changed = true
	}
	if v, ok := identity.Attribute(domainauth.AttrFirstName); ok && v != acct.FirstName {
		acct.FirstName = v
		changed = true
	}
	if v, ok := identity.Attribute(domainauth.AttrLastName); ok && v != acct.LastName {
		acct.LastName = v
		changed = true
	}
	if changed {
		if display := displayName(acct.FirstName, acct.LastName); display != "" {
			acct.DisplayName = display
		}
		if err := b.accounts.Update(ctx, acct); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
	}
	return nil
}

// provision creates a local account for an unknown external username. The
// account gets a random password and the configured default role.
func (b *IdentityBridge) provision(ctx context.Context, identity domainauth.Identity, settings policy.Settings) (*model.Account, error) {
	role := string(domainauth.DefaultRole)
	if configured, ok := settings.MatchingProfileRole(); ok {
		role = configured
	}

	hash, err := randomPasswordHash()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCreationFailed, "generate account password")
	}

	acct := &model.Account{
		Login:        identity.Username,
		Role:         role,
		PasswordHash: hash,
	}
	if v, ok := identity.Attribute(domainauth.AttrEmail); ok {
		acct.Email = v
	}
	if v, ok := identity.Attribute(domainauth.AttrFirstName); ok {
		acct.FirstName = v
	}
	if v, ok := identity.Attribute(domainauth.AttrLastName); ok {
		acct.LastName = v
	}
	if display := displayName(acct.FirstName, acct.LastName); display != "" {
		acct.DisplayName = display
	}

	if _, err := b.accounts.Create(ctx, acct); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeCreationFailed, "create account for %q", identity.Username)
	}
	return acct, nil
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// randomPasswordHash generates a random password and returns its bcrypt hash.
// The plaintext is discarded immediately.
func randomPasswordHash() (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"
	buf := make([]byte, generatedPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	hash, err := bcrypt.GenerateFromPassword(buf, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
