package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
)

// MarkerCookieName is the cookie marking an in-flight authentication attempt.
// Its value is the epoch second at which the attempt started.
const MarkerCookieName = "ua_mybama_cas_auth_attempting_authentication"

// MarkerTTL bounds how long an authentication attempt may take before the
// marker is considered stale and the attempt abandoned.
const MarkerTTL = 5 * time.Minute

// SettleOutcome is the terminal state of settling an authentication attempt.
type SettleOutcome int

const (
	// OutcomeNone means no attempt was in flight, or the attempt produced
	// nothing to act on.
	OutcomeNone SettleOutcome = iota
	// OutcomeSignedIn means the external identity was bridged into a local
	// session; the caller must issue the session cookie.
	OutcomeSignedIn
	// OutcomeExternalOnly means the external authentication stands but no
	// local session was established.
	OutcomeExternalOnly
	// OutcomeForceLogout means the caller must discard the external
	// authentication and redirect through the external logout endpoint.
	OutcomeForceLogout
)

// SettleInput carries the request-scoped facts the settlement needs. The
// caller must have already cleared the marker cookie: every attempt is
// settled exactly once regardless of outcome.
type SettleInput struct {
	// MarkerValue is the raw marker cookie value, empty when absent.
	MarkerValue string
	// Identity is the verified external identity, nil when the requester is
	// not externally authenticated.
	Identity *domainauth.Identity
	Settings policy.Settings
	Now      time.Time
}

// SettleResult is the decision produced by Settle plus the bind outcome when
// a local session was attempted.
type SettleResult struct {
	Outcome SettleOutcome
	// Failed signals that the attempt ended in a policy rejection or an
	// internal failure the user should be told about.
	Failed bool
	Bind   *BindResult
	Reason error
}

// AuthFlowOptions groups dependencies for AuthFlow.
type AuthFlowOptions struct {
	Authorizer ports.NewAuthenticationAuthorizer
	Bridge     *IdentityBridge
	Logger     *slog.Logger
}

// AuthFlow settles completed authentication attempts. It runs once per
// request carrying the attempt marker, decides the fate of the fresh external
// authentication, and hands an action back to the transport layer.
type AuthFlow struct {
	authorizer ports.NewAuthenticationAuthorizer
	bridge     *IdentityBridge
	logger     *slog.Logger
}

// NewAuthFlow constructs a new AuthFlow.
func NewAuthFlow(opts AuthFlowOptions) *AuthFlow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthFlow{
		authorizer: opts.Authorizer,
		bridge:     opts.Bridge,
		logger:     logger,
	}
}

// Settle evaluates a finished authentication attempt. The ordering is fixed:
// staleness first (a stale attempt is abandoned with no policy checks), then
// the pluggable authorizer, then the external-username policy lists, then the
// identity bridge when single sign-on is enabled.
func (f *AuthFlow) Settle(ctx context.Context, in SettleInput) SettleResult {
	if in.MarkerValue == "" {
		return SettleResult{Outcome: OutcomeNone}
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	started, err := strconv.ParseInt(in.MarkerValue, 10, 64)
	if err != nil || now.Sub(time.Unix(started, 0)) > MarkerTTL {
		return SettleResult{
			Outcome: OutcomeForceLogout,
			Reason:  apperrors.StaleAttempt("authentication attempt expired"),
		}
	}

	if in.Identity == nil {
		// The attempt never completed on the external side. Nothing to act
		// on; the requester simply is not authenticated.
		return SettleResult{Outcome: OutcomeNone, Failed: true}
	}
	identity := *in.Identity

	if f.authorizer != nil && !f.authorizer.Authorize(ctx, identity.Username, identity.Attributes) {
		return SettleResult{
			Outcome: OutcomeForceLogout,
			Failed:  true,
			Reason:  apperrors.Deniedf("authentication for %q was rejected", identity.Username),
		}
	}

	whitelist, blacklist := in.Settings.Lists(policy.AxisMyBama)
	if !policy.Allowed(identity.Username, whitelist, blacklist) {
		return SettleResult{
			Outcome: OutcomeForceLogout,
			Failed:  true,
			Reason:  apperrors.Deniedf("username %q is not permitted to authenticate", identity.Username),
		}
	}

	if !in.Settings.IsSingleSignOn() {
		return SettleResult{Outcome: OutcomeExternalOnly}
	}

	bind, err := f.bridge.Bind(ctx, identity, in.Settings)
	switch {
	case err == nil && bind.SignedIn:
		return SettleResult{Outcome: OutcomeSignedIn, Bind: bind}
	case err == nil:
		// Account missing and provisioning disabled.
		return SettleResult{Outcome: OutcomeExternalOnly, Bind: bind}
	case apperrors.IsDenied(err):
		// Rejected on the local axis only. The external authentication still
		// stands; only the external-axis lists and the authorizer may end it.
		return SettleResult{Outcome: OutcomeExternalOnly, Failed: true, Reason: err}
	case apperrors.IsCreationFailed(err):
		// The external authentication still stands.
		f.logger.Error("account provisioning failed",
			slog.String("username", identity.Username),
			slog.String("error", err.Error()))
		return SettleResult{Outcome: OutcomeExternalOnly, Failed: true, Reason: err}
	default:
		f.logger.Error("identity bridge failed",
			slog.String("username", identity.Username),
			slog.String("error", err.Error()))
		return SettleResult{Outcome: OutcomeExternalOnly, Failed: true, Reason: err}
	}
}

// NewMarkerValue formats the marker cookie value for an attempt starting now.
func NewMarkerValue(now time.Time) string {
	return strconv.FormatInt(now.Unix(), 10)
}
