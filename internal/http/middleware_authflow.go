package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
)

// Query parameters driving the authentication flows. Any URL on the site can
// carry them; the flow middleware strips them before the page renders.
const (
	LoginRequestedParam  = "login_requested"
	LogoutRequestedParam = "logout_requested"
	RedirectToParam      = "redirect_to"
	ticketParam          = "ticket"
)

// CASClientFactory builds a CAS client from the current settings. It returns
// a config_incomplete error when the server coordinates are not configured;
// the flows then silently no-op.
type CASClientFactory func(policy.Settings) (ports.CASClient, error)

// FlowOptions groups dependencies for the authentication-flow middleware.
type FlowOptions struct {
	Settings        ports.SettingsStore
	Sessions        *service.SessionService
	Flow            *service.AuthFlow
	Bridge          *service.IdentityBridge
	CAS             CASClientFactory
	BaseURL         string
	AdminPathPrefix string
	ErrorQueryParam string
	LoginPath       string
	CookieDomain    string
	CookieSecure    bool
	Logger          *slog.Logger
}

// FlowMiddleware implements the request-scoped authentication machinery: it
// resolves the session and external identity into the request context,
// handles the login/logout intents and the CAS ticket callback, and settles
// in-flight authentication attempts.
type FlowMiddleware struct {
	settings  ports.SettingsStore
	sessions  *service.SessionService
	flow      *service.AuthFlow
	bridge    *service.IdentityBridge
	cas       CASClientFactory
	baseURL   string
	adminPath string
	errParam  string
	loginPath string
	cookies   cookieWriter
	logger    *slog.Logger
}

// NewFlowMiddleware constructs the authentication-flow middleware.
func NewFlowMiddleware(opts FlowOptions) *FlowMiddleware {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	errParam := opts.ErrorQueryParam
	if errParam == "" {
		errParam = "login-error"
	}
	return &FlowMiddleware{
		settings:  opts.Settings,
		sessions:  opts.Sessions,
		flow:      opts.Flow,
		bridge:    opts.Bridge,
		cas:       opts.CAS,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		adminPath: opts.AdminPathPrefix,
		errParam:  errParam,
		loginPath: loginPath,
		cookies:   cookieWriter{Domain: opts.CookieDomain, Secure: opts.CookieSecure},
		logger:    logger,
	}
}

// Handler wraps next with the authentication flows.
func (m *FlowMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Resolve the local session first; admin guards depend on it even
		// when the flows below are skipped.
		if id := cookieValue(r, sessionCookieName); id != "" {
			if sess, err := m.sessions.Get(ctx, id); err == nil {
				ctx = SetSessionInContext(ctx, &sess)
			} else if apperrors.IsNotFound(err) {
				m.cookies.clear(w, r, sessionCookieName)
			}
		}

		var identity *domainauth.Identity
		if id := cookieValue(r, assertionCookieName); id != "" {
			if a, err := m.sessions.Assertion(ctx, id); err == nil {
				ident := a.Identity()
				identity = &ident
				ctx = SetIdentityInContext(ctx, identity)
			} else if apperrors.IsNotFound(err) {
				m.cookies.clear(w, r, assertionCookieName)
			}
		}
		r = r.WithContext(ctx)

		// The administration area never participates in the flows.
		if m.adminPath != "" && strings.HasPrefix(r.URL.Path, m.adminPath) {
			next.ServeHTTP(w, r)
			return
		}

		settings, err := m.settings.Load(ctx)
		if err != nil {
			m.logger.Error("settings load failed", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		cas, casErr := m.cas(settings)
		if casErr != nil && !apperrors.IsConfigIncomplete(casErr) {
			m.logger.Error("cas client unavailable", slog.String("error", casErr.Error()))
		}

		q := r.URL.Query()

		if ticket := q.Get(ticketParam); ticket != "" && cas != nil {
			m.handleTicket(w, r, cas, ticket)
			return
		}

		if _, ok := q[LoginRequestedParam]; ok {
			m.handleLoginIntent(w, r, cas, identity, settings)
			return
		}

		if _, ok := q[LogoutRequestedParam]; ok {
			m.handleLogoutIntent(w, r, cas, identity)
			return
		}

		if marker := cookieValue(r, service.MarkerCookieName); marker != "" {
			sess, done := m.settle(w, r, cas, settleParams{marker: marker, identity: identity, settings: settings})
			if done {
				return
			}
			if sess != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), sess))
			}
		}

		next.ServeHTTP(w, r)
	})
}

// handleTicket validates a CAS service ticket and records the assertion. The
// marker cookie stays put: settlement runs on the redirected request.
func (m *FlowMiddleware) handleTicket(w http.ResponseWriter, r *http.Request, cas ports.CASClient, ticket string) {
	serviceURL := m.absoluteURL(r, ticketParam)
	stripped := m.relativeURL(r, ticketParam)

	identity, err := cas.ValidateTicket(r.Context(), ticket, serviceURL)
	if err != nil {
		m.logger.Warn("ticket validation failed", slog.String("error", err.Error()))
		http.Redirect(w, r, stripped, http.StatusFound)
		return
	}
	a, err := m.sessions.RecordAssertion(r.Context(), identity)
	if err != nil {
		m.logger.Error("assertion store failed", slog.String("error", err.Error()))
		http.Redirect(w, r, stripped, http.StatusFound)
		return
	}
	m.cookies.setAssertion(w, r, a)
	http.Redirect(w, r, stripped, http.StatusFound)
}

// handleLoginIntent processes the login_requested query parameter. A fresh
// requester is sent through the external login with the attempt marker set;
// an already-authenticated requester is bridged directly.
func (m *FlowMiddleware) handleLoginIntent(w http.ResponseWriter, r *http.Request, cas ports.CASClient, identity *domainauth.Identity, settings policy.Settings) {
	stripped := m.relativeURL(r, LoginRequestedParam, RedirectToParam)
	if cas == nil {
		// Flows are disabled until the server coordinates are configured.
		http.Redirect(w, r, stripped, http.StatusFound)
		return
	}

	if identity != nil && settings.IsSingleSignOn() {
		target := m.postLoginTarget(r, stripped)
		bind, err := m.bridge.Bind(r.Context(), *identity, settings)
		if err != nil {
			m.logger.Warn("identity bridge failed", slog.String("error", err.Error()))
			http.Redirect(w, r, withParam(target, m.errParam, "1"), http.StatusFound)
			return
		}
		if bind.SignedIn {
			m.cookies.setSession(w, r, bind.Session)
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	m.cookies.setMarker(w, r, time.Now())
	http.Redirect(w, r, cas.LoginURL(m.absoluteURL(r, LoginRequestedParam)), http.StatusFound)
}

// handleLogoutIntent processes the logout_requested query parameter. The
// local session and the stored assertion are always discarded; when an
// external authentication exists the logout cascades through the external
// endpoint so the single sign-on session ends too.
func (m *FlowMiddleware) handleLogoutIntent(w http.ResponseWriter, r *http.Request, cas ports.CASClient, identity *domainauth.Identity) {
	ctx := r.Context()
	if sid := cookieValue(r, sessionCookieName); sid != "" {
		if err := m.sessions.Logout(ctx, sid); err != nil {
			m.logger.Warn("logout failed", slog.String("error", err.Error()))
		}
		m.cookies.clear(w, r, sessionCookieName)
	}
	if aid := cookieValue(r, assertionCookieName); aid != "" {
		if err := m.sessions.DropAssertion(ctx, aid); err != nil {
			m.logger.Warn("assertion drop failed", slog.String("error", err.Error()))
		}
		m.cookies.clear(w, r, assertionCookieName)
	}

	target := safeRedirectPath(r.URL.Query().Get(RedirectToParam))
	if target == "/" {
		target = m.relativeURL(r, LogoutRequestedParam, RedirectToParam)
	}
	if cas != nil && identity != nil {
		http.Redirect(w, r, cas.LogoutURL(m.absolute(target)), http.StatusFound)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type settleParams struct {
	marker   string
	identity *domainauth.Identity
	settings policy.Settings
}

// settle runs the settlement state machine for a finished attempt. The marker
// cookie is cleared before anything else: each attempt settles exactly once.
// Returns the session established during settlement (if any) and whether a
// redirect was written and the request is finished.
func (m *FlowMiddleware) settle(w http.ResponseWriter, r *http.Request, cas ports.CASClient, p settleParams) (*domainauth.Session, bool) {
	m.cookies.clear(w, r, service.MarkerCookieName)

	res := m.flow.Settle(r.Context(), service.SettleInput{
		MarkerValue: p.marker,
		Identity:    p.identity,
		Settings:    p.settings,
		Now:         time.Now(),
	})

	switch res.Outcome {
	case service.OutcomeSignedIn:
		m.cookies.setSession(w, r, res.Bind.Session)
		if target := m.postLoginTarget(r, ""); target != "" {
			http.Redirect(w, r, target, http.StatusFound)
			return nil, true
		}
		sess := res.Bind.Session
		return &sess, false

	case service.OutcomeForceLogout:
		if aid := cookieValue(r, assertionCookieName); aid != "" {
			if err := m.sessions.DropAssertion(r.Context(), aid); err != nil {
				m.logger.Warn("assertion drop failed", slog.String("error", err.Error()))
			}
			m.cookies.clear(w, r, assertionCookieName)
		}
		target := m.relativeURL(r, RedirectToParam)
		if res.Failed {
			target = withParam(target, m.errParam, "1")
		}
		if res.Reason != nil {
			m.logger.Warn("authentication attempt rejected", slog.String("reason", res.Reason.Error()))
		}
		if cas != nil {
			http.Redirect(w, r, cas.LogoutURL(m.absolute(target)), http.StatusFound)
		} else {
			http.Redirect(w, r, target, http.StatusFound)
		}
		return nil, true

	case service.OutcomeExternalOnly:
		if res.Failed {
			http.Redirect(w, r, withParam(m.relativeURL(r, RedirectToParam), m.errParam, "1"), http.StatusFound)
			return nil, true
		}
		if target := m.postLoginTarget(r, ""); target != "" {
			http.Redirect(w, r, target, http.StatusFound)
			return nil, true
		}
		return nil, false

	default:
		return nil, false
	}
}

// postLoginTarget picks where a freshly signed-in requester lands: the
// redirect_to parameter when present, otherwise fallback. A sign-in landing
// on the login page itself goes to the admin area instead. Empty when no
// redirect is needed.
func (m *FlowMiddleware) postLoginTarget(r *http.Request, fallback string) string {
	target := fallback
	if requested := r.URL.Query().Get(RedirectToParam); requested != "" {
		target = safeRedirectPath(requested)
	}
	if target == m.loginPath || (target == "" && r.URL.Path == m.loginPath) {
		return m.adminTarget()
	}
	return target
}

func (m *FlowMiddleware) adminTarget() string {
	if m.adminPath != "" {
		return m.adminPath
	}
	return "/"
}

// relativeURL returns the current path and query with the given parameters
// removed.
func (m *FlowMiddleware) relativeURL(r *http.Request, drop ...string) string {
	u := *r.URL
	q := u.Query()
	for _, key := range drop {
		q.Del(key)
	}
	u.RawQuery = q.Encode()
	u.Scheme, u.Host = "", ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// absoluteURL returns the current URL, absolute against the configured base,
// with the given parameters removed. Used as the CAS service URL so the
// callback lands exactly where the requester was.
func (m *FlowMiddleware) absoluteURL(r *http.Request, drop ...string) string {
	return m.absolute(m.relativeURL(r, drop...))
}

func (m *FlowMiddleware) absolute(relative string) string {
	return m.baseURL + relative
}

// withParam appends a query parameter to a relative URL.
func withParam(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// safeRedirectPath ensures the provided redirect is a same-origin relative
// path starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
