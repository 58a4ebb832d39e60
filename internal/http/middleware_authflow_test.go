package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	mockauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/mocks/auth"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/mocks/policymock"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routerFixture assembles the full router over in-memory stores and a stub
// CAS client, the way bootstrap wires the real thing.
type routerFixture struct {
	handler    http.Handler
	accounts   *mockauth.MemoryAccountStore
	settings   *mockauth.MemorySettingsStore
	sessions   *service.SessionService
	cas        *mockauth.StubCASClient
	casErr     error
	authorizer *mockauth.StaticAuthorizer
	notifier   *mockauth.RecordingNotifier
	meta       *policymock.MemoryMetaStore
	posts      *policymock.MemoryPostStore
}

func newRouterFixture(values policy.Settings) *routerFixture {
	f := &routerFixture{
		accounts:   mockauth.NewMemoryAccountStore(),
		settings:   mockauth.NewMemorySettingsStore(values),
		cas:        mockauth.NewStubCASClient(),
		authorizer: &mockauth.StaticAuthorizer{Accept: true},
		notifier:   &mockauth.RecordingNotifier{},
		meta:       policymock.NewMemoryMetaStore(),
	}
	f.posts = policymock.NewMemoryPostStore(f.meta)
	f.sessions = service.NewSessionService(service.SessionServiceOptions{
		Sessions:     mockauth.NewMemorySessionStore(),
		Assertions:   mockauth.NewMemoryAssertionStore(),
		SessionTTL:   time.Hour,
		AssertionTTL: time.Hour,
	})
	bridge := service.NewIdentityBridge(service.IdentityBridgeOptions{
		Accounts: f.accounts,
		Sessions: f.sessions,
		Notifier: f.notifier,
	})
	f.handler = NewRouter(RouterServices{
		Accounts: service.NewAccountService(service.AccountServiceOptions{Accounts: f.accounts}),
		Sessions: f.sessions,
		Bridge:   bridge,
		Flow:     service.NewAuthFlow(service.AuthFlowOptions{Authorizer: f.authorizer, Bridge: bridge}),
		Gate:     service.NewGateService(service.GateServiceOptions{Meta: f.meta, Posts: f.posts}),
		Settings: f.settings,
		Posts:    f.posts,
		CAS: func(policy.Settings) (ports.CASClient, error) {
			if f.casErr != nil {
				return nil, f.casErr
			}
			return f.cas, nil
		},
		BaseURL:         "https://site.ua.edu",
		AdminPathPrefix: "/admin",
		ErrorQueryParam: "login-error",
	})
	return f
}

func ssoValues() policy.Settings {
	return policy.Settings{
		policy.SettingEnableSingleSignOn:       "true",
		policy.SettingCASProductionHostAddress: "cas.example.edu",
		policy.SettingCASProductionContext:     "cas",
	}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// seedAssertion stores a verified identity and returns the assertion cookie
// value a browser would carry afterwards.
func (f *routerFixture) seedAssertion(t *testing.T, identity domainauth.Identity) string {
	t.Helper()
	a, err := f.sessions.RecordAssertion(context.Background(), identity)
	require.NoError(t, err)
	return a.ID
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestFlow_LoginIntent_RedirectsToCAS(t *testing.T) {
	f := newRouterFixture(ssoValues())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/welcome?login_requested=true", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		"https://cas.example.edu/cas/login?service=https://site.ua.edu/welcome",
		rec.Header().Get("Location"))

	marker := responseCookie(rec, service.MarkerCookieName)
	require.NotNil(t, marker, "login intent must set the attempt marker")
	assert.NotEmpty(t, marker.Value)
	assert.Equal(t, int(service.MarkerTTL.Seconds()), marker.MaxAge)
}

func TestFlow_LoginIntent_CASUnconfigured(t *testing.T) {
	f := newRouterFixture(ssoValues())
	f.casErr = apperrors.ConfigIncomplete("cas host or context is not configured")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/welcome?login_requested=true&redirect_to=%2Fnext", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))
	assert.Nil(t, responseCookie(rec, service.MarkerCookieName))
}

func TestFlow_LoginIntent_ExistingIdentityBindsDirectly(t *testing.T) {
	f := newRouterFixture(ssoValues())
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/welcome?login_requested=true", nil)
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))

	sessCookie := responseCookie(rec, sessionCookieName)
	require.NotNil(t, sessCookie)
	sess, err := f.sessions.Get(context.Background(), sessCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", sess.Login)
}

func TestFlow_TicketCallback(t *testing.T) {
	f := newRouterFixture(ssoValues())
	var gotService string
	f.cas.ValidateFunc = func(_ context.Context, ticket, service string) (domainauth.Identity, error) {
		assert.Equal(t, "ST-123", ticket)
		gotService = service
		return f.cas.Identity, nil
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/welcome?ticket=ST-123&tab=news", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome?tab=news", rec.Header().Get("Location"))
	assert.Equal(t, "https://site.ua.edu/welcome?tab=news", gotService,
		"service URL must match the callback URL minus the ticket")

	cookie := responseCookie(rec, assertionCookieName)
	require.NotNil(t, cookie)
	a, err := f.sessions.Assertion(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", a.Username)
}

func TestFlow_TicketCallback_ValidationFailure(t *testing.T) {
	f := newRouterFixture(ssoValues())
	f.cas.ValidateFunc = func(context.Context, string, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, apperrors.Denied("cas authentication failure")
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/welcome?ticket=ST-bad", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))
	assert.Nil(t, responseCookie(rec, assertionCookieName))
}

func TestFlow_Settlement_BridgesIntoSession(t *testing.T) {
	f := newRouterFixture(ssoValues())
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: service.MarkerCookieName, Value: service.NewMarkerValue(time.Now())})
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["mybama_authenticated"])
	assert.Equal(t, true, body["wordpress_authenticated"])

	marker := responseCookie(rec, service.MarkerCookieName)
	require.NotNil(t, marker, "settlement must clear the marker")
	assert.Less(t, marker.MaxAge, 0)

	sessCookie := responseCookie(rec, sessionCookieName)
	require.NotNil(t, sessCookie)
	sess, err := f.sessions.Get(context.Background(), sessCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", sess.Login)

	// The unknown external username was provisioned on the way in.
	acct, err := f.accounts.FindByLogin(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", acct.DisplayName)
	require.Len(t, f.notifier.Events, 1)
	assert.True(t, f.notifier.Events[0].IsNew)
}

func TestFlow_Settlement_HonorsRedirectTo(t *testing.T) {
	f := newRouterFixture(ssoValues())
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/welcome?redirect_to=%2Fdash", nil)
	req.AddCookie(&http.Cookie{Name: service.MarkerCookieName, Value: service.NewMarkerValue(time.Now())})
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dash", rec.Header().Get("Location"))
	require.NotNil(t, responseCookie(rec, sessionCookieName))
}

func TestFlow_Settlement_StaleAttemptForcesLogout(t *testing.T) {
	f := newRouterFixture(ssoValues())
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/welcome", nil)
	req.AddCookie(&http.Cookie{Name: service.MarkerCookieName, Value: service.NewMarkerValue(time.Now().Add(-10 * time.Minute))})
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		"https://cas.example.edu/cas/logout?service=https://site.ua.edu/welcome",
		rec.Header().Get("Location"), "stale attempts cascade through the external logout without an error flag")

	_, err := f.sessions.Assertion(context.Background(), assertionID)
	assert.True(t, apperrors.IsNotFound(err), "the assertion must be dropped")

	marker := responseCookie(rec, service.MarkerCookieName)
	require.NotNil(t, marker)
	assert.Less(t, marker.MaxAge, 0)
}

func TestFlow_Settlement_RejectedCarriesErrorParam(t *testing.T) {
	f := newRouterFixture(ssoValues())
	f.authorizer.Accept = false
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/welcome", nil)
	req.AddCookie(&http.Cookie{Name: service.MarkerCookieName, Value: service.NewMarkerValue(time.Now())})
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		"https://cas.example.edu/cas/logout?service=https://site.ua.edu/welcome?login-error=1",
		rec.Header().Get("Location"))
}

func TestFlow_Settlement_LocalDenyKeepsExternalSession(t *testing.T) {
	values := ssoValues()
	values[policy.SettingWordPressLoginBlacklist] = "jdoe"
	f := newRouterFixture(values)
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/welcome", nil)
	req.AddCookie(&http.Cookie{Name: service.MarkerCookieName, Value: service.NewMarkerValue(time.Now())})
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/welcome?login-error=1", rec.Header().Get("Location"),
		"a local-axis rejection stays on the site with the error flag")

	_, err := f.sessions.Assertion(context.Background(), assertionID)
	require.NoError(t, err, "external assertion must survive a local-axis rejection")

	marker := responseCookie(rec, service.MarkerCookieName)
	require.NotNil(t, marker)
	assert.Less(t, marker.MaxAge, 0)
	assert.Nil(t, responseCookie(rec, sessionCookieName))
}

func TestFlow_Settlement_MarkerWithoutIdentityFallsThrough(t *testing.T) {
	f := newRouterFixture(ssoValues())

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: service.MarkerCookieName, Value: service.NewMarkerValue(time.Now())})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["mybama_authenticated"])
	assert.Equal(t, false, body["wordpress_authenticated"])

	marker := responseCookie(rec, service.MarkerCookieName)
	require.NotNil(t, marker)
	assert.Less(t, marker.MaxAge, 0)
}

func TestFlow_Logout_CascadesThroughCAS(t *testing.T) {
	f := newRouterFixture(ssoValues())
	acct := f.accounts.Seed(model.Account{Login: "jdoe", Role: "subscriber"})
	sess, err := f.sessions.Establish(context.Background(), acct)
	require.NoError(t, err)
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/welcome?logout_requested=true", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.ID})
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		"https://cas.example.edu/cas/logout?service=https://site.ua.edu/welcome",
		rec.Header().Get("Location"))

	_, err = f.sessions.Get(context.Background(), sess.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.sessions.Assertion(context.Background(), assertionID)
	assert.True(t, apperrors.IsNotFound(err))

	for _, name := range []string{sessionCookieName, assertionCookieName} {
		cookie := responseCookie(rec, name)
		require.NotNil(t, cookie, name)
		assert.Less(t, cookie.MaxAge, 0, name)
	}
}

func TestFlow_Logout_LocalOnly(t *testing.T) {
	f := newRouterFixture(nil)
	acct := f.accounts.Seed(model.Account{Login: "asmith", Role: "editor"})
	sess, err := f.sessions.Establish(context.Background(), acct)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/welcome?logout_requested=true&redirect_to=%2Fbye", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.ID})
	rec := f.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/bye", rec.Header().Get("Location"))

	_, err = f.sessions.Get(context.Background(), sess.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFlow_AdminAreaSkipsFlows(t *testing.T) {
	f := newRouterFixture(ssoValues())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/admin/settings?login_requested=true", nil))

	// No redirect to the external login: the admin guard answers instead.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFlow_ClearsUnknownSessionCookie(t *testing.T) {
	f := newRouterFixture(nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "gone"})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := responseCookie(rec, sessionCookieName)
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}
