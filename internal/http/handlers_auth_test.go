package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedLocalAccount(t *testing.T, f *routerFixture, login, password string) *model.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return f.accounts.Seed(model.Account{
		Login:        login,
		Email:        login + "@ua.edu",
		Role:         "editor",
		PasswordHash: string(hash),
	})
}

func postLogin(f *routerFixture, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return f.do(req)
}

func TestLoginPage_ShowsExternalButton(t *testing.T) {
	f := newRouterFixture(ssoValues())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/login?redirect_to=%2Fdash", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Login through myBama")
	assert.Contains(t, body, "login_requested=true")
	assert.Contains(t, body, "redirect_to=%2Fdash")
	assert.Contains(t, body, "<form", "the local form stays unless hidden explicitly")
}

func TestLoginPage_HidesFormWhenConfigured(t *testing.T) {
	values := ssoValues()
	values[policy.SettingSSOHideWordPressLoginForm] = "true"
	f := newRouterFixture(values)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Login through myBama")
	assert.NotContains(t, body, "<form")
}

func TestLoginPage_WithoutSingleSignOn(t *testing.T) {
	f := newRouterFixture(nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "mybama-login-button")
	assert.Contains(t, body, "<form")
}

func TestLoginPage_ShowsError(t *testing.T) {
	f := newRouterFixture(nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/login?login-error=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication failed")
}

func TestLoginSubmit_Success(t *testing.T) {
	f := newRouterFixture(nil)
	seedLocalAccount(t, f, "asmith", "opensesame")

	rec := postLogin(f, url.Values{
		"login":       {"asmith"},
		"password":    {"opensesame"},
		"redirect_to": {"/dash"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dash", rec.Header().Get("Location"))

	cookie := responseCookie(rec, sessionCookieName)
	require.NotNil(t, cookie)
	sess, err := f.sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "asmith", sess.Login)
}

func TestLoginSubmit_DefaultTargetIsAdminArea(t *testing.T) {
	f := newRouterFixture(nil)
	seedLocalAccount(t, f, "asmith", "opensesame")

	rec := postLogin(f, url.Values{
		"login":    {"asmith"},
		"password": {"opensesame"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestLoginSubmit_BadPassword(t *testing.T) {
	f := newRouterFixture(nil)
	seedLocalAccount(t, f, "asmith", "opensesame")

	rec := postLogin(f, url.Values{
		"login":       {"asmith"},
		"password":    {"nope"},
		"redirect_to": {"/dash"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?login-error=1&redirect_to=%2Fdash", rec.Header().Get("Location"))
	assert.Nil(t, responseCookie(rec, sessionCookieName))
}

func TestLoginSubmit_UnknownAccount(t *testing.T) {
	f := newRouterFixture(nil)

	rec := postLogin(f, url.Values{
		"login":    {"ghost"},
		"password": {"whatever"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?login-error=1", rec.Header().Get("Location"))
}

func TestLoginSubmit_TrustBridgeSkipsPassword(t *testing.T) {
	f := newRouterFixture(ssoValues())
	seedLocalAccount(t, f, "jdoe", "unguessable")
	assertionID := f.seedAssertion(t, f.cas.Identity)

	rec := postLogin(f, url.Values{
		"login":    {"jdoe"},
		"password": {"wrong"},
	}, &http.Cookie{Name: assertionCookieName, Value: assertionID})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	cookie := responseCookie(rec, sessionCookieName)
	require.NotNil(t, cookie)
	sess, err := f.sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", sess.Login)
}

func TestLoginSubmit_TrustBridgeRequiresExactUsername(t *testing.T) {
	f := newRouterFixture(ssoValues())
	seedLocalAccount(t, f, "asmith", "opensesame")
	assertionID := f.seedAssertion(t, f.cas.Identity) // jdoe, not asmith

	rec := postLogin(f, url.Values{
		"login":    {"asmith"},
		"password": {"wrong"},
	}, &http.Cookie{Name: assertionCookieName, Value: assertionID})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?login-error=1", rec.Header().Get("Location"))
}

func TestLoginSubmit_TrustBridgeRequiresSingleSignOn(t *testing.T) {
	f := newRouterFixture(nil)
	seedLocalAccount(t, f, "jdoe", "opensesame")
	assertionID := f.seedAssertion(t, f.cas.Identity)

	rec := postLogin(f, url.Values{
		"login":    {"jdoe"},
		"password": {"wrong"},
	}, &http.Cookie{Name: assertionCookieName, Value: assertionID})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?login-error=1", rec.Header().Get("Location"))
}

func TestAuthStatus_Anonymous(t *testing.T) {
	f := newRouterFixture(nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["mybama_authenticated"])
	assert.Equal(t, false, body["wordpress_authenticated"])
	assert.NotContains(t, body, "user")
}

func TestAuthStatus_SignedIn(t *testing.T) {
	f := newRouterFixture(ssoValues())
	acct := seedLocalAccount(t, f, "jdoe", "opensesame")
	sess, err := f.sessions.Establish(context.Background(), acct)
	require.NoError(t, err)
	assertionID := f.seedAssertion(t, f.cas.Identity)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.ID})
	req.AddCookie(&http.Cookie{Name: assertionCookieName, Value: assertionID})
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["mybama_authenticated"])
	assert.Equal(t, "jdoe", body["mybama_username"])
	assert.Equal(t, true, body["wordpress_authenticated"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jdoe", user["login"])
	assert.Equal(t, "editor", user["role"])
}
