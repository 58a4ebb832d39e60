package httpx

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
)

// loginTemplate renders the login page: the local credential form plus the
// optional external sign-in button. The form can be hidden entirely when the
// site runs on single sign-on alone.
var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Log In</title></head>
<body>
{{if .HasError}}<p class="login-error">Authentication failed. Please try again.</p>{{end}}
{{if .ShowButton}}<p><a class="mybama-login-button" href="{{.ButtonURL}}">Login through myBama</a></p>{{end}}
{{if not .HideForm}}<form method="post" action="{{.FormAction}}">
<input type="hidden" name="redirect_to" value="{{.RedirectTo}}">
<label>Username <input type="text" name="login" autocomplete="username"></label>
<label>Password <input type="password" name="password" autocomplete="current-password"></label>
<button type="submit">Log In</button>
</form>{{end}}
</body>
</html>
`))

type loginPageData struct {
	HasError   bool
	ShowButton bool
	HideForm   bool
	ButtonURL  string
	FormAction string
	RedirectTo string
}

// AuthHandlersOptions groups dependencies for AuthHandlers.
type AuthHandlersOptions struct {
	Accounts        *service.AccountService
	Sessions        *service.SessionService
	Settings        ports.SettingsStore
	ErrorQueryParam string
	AdminPathPrefix string
	LoginPath       string
	CookieDomain    string
	CookieSecure    bool
	Logger          *slog.Logger
}

// AuthHandlers provides the login page, the local credential form, and the
// authentication status endpoint.
type AuthHandlers struct {
	accounts  *service.AccountService
	sessions  *service.SessionService
	settings  ports.SettingsStore
	errParam  string
	adminPath string
	loginPath string
	cookies   cookieWriter
	logger    *slog.Logger
}

// NewAuthHandlers constructs AuthHandlers.
func NewAuthHandlers(opts AuthHandlersOptions) *AuthHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errParam := opts.ErrorQueryParam
	if errParam == "" {
		errParam = "login-error"
	}
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	return &AuthHandlers{
		accounts:  opts.Accounts,
		sessions:  opts.Sessions,
		settings:  opts.Settings,
		errParam:  errParam,
		adminPath: opts.AdminPathPrefix,
		loginPath: loginPath,
		cookies:   cookieWriter{Domain: opts.CookieDomain, Secure: opts.CookieSecure},
		logger:    logger,
	}
}

// LoginPage renders the login form.
// GET /login?redirect_to=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load(r.Context())
	if err != nil {
		h.logger.Error("settings load failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	redirectTo := r.URL.Query().Get(RedirectToParam)
	buttonQuery := url.Values{LoginRequestedParam: {"true"}}
	if redirectTo != "" {
		buttonQuery.Set(RedirectToParam, redirectTo)
	}

	sso := settings.IsSingleSignOn()
	data := loginPageData{
		HasError:   r.URL.Query().Get(h.errParam) != "",
		ShowButton: sso && settings.Bool(policy.SettingSSOAddMyBamaButton),
		HideForm:   sso && settings.Bool(policy.SettingSSOHideWordPressLoginForm),
		ButtonURL:  h.loginPath + "?" + buttonQuery.Encode(),
		FormAction: h.loginPath,
		RedirectTo: redirectTo,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginTemplate.Execute(w, data); err != nil {
		h.logger.Error("login template render failed", slog.String("error", err.Error()))
	}
}

// LoginSubmit handles the local credential form. When single sign-on is
// enabled and the requester already holds a verified external identity whose
// username exactly matches the submitted login, the password check is skipped
// and the existing account is signed in directly. The bypass never applies to
// admin-area requests.
// POST /login.
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	login := r.PostFormValue("login")
	password := r.PostFormValue("password")
	redirectTo := r.PostFormValue(RedirectToParam)

	acct, err := h.verify(r, login, password)
	if err != nil {
		if !apperrors.IsDenied(err) {
			h.logger.Error("login failed", slog.String("error", err.Error()))
		}
		retry := withParam(h.loginPath, h.errParam, "1")
		if redirectTo != "" {
			retry = withParam(retry, RedirectToParam, redirectTo)
		}
		http.Redirect(w, r, retry, http.StatusFound)
		return
	}

	sess, err := h.sessions.Establish(r.Context(), acct)
	if err != nil {
		h.logger.Error("session establish failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.cookies.setSession(w, r, sess)

	target := safeRedirectPath(redirectTo)
	if target == "/" && redirectTo == "" {
		target = h.adminTarget()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// verify checks the submitted credentials, applying the trust bridge when its
// preconditions hold: single sign-on enabled, a verified external identity
// whose username equals the login exactly, an existing account, and a
// non-admin request. On any miss it falls back to the password check.
func (h *AuthHandlers) verify(r *http.Request, login, password string) (*model.Account, error) {
	ctx := r.Context()
	onAdminPath := h.adminPath != "" && strings.HasPrefix(r.URL.Path, h.adminPath)
	if identity, ok := GetIdentityFromContext(ctx); ok && !onAdminPath && login != "" && identity.Username == login {
		if settings, err := h.settings.Load(ctx); err == nil && settings.IsSingleSignOn() {
			if acct, findErr := h.accounts.Find(ctx, login); findErr == nil {
				return acct, nil
			}
		}
	}
	return h.accounts.VerifyLocal(ctx, login, password)
}

// Status returns the current authentication state on both axes.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body := map[string]any{
		"mybama_authenticated":    false,
		"wordpress_authenticated": false,
	}
	if identity, ok := GetIdentityFromContext(ctx); ok {
		body["mybama_authenticated"] = true
		body["mybama_username"] = identity.Username
	}
	if session, ok := GetSessionFromContext(ctx); ok {
		body["wordpress_authenticated"] = true
		body["user"] = map[string]any{
			"id":         session.AccountID,
			"login":      session.Login,
			"first_name": session.FirstName,
			"last_name":  session.LastName,
			"email":      session.Email,
			"role":       session.Role,
		}
		body["expires_at"] = session.ExpiresAt
	}
	WriteJSON(w, http.StatusOK, body)
}

func (h *AuthHandlers) adminTarget() string {
	if h.adminPath != "" {
		return h.adminPath
	}
	return "/"
}
