package httpx

import (
	"log/slog"
	"net/http"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Accounts *service.AccountService
	Sessions *service.SessionService
	Bridge   *service.IdentityBridge
	Flow     *service.AuthFlow
	Gate     *service.GateService
	Settings ports.SettingsStore
	Posts    ports.PostStore
	CAS      CASClientFactory

	BaseURL         string
	CookieDomain    string
	CookieSecure    bool
	AdminPathPrefix string
	ErrorQueryParam string
	Logger          *slog.Logger
}

const loginPath = "/login"

// NewRouter creates and configures the HTTP router with the
// authentication-flow middleware wrapped around every route.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := NewAuthHandlers(AuthHandlersOptions{
		Accounts:        services.Accounts,
		Sessions:        services.Sessions,
		Settings:        services.Settings,
		ErrorQueryParam: services.ErrorQueryParam,
		AdminPathPrefix: services.AdminPathPrefix,
		LoginPath:       loginPath,
		CookieDomain:    services.CookieDomain,
		CookieSecure:    services.CookieSecure,
		Logger:          logger,
	})
	postHandlers := NewPostHandlers(PostHandlersOptions{
		Posts:     services.Posts,
		Gate:      services.Gate,
		Settings:  services.Settings,
		LoginPath: loginPath,
		Logger:    logger,
	})
	searchHandlers := NewSearchHandlers(SearchHandlersOptions{
		Gate:     services.Gate,
		Settings: services.Settings,
		Logger:   logger,
	})
	settingsHandlers := &SettingsHandlers{Settings: services.Settings, Logger: logger}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	mux.HandleFunc("GET "+loginPath, authHandlers.LoginPage)
	mux.HandleFunc("POST "+loginPath, authHandlers.LoginSubmit)
	mux.HandleFunc("GET /auth/status", authHandlers.Status)

	mux.HandleFunc("GET /posts/{slug}", postHandlers.Show)
	mux.HandleFunc("GET /search", searchHandlers.Search)

	admin := services.AdminPathPrefix
	if admin == "" {
		admin = "/admin"
	}
	requireAdmin := RequireAdmin()
	mux.Handle("GET "+admin+"/settings", requireAdmin(http.HandlerFunc(settingsHandlers.Show)))
	mux.Handle("PUT "+admin+"/settings", requireAdmin(http.HandlerFunc(settingsHandlers.Update)))

	flow := NewFlowMiddleware(FlowOptions{
		Settings:        services.Settings,
		Sessions:        services.Sessions,
		Flow:            services.Flow,
		Bridge:          services.Bridge,
		CAS:             services.CAS,
		BaseURL:         services.BaseURL,
		AdminPathPrefix: admin,
		ErrorQueryParam: services.ErrorQueryParam,
		LoginPath:       loginPath,
		CookieDomain:    services.CookieDomain,
		CookieSecure:    services.CookieSecure,
		Logger:          logger,
	})

	return flow.Handler(mux)
}
