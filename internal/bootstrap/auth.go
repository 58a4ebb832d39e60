package bootstrap

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/bamawebtide/ua-mybama-cas-auth/config"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/adapters/cas"
	redisadapter "github.com/bamawebtide/ua-mybama-cas-auth/internal/adapters/redis"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/data"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	httpx "github.com/bamawebtide/ua-mybama-cas-auth/internal/http"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
	"github.com/redis/go-redis/v9"
)

// ServiceContainer holds the constructed services and repositories.
type ServiceContainer struct {
	Accounts *service.AccountService
	Sessions *service.SessionService
	Bridge   *service.IdentityBridge
	Flow     *service.AuthFlow
	Gate     *service.GateService
	Settings ports.SettingsStore
	Posts    ports.PostStore
}

// BuildServicesConfig groups inputs for BuildServices.
type BuildServicesConfig struct {
	Config *config.AppConfig
	DB     *sql.DB
	Redis  redis.UniversalClient
	// Authorizer is the pluggable accept-or-reject decision for fresh
	// external authentications. Nil accepts everything.
	Authorizer ports.NewAuthenticationAuthorizer
	// Notifier observes successful sign-ins. Optional.
	Notifier ports.LoginNotifier
	Logger   *slog.Logger
}

// BuildServices wires repositories, adapters, and services together.
func BuildServices(cfg BuildServicesConfig) ServiceContainer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	accountRepo := data.NewAccountRepo(cfg.DB)
	postRepo := data.NewPostRepo(cfg.DB)
	settingsRepo := data.NewSettingsRepo(cfg.DB)

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Sessions:     redisadapter.NewSessionStore(cfg.Redis),
		Assertions:   redisadapter.NewAssertionStore(cfg.Redis),
		SessionTTL:   cfg.Config.Auth.SessionTTL,
		AssertionTTL: cfg.Config.Auth.AssertionTTL,
	})

	bridge := service.NewIdentityBridge(service.IdentityBridgeOptions{
		Accounts: accountRepo,
		Sessions: sessions,
		Notifier: cfg.Notifier,
		Logger:   logger,
	})

	flow := service.NewAuthFlow(service.AuthFlowOptions{
		Authorizer: cfg.Authorizer,
		Bridge:     bridge,
		Logger:     logger,
	})

	gate := service.NewGateService(service.GateServiceOptions{
		Meta:   postRepo,
		Posts:  postRepo,
		Logger: logger,
	})

	accounts := service.NewAccountService(service.AccountServiceOptions{
		Accounts: accountRepo,
	})

	return ServiceContainer{
		Accounts: accounts,
		Sessions: sessions,
		Bridge:   bridge,
		Flow:     flow,
		Gate:     gate,
		Settings: settingsRepo,
		Posts:    postRepo,
	}
}

// CASFactory builds CAS clients from the current settings. The client is
// constructed per request scope so settings edits take effect without a
// restart; construction is cheap (no network).
func CASFactory() httpx.CASClientFactory {
	return func(settings policy.Settings) (ports.CASClient, error) {
		host, _ := settings.ResolvedHost()
		casContext, _ := settings.ResolvedContext()
		client, err := cas.New(cas.Config{
			Host:     host,
			Context:  casContext,
			TestMode: settings.IsTestMode(),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// BuildRouter assembles the HTTP handler from the service container.
func BuildRouter(cfg *config.AppConfig, services ServiceContainer, logger *slog.Logger) http.Handler {
	router := httpx.NewRouter(httpx.RouterServices{
		Accounts:        services.Accounts,
		Sessions:        services.Sessions,
		Bridge:          services.Bridge,
		Flow:            services.Flow,
		Gate:            services.Gate,
		Settings:        services.Settings,
		Posts:           services.Posts,
		CAS:             CASFactory(),
		BaseURL:         cfg.HTTP.BaseURL,
		CookieDomain:    cfg.HTTP.CookieDomain,
		CookieSecure:    cfg.HTTP.CookieSecure,
		AdminPathPrefix: cfg.Auth.AdminPathPrefix,
		ErrorQueryParam: cfg.Auth.ErrorQueryParam,
		Logger:          logger,
	})

	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)
	return h
}
