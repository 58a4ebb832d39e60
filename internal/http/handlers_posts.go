package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
)

// PostHandlersOptions groups dependencies for PostHandlers.
type PostHandlersOptions struct {
	Posts     ports.PostStore
	Gate      *service.GateService
	Settings  ports.SettingsStore
	LoginPath string
	Logger    *slog.Logger
}

// PostHandlers serves published content with per-post access gating applied.
type PostHandlers struct {
	posts     ports.PostStore
	gate      *service.GateService
	settings  ports.SettingsStore
	loginPath string
	logger    *slog.Logger
}

// NewPostHandlers constructs PostHandlers.
func NewPostHandlers(opts PostHandlersOptions) *PostHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	return &PostHandlers{
		posts:     opts.Posts,
		gate:      opts.Gate,
		settings:  opts.Settings,
		loginPath: loginPath,
		logger:    logger,
	}
}

// Show serves one post. A page-level requirement on a failed axis forces
// authentication: the myBama axis re-enters the external login flow, the
// WordPress axis redirects to the login form. Content-level requirements
// substitute the body instead.
// GET /posts/{slug}.
func (h *PostHandlers) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := r.PathValue("slug")

	post, err := h.posts.FindBySlug(ctx, slug)
	if err != nil {
		if apperrors.IsNotFound(err) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "post_not_found", Err: err})
			return
		}
		h.logger.Error("post lookup failed", slog.String("slug", slug), slog.String("error", err.Error()))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("internal error")})
		return
	}

	settings, err := h.settings.Load(ctx)
	if err != nil {
		h.logger.Error("settings load failed", slog.String("error", err.Error()))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("internal error")})
		return
	}

	state := service.AccessState{
		MyBama:    IsExternallyAuthenticated(ctx),
		WordPress: IsLocallyAuthenticated(ctx),
	}

	decision, axis := h.gate.Page(ctx, post, state, settings)
	if decision.ForceAuthenticate {
		h.forceAuthenticate(w, r, axis)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"id":        post.ID,
		"slug":      post.Slug,
		"title":     post.Title,
		"post_type": post.PostType,
		"content":   h.gate.Content(ctx, post, state, settings),
	})
}

// forceAuthenticate starts the authentication flow for the failed axis. Both
// paths round-trip back to the current URL once authentication completes.
func (h *PostHandlers) forceAuthenticate(w http.ResponseWriter, r *http.Request, axis policy.Axis) {
	current := r.URL.RequestURI()
	if axis == policy.AxisWordPress {
		q := url.Values{RedirectToParam: {current}}
		http.Redirect(w, r, h.loginPath+"?"+q.Encode(), http.StatusFound)
		return
	}
	http.Redirect(w, r, withParam(current, LoginRequestedParam, "true"), http.StatusFound)
}
