package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/service"
)

// SearchHandlersOptions groups dependencies for SearchHandlers.
type SearchHandlersOptions struct {
	Gate     *service.GateService
	Settings ports.SettingsStore
	Logger   *slog.Logger
}

// SearchHandlers serves content search with gated posts hidden from
// requesters who fail the relevant axis.
type SearchHandlers struct {
	gate     *service.GateService
	settings ports.SettingsStore
	logger   *slog.Logger
}

// NewSearchHandlers constructs SearchHandlers.
func NewSearchHandlers(opts SearchHandlersOptions) *SearchHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandlers{gate: opts.Gate, settings: opts.Settings, logger: logger}
}

// Search lists posts matching the query term. Gated posts are filtered per
// the requester's authentication state and each post's search-exclusion flag.
// GET /search?q=<term>.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	term := r.URL.Query().Get("q")
	if term == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_query", Err: errors.New("query term is required")})
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

	posts, err := h.gate.Search(ctx, term, state, settings)
	if err != nil {
		h.logger.Error("search failed", slog.String("error", err.Error()))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("internal error")})
		return
	}

	results := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		results = append(results, map[string]any{
			"id":        p.ID,
			"slug":      p.Slug,
			"title":     p.Title,
			"post_type": p.PostType,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}
