package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/policy"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
)

// SettingsHandlers exposes the policy store to administrators as a flat
// name/value JSON document. List-valued settings are sanitized before they
// are persisted.
type SettingsHandlers struct {
	Settings ports.SettingsStore
	Logger   *slog.Logger
}

func (h *SettingsHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Show returns the effective settings, defaults applied.
// GET /admin/settings.
func (h *SettingsHandlers) Show(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.Load(r.Context())
	if err != nil {
		h.logger().Error("settings load failed", slog.String("error", err.Error()))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("internal error")})
		return
	}
	WriteJSON(w, http.StatusOK, settings)
}

// Update replaces the stored settings with the submitted document.
// PUT /admin/settings.
func (h *SettingsHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var incoming policy.Settings
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return
	}
	if err := h.Settings.Save(r.Context(), incoming); err != nil {
		h.logger().Error("settings save failed", slog.String("error", err.Error()))
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("internal error")})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
