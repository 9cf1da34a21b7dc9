package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/punchcard/internal/store"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewSettingsHandler(cs *store.SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: cs, logger: logger}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type settingsRequest struct {
	CompanyName        *string `json:"company_name"`
	LogoURL            *string `json:"logo_url"`
	EmailNotifications *bool   `json:"email_notifications"`
	InAppNotifications *bool   `json:"in_app_notifications"`
}

// Update applies a partial edit to the singleton row. Absent fields keep
// their current values.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	current, err := h.settings.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	name := current.CompanyName
	if req.CompanyName != nil {
		name = strings.TrimSpace(*req.CompanyName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "company name cannot be empty")
			return
		}
	}
	logo := current.LogoURL
	if req.LogoURL != nil {
		logo = req.LogoURL
	}
	email := current.EmailNotifications
	if req.EmailNotifications != nil {
		email = *req.EmailNotifications
	}
	inApp := current.InAppNotifications
	if req.InAppNotifications != nil {
		inApp = *req.InAppNotifications
	}

	settings, err := h.settings.Update(current.ID, name, logo, email, inApp)
	if err != nil {
		h.logger.Error("update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
