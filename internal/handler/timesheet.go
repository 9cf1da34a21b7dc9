package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/punchcard/internal/auth"
	"github.com/dukerupert/punchcard/internal/model"
	"github.com/dukerupert/punchcard/internal/store"
)

type TimesheetHandler struct {
	timesheets *store.TimesheetStore
	sessions   *store.SessionStore
	logger     *slog.Logger
}

func NewTimesheetHandler(ts *store.TimesheetStore, ss *store.SessionStore, logger *slog.Logger) *TimesheetHandler {
	return &TimesheetHandler{timesheets: ts, sessions: ss, logger: logger}
}

// Get returns the caller's timesheets and sessions, optionally limited to a
// YYYY-MM month.
func (h *TimesheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	month := r.URL.Query().Get("month")
	if month != "" {
		if _, _, err := store.MonthRange(month); err != nil {
			writeError(w, http.StatusBadRequest, "invalid month filter")
			return
		}
	}

	sheets, err := h.timesheets.ListByUser(userID, month)
	if err != nil {
		h.logger.Error("list timesheets", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet")
		return
	}
	sessions, err := h.sessions.ListByUser(userID, month)
	if err != nil {
		h.logger.Error("list sessions", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet")
		return
	}

	if sheets == nil {
		sheets = []model.Timesheet{}
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"timesheets": sheets,
		"sessions":   sessions,
	})
}
