package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/punchcard/internal/model"
	"github.com/dukerupert/punchcard/internal/push"
	"github.com/dukerupert/punchcard/internal/store"
	"github.com/dukerupert/punchcard/internal/timer"
	"github.com/dukerupert/punchcard/internal/websocket"
)

// AdminHandler serves the staff-only surface: user listings, aggregate
// stats, session editing on behalf of any user, and backups.
type AdminHandler struct {
	timer         *timer.Service
	users         *store.UserStore
	sessions      *store.SessionStore
	notifications *store.NotificationStore
	settings      *store.SettingsStore
	hub           *websocket.Hub
	pushSvc       *push.Service
	logger        *slog.Logger
}

func NewAdminHandler(
	svc *timer.Service,
	us *store.UserStore,
	ss *store.SessionStore,
	ns *store.NotificationStore,
	cs *store.SettingsStore,
	hub *websocket.Hub,
	pushSvc *push.Service,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		timer:         svc,
		users:         us,
		sessions:      ss,
		notifications: ns,
		settings:      cs,
		hub:           hub,
		pushSvc:       pushSvc,
		logger:        logger,
	}
}

func (h *AdminHandler) publish(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Publish(ev)
	}
}

// notify records an in-app notification for the user, mirrors it on the
// websocket hub, and forwards it to the user's push subscriptions when both
// push and the company's in-app toggle are on.
func (h *AdminHandler) notify(userID int64, title, message string) {
	n, err := h.notifications.Create(userID, title, message)
	if err != nil {
		h.logger.Error("create notification", "user_id", userID, "error", err)
		return
	}
	h.publish(websocket.NewEvent("notification", "created", n.ID, userID))

	if h.pushSvc == nil {
		return
	}
	settings, err := h.settings.Get()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		return
	}
	if settings.InAppNotifications {
		h.pushSvc.NotifyUser(userID, push.Payload{Title: title, Body: message, Tag: "session"})
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Stats reports the current month unless ?month=YYYY-MM overrides it.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}

	if _, _, err := store.MonthRange(month); err != nil {
		writeError(w, http.StatusBadRequest, "invalid month filter")
		return
	}

	stats, err := h.timer.MonthStats(month)
	if err != nil {
		h.logger.Error("month stats", "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) UserSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	month := r.URL.Query().Get("month")
	if month != "" {
		if _, _, err := store.MonthRange(month); err != nil {
			writeError(w, http.StatusBadRequest, "invalid month filter")
			return
		}
	}

	sessions, err := h.sessions.ListByUser(userID, month)
	if err != nil {
		h.logger.Error("list user sessions", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get user sessions")
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

type createSessionRequest struct {
	UserID  int64     `json:"user_id"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// CreateSession inserts a closed historical session for a user. The
// duration is always derived from the two timestamps; client-supplied
// durations are not accepted.
func (h *AdminHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == 0 || req.StartAt.IsZero() || req.EndAt.IsZero() {
		writeError(w, http.StatusBadRequest, "user_id, start_at, and end_at are required")
		return
	}

	user, err := h.users.GetByID(req.UserID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	sess, err := h.timer.CreateClosed(req.UserID, req.StartAt, req.EndAt)
	if errors.Is(err, timer.ErrInvalidInterval) {
		writeError(w, http.StatusBadRequest, "end time must be after start time")
		return
	}
	if err != nil {
		h.logger.Error("create session", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	if !user.IsStaff {
		h.notify(user.ID, model.NotifSessionAdded, "A new session was added to your timesheet by admin")
	}
	h.publish(websocket.NewEvent("session", "created", sess.ID, sess.UserID))

	writeJSON(w, http.StatusCreated, sess)
}

type updateSessionRequest struct {
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}

func (h *AdminHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.StartAt == nil && req.EndAt == nil {
		writeError(w, http.StatusBadRequest, "start_at or end_at is required")
		return
	}

	sess, err := h.timer.Update(id, req.StartAt, req.EndAt)
	if errors.Is(err, timer.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if errors.Is(err, timer.ErrInvalidInterval) {
		writeError(w, http.StatusBadRequest, "end time must be after start time")
		return
	}
	if err != nil {
		h.logger.Error("update session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update session")
		return
	}

	if user, err := h.users.GetByID(sess.UserID); err == nil && user != nil && !user.IsStaff {
		h.notify(sess.UserID, model.NotifSessionUpdated, "Your session has been updated by admin")
	}
	h.publish(websocket.NewEvent("session", "updated", sess.ID, sess.UserID))

	writeJSON(w, http.StatusOK, sess)
}

func (h *AdminHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	sess, err := h.timer.Delete(id)
	if errors.Is(err, timer.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		h.logger.Error("delete session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	if user, err := h.users.GetByID(sess.UserID); err == nil && user != nil && !user.IsStaff {
		h.notify(sess.UserID, model.NotifSessionDeleted, "A session was deleted from your timesheet by admin")
	}
	h.publish(websocket.NewEvent("session", "deleted", sess.ID, sess.UserID))

	w.WriteHeader(http.StatusNoContent)
}
