package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/punchcard/internal/auth"
	"github.com/dukerupert/punchcard/internal/store"
	"github.com/dukerupert/punchcard/internal/timer"
	"github.com/dukerupert/punchcard/internal/websocket"
)

type TimerHandler struct {
	timer    *timer.Service
	sessions *store.SessionStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewTimerHandler(svc *timer.Service, ss *store.SessionStore, hub *websocket.Hub, logger *slog.Logger) *TimerHandler {
	return &TimerHandler{timer: svc, sessions: ss, hub: hub, logger: logger}
}

func (h *TimerHandler) publish(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Publish(ev)
	}
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	sess, err := h.timer.Start(userID)
	if errors.Is(err, timer.ErrSessionActive) {
		writeError(w, http.StatusBadRequest, "A session is already active")
		return
	}
	if err != nil {
		h.logger.Error("start timer", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to start timer")
		return
	}

	h.publish(websocket.NewEvent("timer", "started", sess.ID, userID))
	writeJSON(w, http.StatusOK, sess)
}

func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	sess, err := h.timer.Stop(userID)
	if errors.Is(err, timer.ErrNoActiveSession) {
		writeError(w, http.StatusBadRequest, "No active session found")
		return
	}
	if err != nil {
		h.logger.Error("stop timer", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to stop timer")
		return
	}

	h.publish(websocket.NewEvent("timer", "stopped", sess.ID, userID))
	writeJSON(w, http.StatusOK, sess)
}

// Status is read-only and safe to poll: it never transitions state.
func (h *TimerHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	sess, err := h.sessions.GetActiveByUser(userID)
	if err != nil {
		h.logger.Error("timer status", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get timer status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"isActive": sess != nil,
		"session":  sess,
	})
}
