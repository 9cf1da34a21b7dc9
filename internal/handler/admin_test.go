package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/punchcard/internal/model"
	"github.com/dukerupert/punchcard/internal/store"
	"github.com/dukerupert/punchcard/internal/timer"
)

type adminFixture struct {
	h       *AdminHandler
	db      *sql.DB
	notifs  *store.NotificationStore
	adminID int64
	userID  int64
}

func setupAdminHandler(t *testing.T) adminFixture {
	t.Helper()
	db := testDB(t)
	notifs := store.NewNotificationStore(db)
	h := NewAdminHandler(
		timer.NewService(db),
		store.NewUserStore(db),
		store.NewSessionStore(db),
		notifs,
		store.NewSettingsStore(db),
		nil,
		nil,
		testLogger(),
	)
	return adminFixture{
		h:       h,
		db:      db,
		notifs:  notifs,
		adminID: createTestUser(t, db, "admin@example.com", true),
		userID:  createTestUser(t, db, "worker@example.com", false),
	}
}

func TestAdminCreateSession(t *testing.T) {
	f := setupAdminHandler(t)

	body := fmt.Sprintf(`{"user_id":%d,"start_at":"2025-03-10T09:00:00Z","end_at":"2025-03-10T10:30:00Z"}`, f.userID)
	req := asUser(httptest.NewRequest("POST", "/api/admin/session", strings.NewReader(body)), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.CreateSession(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var sess map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess["duration"] != float64(90) {
		t.Errorf("duration = %v, want 90", sess["duration"])
	}
	if sess["is_active"] != false {
		t.Error("admin-created session should be closed")
	}

	// The affected employee gets a notification.
	list, err := f.notifs.ListByUser(f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(list) != 1 || list[0].Title != model.NotifSessionAdded {
		t.Errorf("notifications = %+v, want one %q", list, model.NotifSessionAdded)
	}
}

func TestAdminCreateSessionForStaffSkipsNotification(t *testing.T) {
	f := setupAdminHandler(t)

	body := fmt.Sprintf(`{"user_id":%d,"start_at":"2025-03-10T09:00:00Z","end_at":"2025-03-10T10:00:00Z"}`, f.adminID)
	req := asUser(httptest.NewRequest("POST", "/api/admin/session", strings.NewReader(body)), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.CreateSession(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	list, err := f.notifs.ListByUser(f.adminID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(list) != 0 {
		t.Error("staff targets should not be notified about their own edits")
	}
}

func TestAdminCreateSessionUnknownUser(t *testing.T) {
	f := setupAdminHandler(t)

	body := `{"user_id":9999,"start_at":"2025-03-10T09:00:00Z","end_at":"2025-03-10T10:00:00Z"}`
	req := asUser(httptest.NewRequest("POST", "/api/admin/session", strings.NewReader(body)), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.CreateSession(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAdminCreateSessionInvalidInterval(t *testing.T) {
	f := setupAdminHandler(t)

	body := fmt.Sprintf(`{"user_id":%d,"start_at":"2025-03-10T10:00:00Z","end_at":"2025-03-10T09:00:00Z"}`, f.userID)
	req := asUser(httptest.NewRequest("POST", "/api/admin/session", strings.NewReader(body)), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.CreateSession(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminCreateSessionMissingFields(t *testing.T) {
	f := setupAdminHandler(t)

	body := fmt.Sprintf(`{"user_id":%d,"start_at":"2025-03-10T09:00:00Z"}`, f.userID)
	req := asUser(httptest.NewRequest("POST", "/api/admin/session", strings.NewReader(body)), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.CreateSession(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// createSessionVia is a helper that inserts a closed session through the
// admin endpoint and returns its id.
func createSessionVia(t *testing.T, f adminFixture, start, end string) int64 {
	t.Helper()
	body := fmt.Sprintf(`{"user_id":%d,"start_at":%q,"end_at":%q}`, f.userID, start, end)
	req := asUser(httptest.NewRequest("POST", "/api/admin/session", strings.NewReader(body)), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.CreateSession(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d: %s", rec.Code, rec.Body.String())
	}
	var sess struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess.ID
}

func TestAdminUpdateSession(t *testing.T) {
	f := setupAdminHandler(t)
	id := createSessionVia(t, f, "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z")

	req := asUser(httptest.NewRequest("PUT", "/api/admin/session/1",
		strings.NewReader(`{"end_at":"2025-03-10T11:30:00Z"}`)), f.adminID, true)
	req.SetPathValue("id", fmt.Sprint(id))
	rec := httptest.NewRecorder()
	f.h.UpdateSession(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var sess map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess["duration"] != float64(150) {
		t.Errorf("duration = %v, want 150", sess["duration"])
	}

	list, err := f.notifs.ListByUser(f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	var titles []string
	for _, n := range list {
		titles = append(titles, n.Title)
	}
	if len(list) != 2 || list[0].Title != model.NotifSessionUpdated {
		t.Errorf("notification titles = %v, want update notice first", titles)
	}
}

func TestAdminUpdateSessionNotFound(t *testing.T) {
	f := setupAdminHandler(t)

	req := asUser(httptest.NewRequest("PUT", "/api/admin/session/999",
		strings.NewReader(`{"end_at":"2025-03-10T11:30:00Z"}`)), f.adminID, true)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()
	f.h.UpdateSession(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAdminUpdateSessionNoFields(t *testing.T) {
	f := setupAdminHandler(t)
	id := createSessionVia(t, f, "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z")

	req := asUser(httptest.NewRequest("PUT", "/api/admin/session/1", strings.NewReader(`{}`)), f.adminID, true)
	req.SetPathValue("id", fmt.Sprint(id))
	rec := httptest.NewRecorder()
	f.h.UpdateSession(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminDeleteSession(t *testing.T) {
	f := setupAdminHandler(t)
	id := createSessionVia(t, f, "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z")

	req := asUser(httptest.NewRequest("DELETE", "/api/admin/session/1", nil), f.adminID, true)
	req.SetPathValue("id", fmt.Sprint(id))
	rec := httptest.NewRecorder()
	f.h.DeleteSession(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if sess, err := store.NewSessionStore(f.db).GetByID(id); err != nil || sess != nil {
		t.Errorf("session still present: %v, %v", sess, err)
	}

	list, err := f.notifs.ListByUser(f.userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(list) != 2 || list[0].Title != model.NotifSessionDeleted {
		t.Error("employee should be notified about the deletion")
	}
}

func TestAdminDeleteSessionNotFound(t *testing.T) {
	f := setupAdminHandler(t)

	req := asUser(httptest.NewRequest("DELETE", "/api/admin/session/999", nil), f.adminID, true)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()
	f.h.DeleteSession(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAdminListUsers(t *testing.T) {
	f := setupAdminHandler(t)

	req := asUser(httptest.NewRequest("GET", "/api/admin/users", nil), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.ListUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var users []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
	for _, u := range users {
		if _, leaked := u["password_hash"]; leaked {
			t.Error("password hash leaked in user listing")
		}
	}
}

func TestAdminStats(t *testing.T) {
	f := setupAdminHandler(t)
	createSessionVia(t, f, "2025-03-10T09:00:00Z", "2025-03-10T10:30:00Z")

	req := asUser(httptest.NewRequest("GET", "/api/admin/stats?month=2025-03", nil), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var stats map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["totalUsers"] != float64(2) {
		t.Errorf("totalUsers = %v, want 2", stats["totalUsers"])
	}
	// 90 minutes rounds to 2 hours; averaged over 2 users rounds to 1.
	if stats["monthlyHours"] != float64(2) {
		t.Errorf("monthlyHours = %v, want 2", stats["monthlyHours"])
	}
	if stats["avgHours"] != float64(1) {
		t.Errorf("avgHours = %v, want 1", stats["avgHours"])
	}
	if stats["activeSessions"] != float64(0) {
		t.Errorf("activeSessions = %v, want 0", stats["activeSessions"])
	}
}

func TestAdminStatsInvalidMonth(t *testing.T) {
	f := setupAdminHandler(t)

	req := asUser(httptest.NewRequest("GET", "/api/admin/stats?month=bogus", nil), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.Stats(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAdminStatsQueryFailure(t *testing.T) {
	f := setupAdminHandler(t)
	f.db.Close()

	req := asUser(httptest.NewRequest("GET", "/api/admin/stats?month=2025-03", nil), f.adminID, true)
	rec := httptest.NewRecorder()
	f.h.Stats(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestAdminUserSessions(t *testing.T) {
	f := setupAdminHandler(t)
	createSessionVia(t, f, "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z")
	createSessionVia(t, f, "2025-02-10T09:00:00Z", "2025-02-10T10:00:00Z")

	req := asUser(httptest.NewRequest("GET", "/api/admin/user/1/sessions?month=2025-03", nil), f.adminID, true)
	req.SetPathValue("id", fmt.Sprint(f.userID))
	rec := httptest.NewRecorder()
	f.h.UserSessions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var sessions []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("len(sessions) = %d, want 1 after month filter", len(sessions))
	}
}
