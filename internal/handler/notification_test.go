package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/punchcard/internal/model"
	"github.com/dukerupert/punchcard/internal/store"
)

func setupNotificationHandler(t *testing.T) (*NotificationHandler, *store.NotificationStore, int64) {
	t.Helper()
	db := testDB(t)
	userID := createTestUser(t, db, "worker@example.com", false)
	ns := store.NewNotificationStore(db)
	return NewNotificationHandler(ns, testLogger()), ns, userID
}

func TestNotificationListEmpty(t *testing.T) {
	h, _, userID := setupNotificationHandler(t)

	req := asUser(httptest.NewRequest("GET", "/api/notifications", nil), userID, false)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if list == nil {
		t.Error("empty list must serialize as [], not null")
	}
}

func TestNotificationMarkReadOwn(t *testing.T) {
	h, ns, userID := setupNotificationHandler(t)

	n, err := ns.Create(userID, model.NotifSessionAdded, "added")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	req := asUser(httptest.NewRequest("PUT", "/api/notifications/1/read", nil), userID, false)
	req.SetPathValue("id", fmt.Sprint(n.ID))
	rec := httptest.NewRecorder()
	h.MarkRead(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got, err := ns.GetByID(n.ID)
	if err != nil || got == nil || !got.IsRead {
		t.Error("notification not marked read")
	}
}

func TestNotificationMarkReadForeign(t *testing.T) {
	h, ns, userID := setupNotificationHandler(t)

	n, err := ns.Create(userID, model.NotifSessionAdded, "added")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	// A different caller cannot acknowledge someone else's notification.
	req := asUser(httptest.NewRequest("PUT", "/api/notifications/1/read", nil), userID+1, false)
	req.SetPathValue("id", fmt.Sprint(n.ID))
	rec := httptest.NewRecorder()
	h.MarkRead(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
