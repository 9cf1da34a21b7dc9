package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/punchcard/internal/store"
)

func setupSettingsHandler(t *testing.T) *SettingsHandler {
	t.Helper()
	return NewSettingsHandler(store.NewSettingsStore(testDB(t)), testLogger())
}

func TestSettingsGetDefault(t *testing.T) {
	h := setupSettingsHandler(t)

	req := asUser(httptest.NewRequest("GET", "/api/settings", nil), 1, false)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var s map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if s["company_name"] != "TimeTracker Pro" {
		t.Errorf("company_name = %v, want default", s["company_name"])
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	h := setupSettingsHandler(t)

	req := asUser(httptest.NewRequest("PUT", "/api/settings",
		strings.NewReader(`{"company_name":"Acme Widgets"}`)), 1, true)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var s map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if s["company_name"] != "Acme Widgets" {
		t.Errorf("company_name = %v", s["company_name"])
	}
	// Untouched fields keep their defaults.
	if s["in_app_notifications"] != true {
		t.Error("absent fields must keep current values")
	}
}

func TestSettingsUpdateEmptyName(t *testing.T) {
	h := setupSettingsHandler(t)

	req := asUser(httptest.NewRequest("PUT", "/api/settings",
		strings.NewReader(`{"company_name":"   "}`)), 1, true)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSettingsUpdateToggles(t *testing.T) {
	h := setupSettingsHandler(t)

	req := asUser(httptest.NewRequest("PUT", "/api/settings",
		strings.NewReader(`{"email_notifications":false,"in_app_notifications":false}`)), 1, true)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var s map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if s["email_notifications"] != false || s["in_app_notifications"] != false {
		t.Errorf("toggles = %v / %v, want both off", s["email_notifications"], s["in_app_notifications"])
	}
}
