package store

import (
	"testing"

	"github.com/dukerupert/punchcard/internal/database"
)

func setupSettingsTestDB(t *testing.T) *SettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsStore(db)
}

func TestSettingsGetCreatesDefault(t *testing.T) {
	cs := setupSettingsTestDB(t)

	s, err := cs.Get()
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if s.CompanyName != "TimeTracker Pro" {
		t.Errorf("company_name = %q, want default", s.CompanyName)
	}
	if s.LogoURL != nil {
		t.Error("default logo should be unset")
	}
	if !s.EmailNotifications || !s.InAppNotifications {
		t.Error("notification toggles should default on")
	}

	// Second read must return the same singleton, not a new row.
	again, err := cs.Get()
	if err != nil {
		t.Fatalf("get settings again: %v", err)
	}
	if again.ID != s.ID {
		t.Error("Get created a second settings row")
	}
}

func TestSettingsUpdate(t *testing.T) {
	cs := setupSettingsTestDB(t)

	s, err := cs.Get()
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}

	logo := "https://example.com/logo.png"
	updated, err := cs.Update(s.ID, "Acme Widgets", &logo, false, true)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.CompanyName != "Acme Widgets" {
		t.Errorf("company_name = %q", updated.CompanyName)
	}
	if updated.LogoURL == nil || *updated.LogoURL != logo {
		t.Errorf("logo_url = %v", updated.LogoURL)
	}
	if updated.EmailNotifications {
		t.Error("email_notifications should be off")
	}
	if !updated.InAppNotifications {
		t.Error("in_app_notifications should stay on")
	}

	// Clearing the logo.
	cleared, err := cs.Update(s.ID, "Acme Widgets", nil, false, true)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if cleared.LogoURL != nil {
		t.Error("logo_url should be cleared")
	}
}
