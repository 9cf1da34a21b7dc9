package store

import (
	"testing"

	"github.com/dukerupert/punchcard/internal/database"
	"github.com/dukerupert/punchcard/internal/model"
)

func setupNotificationTestDB(t *testing.T) (*NotificationStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("Alice", "Smith", "alice@example.com", "hash", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewNotificationStore(db), u.ID
}

func TestNotificationCreate(t *testing.T) {
	ns, userID := setupNotificationTestDB(t)

	n, err := ns.Create(userID, model.NotifSessionAdded, "An admin added a session to your timesheet")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.Title != model.NotifSessionAdded {
		t.Errorf("title = %q", n.Title)
	}
	if n.IsRead {
		t.Error("new notification must be unread")
	}
}

func TestNotificationListByUser(t *testing.T) {
	ns, userID := setupNotificationTestDB(t)

	if _, err := ns.Create(userID, model.NotifSessionAdded, "first"); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	second, err := ns.Create(userID, model.NotifSessionDeleted, "second")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	list, err := ns.ListByUser(userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].ID != second.ID {
		t.Error("expected newest notification first")
	}

	none, err := ns.ListByUser(999)
	if err != nil {
		t.Fatalf("list for unknown user: %v", err)
	}
	if len(none) != 0 {
		t.Error("expected empty list for user with no notifications")
	}
}

func TestNotificationMarkRead(t *testing.T) {
	ns, userID := setupNotificationTestDB(t)

	n, err := ns.Create(userID, model.NotifSessionUpdated, "changed")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if err := ns.MarkRead(n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	got, err := ns.GetByID(n.ID)
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if !got.IsRead {
		t.Error("notification still unread after MarkRead")
	}
}
