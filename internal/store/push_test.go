package store

import (
	"testing"

	"github.com/dukerupert/punchcard/internal/database"
)

func setupPushTestDB(t *testing.T) (*PushStore, int64) {
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
	return NewPushStore(db), u.ID
}

func TestPushCreateSubscription(t *testing.T) {
	ps, userID := setupPushTestDB(t)

	sub, err := ps.CreateSubscription(userID, "https://push.example.com/ep1", "p256dh-key", "auth-key")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.Endpoint != "https://push.example.com/ep1" {
		t.Errorf("endpoint = %q", sub.Endpoint)
	}

	subs, err := ps.ListByUser(userID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("len(subs) = %d, want 1", len(subs))
	}
}

func TestPushCreateSubscriptionUpsertsByEndpoint(t *testing.T) {
	ps, userID := setupPushTestDB(t)

	first, err := ps.CreateSubscription(userID, "https://push.example.com/ep1", "old-p256dh", "old-auth")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	second, err := ps.CreateSubscription(userID, "https://push.example.com/ep1", "new-p256dh", "new-auth")
	if err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	if second.ID != first.ID {
		t.Error("re-subscribing the same endpoint should reuse the row")
	}
	if second.P256dhKey != "new-p256dh" {
		t.Errorf("p256dh = %q, want refreshed key", second.P256dhKey)
	}

	subs, err := ps.ListByUser(userID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("len(subs) = %d, want 1 after upsert", len(subs))
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	ps, userID := setupPushTestDB(t)

	if _, err := ps.CreateSubscription(userID, "https://push.example.com/ep1", "k", "a"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if err := ps.DeleteByEndpoint("https://push.example.com/ep1"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, err := ps.ListByUser(userID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 0 {
		t.Error("subscription still present after delete")
	}
}
