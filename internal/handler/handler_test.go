package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"testing"

	"github.com/dukerupert/punchcard/internal/auth"
	"github.com/dukerupert/punchcard/internal/database"
	"github.com/dukerupert/punchcard/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func createTestUser(t *testing.T, db *sql.DB, email string, isStaff bool) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := store.NewUserStore(db).Create("Test", "User", email, string(hash), isStaff)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

// asUser attaches an authenticated identity to the request.
func asUser(r *http.Request, userID int64, isStaff bool) *http.Request {
	ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: userID, IsStaff: isStaff, SessionID: 1})
	return r.WithContext(ctx)
}
