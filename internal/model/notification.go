package model

import "time"

// Notification titles emitted by admin session edits.
const (
	NotifSessionAdded   = "Session Added"
	NotifSessionUpdated = "Session Updated"
	NotifSessionDeleted = "Session Deleted"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
