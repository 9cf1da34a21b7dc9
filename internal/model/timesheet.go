package model

import "time"

// Timesheet is the per-user-per-day aggregate of tracked minutes. It is
// derived state: total_minutes always equals the sum of the durations of the
// day's closed sessions, and every session mutation recomputes it.
type Timesheet struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Date         string    `json:"date"` // YYYY-MM-DD, UTC
	TotalMinutes int       `json:"total_minutes"`
	CreatedAt    time.Time `json:"created_at"`
}
