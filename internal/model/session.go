package model

import "time"

// Session is one contiguous tracked work interval. A running session has
// nil EndAt and Duration; a closed one has both set, with Duration in whole
// minutes truncated toward zero.
//
// TimesheetID points at the timesheet of the session's UTC start date, even
// when the interval crosses midnight.
type Session struct {
	ID          int64      `json:"id"`
	TimesheetID int64      `json:"timesheet_id"`
	UserID      int64      `json:"user_id"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Duration    *int       `json:"duration"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AuthSession is a login cookie session, unrelated to work Sessions.
type AuthSession struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
