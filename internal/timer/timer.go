// Package timer implements the work-session state machine and keeps the
// per-day timesheet aggregates consistent with it. Every mutation runs in a
// single transaction so the session row and its timesheet can never drift
// apart, and the one-active-session-per-user rule is enforced inside the
// store (conditional insert backed by a partial unique index) rather than by
// a check-then-act read.
package timer

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/punchcard/internal/model"
	"github.com/dukerupert/punchcard/internal/store"
)

var (
	// ErrSessionActive is returned by Start when the user already has a
	// running session.
	ErrSessionActive = errors.New("a session is already active")

	// ErrNoActiveSession is returned by Stop when the user has no running
	// session.
	ErrNoActiveSession = errors.New("no active session found")

	// ErrSessionNotFound is returned by Update and Delete for an unknown
	// session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInterval is returned when a session's end would not be
	// after its start.
	ErrInvalidInterval = errors.New("end time must be after start time")
)

// Service owns all session mutations. Reads go through store.SessionStore;
// writes go through here so timesheets are recomputed in the same
// transaction.
type Service struct {
	db       *sql.DB
	users    *store.UserStore
	sessions *store.SessionStore
	now      func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:       db,
		users:    store.NewUserStore(db),
		sessions: store.NewSessionStore(db),
		now:      time.Now,
	}
}

const sessionCols = `id, timesheet_id, user_id, start_at, end_at, duration, is_active, created_at`

// dateOf returns the UTC calendar day a session belongs to. Attribution is
// by start date only; an interval that crosses midnight still counts toward
// the day it started.
func dateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// minutesBetween truncates toward zero, never rounding up a partial minute.
func minutesBetween(start, end time.Time) int {
	d := int(end.Sub(start) / time.Minute)
	if d < 0 {
		d = 0
	}
	return d
}

// Start opens a new active session for the user, lazily creating today's
// timesheet. Returns ErrSessionActive if one is already running; the insert
// is conditional, so two concurrent starts cannot both succeed.
func (s *Service) Start(userID int64) (*model.Session, error) {
	now := s.now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	tsID, err := ensureTimesheet(tx, userID, dateOf(now))
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		`INSERT INTO sessions (timesheet_id, user_id, start_at, is_active)
		 SELECT ?, ?, ?, 1
		 WHERE NOT EXISTS (SELECT 1 FROM sessions WHERE user_id = ? AND is_active = 1)`,
		tsID, userID, now, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrSessionActive
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	sess, err := getSessionTx(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sess, nil
}

// Stop closes the user's active session, computing its duration in whole
// minutes and recomputing the owning timesheet in the same transaction.
// Returns ErrNoActiveSession if nothing is running.
func (s *Service) Stop(userID int64) (*model.Session, error) {
	now := s.now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id, tsID int64
	var startAt time.Time
	err = tx.QueryRow(
		`SELECT id, timesheet_id, start_at FROM sessions WHERE user_id = ? AND is_active = 1`,
		userID,
	).Scan(&id, &tsID, &startAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	duration := minutesBetween(startAt, now)
	_, err = tx.Exec(
		`UPDATE sessions SET end_at = ?, duration = ?, is_active = 0 WHERE id = ?`,
		now, duration, id,
	)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}

	if err := recomputeTimesheet(tx, tsID); err != nil {
		return nil, err
	}

	sess, err := getSessionTx(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sess, nil
}

// CreateClosed inserts an already-finished session on behalf of a user (the
// admin path). Both timestamps are required and the duration is derived
// server-side.
func (s *Service) CreateClosed(userID int64, startAt, endAt time.Time) (*model.Session, error) {
	if !endAt.After(startAt) {
		return nil, ErrInvalidInterval
	}
	startAt = startAt.UTC()
	endAt = endAt.UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	tsID, err := ensureTimesheet(tx, userID, dateOf(startAt))
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		`INSERT INTO sessions (timesheet_id, user_id, start_at, end_at, duration, is_active)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		tsID, userID, startAt, endAt, minutesBetween(startAt, endAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := recomputeTimesheet(tx, tsID); err != nil {
		return nil, err
	}

	sess, err := getSessionTx(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sess, nil
}

// Update edits a session's timestamps. A nil field is left unchanged. When
// the new start falls on a different calendar day the session is re-homed to
// that day's timesheet, and both the old and new day are recomputed.
func (s *Service) Update(sessionID int64, startAt, endAt *time.Time) (*model.Session, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := getSessionTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrSessionNotFound
	}

	newStart := existing.StartAt
	if startAt != nil {
		newStart = startAt.UTC()
	}
	newEnd := existing.EndAt
	if endAt != nil {
		t := endAt.UTC()
		newEnd = &t
	}

	var duration *int
	active := newEnd == nil
	if newEnd != nil {
		if !newEnd.After(newStart) {
			return nil, ErrInvalidInterval
		}
		d := minutesBetween(newStart, *newEnd)
		duration = &d
	}

	oldTsID := existing.TimesheetID
	tsID := oldTsID
	var userID int64
	err = tx.QueryRow(`SELECT user_id FROM timesheets WHERE id = ?`, oldTsID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("get timesheet owner: %w", err)
	}

	if dateOf(newStart) != dateOf(existing.StartAt) {
		tsID, err = ensureTimesheet(tx, userID, dateOf(newStart))
		if err != nil {
			return nil, err
		}
	}

	var end sql.NullTime
	if newEnd != nil {
		end = sql.NullTime{Time: *newEnd, Valid: true}
	}
	var dur sql.NullInt64
	if duration != nil {
		dur = sql.NullInt64{Int64: int64(*duration), Valid: true}
	}
	_, err = tx.Exec(
		`UPDATE sessions SET timesheet_id = ?, start_at = ?, end_at = ?, duration = ?, is_active = ? WHERE id = ?`,
		tsID, newStart, end, dur, active, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if err := recomputeTimesheet(tx, oldTsID); err != nil {
		return nil, err
	}
	if tsID != oldTsID {
		if err := recomputeTimesheet(tx, tsID); err != nil {
			return nil, err
		}
	}

	sess, err := getSessionTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sess, nil
}

// Delete removes a session and recomputes its day. The deleted session is
// returned so the caller can notify its owner.
func (s *Service) Delete(sessionID int64) (*model.Session, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := getSessionTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrSessionNotFound
	}

	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}

	if err := recomputeTimesheet(tx, existing.TimesheetID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return existing, nil
}

// ensureTimesheet returns the id of the user's timesheet for the given day,
// creating an empty one if needed.
func ensureTimesheet(tx *sql.Tx, userID int64, date string) (int64, error) {
	_, err := tx.Exec(
		`INSERT INTO timesheets (user_id, date) VALUES (?, ?) ON CONFLICT(user_id, date) DO NOTHING`,
		userID, date,
	)
	if err != nil {
		return 0, fmt.Errorf("ensure timesheet: %w", err)
	}

	var id int64
	err = tx.QueryRow(`SELECT id FROM timesheets WHERE user_id = ? AND date = ?`, userID, date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("get timesheet id: %w", err)
	}
	return id, nil
}

// recomputeTimesheet rederives total_minutes from the day's closed sessions.
// The aggregate is never trusted as independently authoritative.
func recomputeTimesheet(tx *sql.Tx, timesheetID int64) error {
	_, err := tx.Exec(
		`UPDATE timesheets SET total_minutes = (
			SELECT COALESCE(SUM(duration), 0) FROM sessions
			WHERE timesheet_id = ? AND is_active = 0
		) WHERE id = ?`,
		timesheetID, timesheetID,
	)
	if err != nil {
		return fmt.Errorf("recompute timesheet: %w", err)
	}
	return nil
}

func getSessionTx(tx *sql.Tx, id int64) (*model.Session, error) {
	var sess model.Session
	var endAt sql.NullTime
	var duration sql.NullInt64

	err := tx.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id).Scan(
		&sess.ID, &sess.TimesheetID, &sess.UserID,
		&sess.StartAt, &endAt, &duration, &sess.IsActive, &sess.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if endAt.Valid {
		t := endAt.Time
		sess.EndAt = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		sess.Duration = &d
	}
	return &sess, nil
}
