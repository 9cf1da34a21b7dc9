package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/punchcard/internal/model"
)

// SessionStore reads work sessions. All session mutations go through
// timer.Service so the owning timesheet is recomputed in the same
// transaction.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanWorkSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var sess model.Session
	var endAt sql.NullTime
	var duration sql.NullInt64

	err := scanner.Scan(
		&sess.ID, &sess.TimesheetID, &sess.UserID,
		&sess.StartAt, &endAt, &duration, &sess.IsActive, &sess.CreatedAt,
	)
	if err != nil {
		return nil, err
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

const sessionCols = `id, timesheet_id, user_id, start_at, end_at, duration, is_active, created_at`

func (s *SessionStore) GetByID(id int64) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	sess, err := scanWorkSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// GetActiveByUser returns the user's running session, or nil when idle.
func (s *SessionStore) GetActiveByUser(userID int64) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE user_id = ? AND is_active = 1`, userID)
	sess, err := scanWorkSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return sess, nil
}

// ListByUser returns the user's sessions newest-start-first, optionally
// restricted to a YYYY-MM month by start time.
func (s *SessionStore) ListByUser(userID int64, month string) ([]model.Session, error) {
	query := `SELECT ` + sessionCols + ` FROM sessions WHERE user_id = ?`
	args := []any{userID}

	if month != "" {
		from, to, err := MonthRange(month)
		if err != nil {
			return nil, err
		}
		query += ` AND start_at >= ? AND start_at < ?`
		args = append(args, from, to)
	}
	query += ` ORDER BY start_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanWorkSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *SessionStore) CountActive() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE is_active = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

// SumDurationForMonth totals the minutes of closed sessions started within
// the given YYYY-MM month, across all users.
func (s *SessionStore) SumDurationForMonth(month string) (int, error) {
	from, to, err := MonthRange(month)
	if err != nil {
		return 0, err
	}
	var total int
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(duration), 0) FROM sessions
		 WHERE is_active = 0 AND start_at >= ? AND start_at < ?`,
		from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum month durations: %w", err)
	}
	return total, nil
}

// MonthRange converts a YYYY-MM string into [first-of-month, first-of-next)
// UTC bounds.
func MonthRange(month string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return from, from.AddDate(0, 1, 0), nil
}
