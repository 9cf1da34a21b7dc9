package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/punchcard/internal/model"
)

type TimesheetStore struct {
	db *sql.DB
}

func NewTimesheetStore(db *sql.DB) *TimesheetStore {
	return &TimesheetStore{db: db}
}

func scanTimesheet(scanner interface{ Scan(...any) error }) (*model.Timesheet, error) {
	var t model.Timesheet
	err := scanner.Scan(&t.ID, &t.UserID, &t.Date, &t.TotalMinutes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const timesheetCols = `id, user_id, date, total_minutes, created_at`

func (s *TimesheetStore) GetByID(id int64) (*model.Timesheet, error) {
	row := s.db.QueryRow(`SELECT `+timesheetCols+` FROM timesheets WHERE id = ?`, id)
	t, err := scanTimesheet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get timesheet: %w", err)
	}
	return t, nil
}

func (s *TimesheetStore) GetByUserAndDate(userID int64, date string) (*model.Timesheet, error) {
	row := s.db.QueryRow(`SELECT `+timesheetCols+` FROM timesheets WHERE user_id = ? AND date = ?`, userID, date)
	t, err := scanTimesheet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get timesheet by date: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's timesheets, newest day first, optionally
// restricted to a YYYY-MM month.
func (s *TimesheetStore) ListByUser(userID int64, month string) ([]model.Timesheet, error) {
	query := `SELECT ` + timesheetCols + ` FROM timesheets WHERE user_id = ?`
	args := []any{userID}

	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return nil, fmt.Errorf("invalid month %q: %w", month, err)
		}
		query += ` AND date LIKE ?`
		args = append(args, month+"-%")
	}
	query += ` ORDER BY date DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list timesheets: %w", err)
	}
	defer rows.Close()

	var sheets []model.Timesheet
	for rows.Next() {
		t, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timesheet: %w", err)
		}
		sheets = append(sheets, *t)
	}
	return sheets, rows.Err()
}
