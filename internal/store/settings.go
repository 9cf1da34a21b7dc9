package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/punchcard/internal/model"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func scanSettings(scanner interface{ Scan(...any) error }) (*model.CompanySettings, error) {
	var cs model.CompanySettings
	var logoURL sql.NullString
	err := scanner.Scan(&cs.ID, &cs.CompanyName, &logoURL, &cs.EmailNotifications, &cs.InAppNotifications, &cs.CreatedAt)
	if err != nil {
		return nil, err
	}
	if logoURL.Valid {
		cs.LogoURL = &logoURL.String
	}
	return &cs, nil
}

const settingsCols = `id, company_name, logo_url, email_notifications, in_app_notifications, created_at`

// Get returns the singleton settings row, creating the default row if none
// exists yet.
func (s *SettingsStore) Get() (*model.CompanySettings, error) {
	row := s.db.QueryRow(`SELECT ` + settingsCols + ` FROM company_settings ORDER BY id LIMIT 1`)
	cs, err := scanSettings(row)
	if err == sql.ErrNoRows {
		return s.createDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("get company settings: %w", err)
	}
	return cs, nil
}

func (s *SettingsStore) createDefault() (*model.CompanySettings, error) {
	result, err := s.db.Exec(`INSERT INTO company_settings DEFAULT VALUES`)
	if err != nil {
		return nil, fmt.Errorf("insert default settings: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+settingsCols+` FROM company_settings WHERE id = ?`, id)
	return scanSettings(row)
}

func (s *SettingsStore) Update(id int64, companyName string, logoURL *string, emailNotifications, inAppNotifications bool) (*model.CompanySettings, error) {
	var logo sql.NullString
	if logoURL != nil {
		logo = sql.NullString{String: *logoURL, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE company_settings SET company_name = ?, logo_url = ?, email_notifications = ?, in_app_notifications = ? WHERE id = ?`,
		companyName, logo, emailNotifications, inAppNotifications, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update company settings: %w", err)
	}
	return s.Get()
}
