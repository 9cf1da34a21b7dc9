package model

import "time"

// CompanySettings is a singleton row, created on first read.
type CompanySettings struct {
	ID                 int64     `json:"id"`
	CompanyName        string    `json:"company_name"`
	LogoURL            *string   `json:"logo_url"`
	EmailNotifications bool      `json:"email_notifications"`
	InAppNotifications bool      `json:"in_app_notifications"`
	CreatedAt          time.Time `json:"created_at"`
}
