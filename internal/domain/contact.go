package domain

import "time"

type ContactEntry struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Message      string `json:"message"`
	RegisteredAt string `json:"registered_at"`
}

type AdminSession struct {
	ID        string
	ExpiresAt time.Time
}

const (
	MaxContactEntries  = 1000
	AdminSessionTTL    = 8 * time.Hour
	AdminSessionCookie = "buildcheck_admin_session"
)
