package domain

import "time"

// Admin is a site owner with access to the dashboard.
type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
