package domain

import "time"

// Edit token purposes.
const (
	TokenPurposeEdit   = "edit"
	TokenPurposeCancel = "cancel"
)

// EditToken backs the secure links emailed to guests. Only the SHA-256
// fingerprint of the raw token is stored.
type EditToken struct {
	ID        string
	RSVPID    string
	TokenHash string
	Purpose   string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
