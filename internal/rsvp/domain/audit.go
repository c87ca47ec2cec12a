package domain

import "time"

// Audit actions recorded for admin operations.
const (
	AuditActionUpdateRSVP  = "rsvp.update"
	AuditActionDeleteRSVP  = "rsvp.delete"
	AuditActionAddGuest    = "rsvp.party.add"
	AuditActionUpdateGuest = "rsvp.party.update"
	AuditActionRemoveGuest = "rsvp.party.remove"
	AuditActionMoveGuest   = "rsvp.party.move"
	AuditActionExport      = "rsvp.export"
)

// AuditEntry is one record in the admin action trail. Entries are append-only.
type AuditEntry struct {
	ID        string
	Actor     string // admin ID
	Action    string
	RSVPID    string // empty for actions not scoped to one record (e.g. export)
	Detail    string // human-readable summary of the change
	CreatedAt time.Time
}
