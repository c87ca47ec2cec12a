package store

import (
	"context"
	"errors"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	RSVPs() RSVPs
	EditTokens() EditTokens
	Audit() Audit
	Admins() Admins

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// RSVPFilter narrows admin listings. Nil Attending means both statuses.
type RSVPFilter struct {
	Attending *bool
	Search    string // substring over names and email
	Limit     int
	Offset    int
}

type RSVPs interface {
	// CreateRSVP inserts a new record (id is provided by the app via ULID).
	CreateRSVP(ctx context.Context, r domain.RSVP) error

	// GetRSVPByID returns one record by id.
	GetRSVPByID(ctx context.Context, id string) (domain.RSVP, error)

	// UpdateRSVP replaces the mutable fields and bumps updated_at.
	UpdateRSVP(ctx context.Context, r domain.RSVP) error

	// DeleteRSVP removes the record; edit tokens cascade per schema.
	DeleteRSVP(ctx context.Context, id string) error

	// FindByEmail returns records with an exact (case-insensitive) email.
	FindByEmail(ctx context.Context, email string) ([]domain.RSVP, error)

	// FindByNameContains performs the fuzzy "contains" search over the
	// combined name used to gather duplicate candidates.
	FindByNameContains(ctx context.Context, fragment string) ([]domain.RSVP, error)

	// ListRSVPs returns filtered records, newest first.
	ListRSVPs(ctx context.Context, f RSVPFilter) ([]domain.RSVP, error)

	// CountRSVPs returns total record and attending-guest counts (party
	// members included) for the dashboard summary.
	CountRSVPs(ctx context.Context) (records int64, err error)
}

type EditTokens interface {
	// CreateEditToken stores a token fingerprint for an emailed link.
	CreateEditToken(ctx context.Context, t domain.EditToken) error

	// GetActiveEditTokenByHash returns an unused, unexpired token.
	GetActiveEditTokenByHash(ctx context.Context, hash string) (domain.EditToken, error)

	// MarkEditTokenUsed stamps used_at; used tokens never resolve again.
	MarkEditTokenUsed(ctx context.Context, id string) error

	// DeleteExpiredEditTokens removes lapsed tokens (housekeeping).
	DeleteExpiredEditTokens(ctx context.Context) error
}

type Audit interface {
	// AppendAuditEntry records one admin action. Entries are append-only.
	AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListAuditEntries returns entries newest first.
	ListAuditEntries(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error)
}

type Admins interface {
	GetAdminByUsername(ctx context.Context, username string) (domain.Admin, error)
	CreateAdmin(ctx context.Context, a domain.Admin) error

	// IsEmpty returns true if no admin account exists yet.
	IsEmpty(ctx context.Context) (bool, error)
}
