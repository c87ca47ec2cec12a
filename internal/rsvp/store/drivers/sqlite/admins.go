package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/store"
)

type adminsRepo struct {
	q querier
}

func (r *adminsRepo) GetAdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at, updated_at
		FROM admins
		WHERE username = ?;
	`, username)

	var a domain.Admin
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Admin{}, mapNotFound(err)
	}
	return a, nil
}

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.Admin) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO admins (id, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?);
	`, a.ID, a.Username, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *adminsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins;`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}
