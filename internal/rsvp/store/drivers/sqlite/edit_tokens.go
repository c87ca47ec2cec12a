package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/store"
)

type editTokensRepo struct {
	q querier
}

func (r *editTokensRepo) CreateEditToken(ctx context.Context, t domain.EditToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO edit_tokens (id, rsvp_id, token_hash, purpose, expires_at, used_at, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?);
	`, t.ID, t.RSVPID, t.TokenHash, t.Purpose, t.ExpiresAt, t.CreatedAt)
	return err
}

func (r *editTokensRepo) GetActiveEditTokenByHash(ctx context.Context, hash string) (domain.EditToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, rsvp_id, token_hash, purpose, expires_at, used_at, created_at
		FROM edit_tokens
		WHERE token_hash = ?
		  AND used_at IS NULL
		  AND expires_at > ?;
	`, hash, time.Now().UTC())

	var (
		t      domain.EditToken
		usedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.RSVPID, &t.TokenHash, &t.Purpose, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		return domain.EditToken{}, mapNotFound(err)
	}

	t.UsedAt = mapNullTimePtr(usedAt)
	return t, nil
}

func (r *editTokensRepo) MarkEditTokenUsed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE edit_tokens
		SET used_at = ?
		WHERE id = ? AND used_at IS NULL;
	`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *editTokensRepo) DeleteExpiredEditTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM edit_tokens
		WHERE expires_at <= ? OR used_at IS NOT NULL;
	`, time.Now().UTC())
	return err
}
