package sqlite

import (
	"context"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
)

type auditRepo struct {
	q querier
}

func (r *auditRepo) AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO audit_entries (id, actor, action, rsvp_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`, e.ID, e.Actor, e.Action, e.RSVPID, e.Detail, e.CreatedAt)
	return err
}

func (r *auditRepo) ListAuditEntries(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, actor, action, rsvp_id, detail, created_at
		FROM audit_entries
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?;
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.RSVPID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
