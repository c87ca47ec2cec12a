package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/store"
)

type rsvpsRepo struct {
	q querier
}

const rsvpColumns = `id, email, name, first_name, last_name, attending, party, dietary, message, verified, created_at, updated_at`

func (r *rsvpsRepo) CreateRSVP(ctx context.Context, rec domain.RSVP) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO rsvps (`+rsvpColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		rec.ID,
		mapStringNull(rec.Email),
		mapStringNull(rec.Name),
		mapStringNull(rec.FirstName),
		mapStringNull(rec.LastName),
		rec.Attending,
		encodeParty(rec.Party),
		rec.Dietary,
		rec.Message,
		rec.Verified,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *rsvpsRepo) GetRSVPByID(ctx context.Context, id string) (domain.RSVP, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+rsvpColumns+`
		FROM rsvps
		WHERE id = ?;
	`, id)
	return scanRSVP(row)
}

func (r *rsvpsRepo) UpdateRSVP(ctx context.Context, rec domain.RSVP) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE rsvps
		SET email = ?, name = ?, first_name = ?, last_name = ?, attending = ?,
		    party = ?, dietary = ?, message = ?, verified = ?, updated_at = ?
		WHERE id = ?;
	`,
		mapStringNull(rec.Email),
		mapStringNull(rec.Name),
		mapStringNull(rec.FirstName),
		mapStringNull(rec.LastName),
		rec.Attending,
		encodeParty(rec.Party),
		rec.Dietary,
		rec.Message,
		rec.Verified,
		time.Now().UTC(),
		rec.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *rsvpsRepo) DeleteRSVP(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM rsvps WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *rsvpsRepo) FindByEmail(ctx context.Context, email string) ([]domain.RSVP, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+rsvpColumns+`
		FROM rsvps
		WHERE email IS NOT NULL AND LOWER(email) = LOWER(?)
		ORDER BY created_at DESC;
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRSVPs(rows)
}

func (r *rsvpsRepo) FindByNameContains(ctx context.Context, fragment string) ([]domain.RSVP, error) {
	pattern := "%" + strings.ToLower(fragment) + "%"
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+rsvpColumns+`
		FROM rsvps
		WHERE LOWER(COALESCE(first_name, '') || ' ' || COALESCE(last_name, '')) LIKE ?
		   OR LOWER(COALESCE(name, '')) LIKE ?
		ORDER BY created_at DESC;
	`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRSVPs(rows)
}

func (r *rsvpsRepo) ListRSVPs(ctx context.Context, f store.RSVPFilter) ([]domain.RSVP, error) {
	query := `SELECT ` + rsvpColumns + ` FROM rsvps WHERE 1 = 1`
	args := []any{}

	if f.Attending != nil {
		query += ` AND attending = ?`
		args = append(args, *f.Attending)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query += ` AND (
			LOWER(COALESCE(email, '')) LIKE ?
			OR LOWER(COALESCE(name, '')) LIKE ?
			OR LOWER(COALESCE(first_name, '') || ' ' || COALESCE(last_name, '')) LIKE ?
		)`
		args = append(args, pattern, pattern, pattern)
	}

	query += ` ORDER BY created_at DESC`

	// SQLite treats a negative LIMIT as "no limit".
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?;`
	args = append(args, limit, f.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRSVPs(rows)
}

func (r *rsvpsRepo) CountRSVPs(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rsvps;`).Scan(&n)
	return n, err
}

// encodeParty stores the party as a JSON array, NULL when empty.
func encodeParty(party []domain.PartyMember) sql.NullString {
	if len(party) == 0 {
		return sql.NullString{Valid: false}
	}
	raw, err := json.Marshal(party)
	if err != nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRSVP(row rowScanner) (domain.RSVP, error) {
	var (
		rec                               domain.RSVP
		email, name, first, last, partyNS sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&email,
		&name,
		&first,
		&last,
		&rec.Attending,
		&partyNS,
		&rec.Dietary,
		&rec.Message,
		&rec.Verified,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return domain.RSVP{}, mapNotFound(err)
	}

	rec.Email = mapNullString(email)
	rec.Name = mapNullString(name)
	rec.FirstName = mapNullString(first)
	rec.LastName = mapNullString(last)
	rec.RawParty = mapNullString(partyNS)

	// Early rows carry hand-entered party blobs; a decode failure leaves the
	// structured slice empty while RawParty keeps the stored text.
	if rec.RawParty != "" {
		var members []domain.PartyMember
		if err := json.Unmarshal([]byte(rec.RawParty), &members); err == nil {
			rec.Party = members
		}
	}

	return rec, nil
}

func scanRSVPs(rows *sql.Rows) ([]domain.RSVP, error) {
	var out []domain.RSVP
	for rows.Next() {
		rec, err := scanRSVP(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
