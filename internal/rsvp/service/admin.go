package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/pkg/idx"
	"github.com/brudebord/rsvp/pkg/slogx"
)

var ErrGuestIndexOutOfRange = errors.New("party guest index out of range")

// AdminService backs the dashboard. Every mutation runs in a transaction
// together with its audit entry.
type AdminService struct {
	Store store.Store
}

// Summary is the dashboard headline: total records and attending headcount
// with party members included.
type Summary struct {
	Records         int64
	AttendingGuests int64
}

func (s *AdminService) Summarize(ctx context.Context) (Summary, error) {
	records, err := s.Store.RSVPs().CountRSVPs(ctx)
	if err != nil {
		return Summary{}, err
	}

	all, err := s.Store.RSVPs().ListRSVPs(ctx, store.RSVPFilter{})
	if err != nil {
		return Summary{}, err
	}

	var attending int64
	for _, rec := range all {
		if rec.Attending {
			attending++
		}
		for _, m := range rec.Party {
			if m.Attending {
				attending++
			}
		}
	}

	return Summary{Records: records, AttendingGuests: attending}, nil
}

func (s *AdminService) ListRSVPs(ctx context.Context, f store.RSVPFilter) ([]domain.RSVP, error) {
	return s.Store.RSVPs().ListRSVPs(ctx, f)
}

func (s *AdminService) GetRSVP(ctx context.Context, id string) (domain.RSVP, error) {
	rec, err := s.Store.RSVPs().GetRSVPByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RSVP{}, ErrRSVPNotFound
		}
		return domain.RSVP{}, err
	}
	return rec, nil
}

// AdminUpdateInput covers every field an admin may change.
type AdminUpdateInput struct {
	Email     string
	FirstName string
	LastName  string
	Attending bool
	Party     []domain.PartyMember
	Dietary   string
	Message   string
	Verified  bool
}

func (s *AdminService) UpdateRSVP(ctx context.Context, actor, id string, in AdminUpdateInput) (domain.RSVP, error) {
	log := slogx.FromContext(ctx)

	rec, err := s.GetRSVP(ctx, id)
	if err != nil {
		return domain.RSVP{}, err
	}

	rec.Email = in.Email
	rec.FirstName = in.FirstName
	rec.LastName = in.LastName
	rec.Attending = in.Attending
	rec.Party = in.Party
	rec.Dietary = in.Dietary
	rec.Message = in.Message
	rec.Verified = in.Verified

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RSVPs().UpdateRSVP(ctx, rec); err != nil {
			return err
		}
		return appendAudit(ctx, tx, actor, domain.AuditActionUpdateRSVP, id,
			fmt.Sprintf("updated rsvp for %s", rec.DisplayName()))
	})
	if err != nil {
		log.Error("admin update failed", slog.String("rsvp_id", id), slog.Any("error", err))
		return domain.RSVP{}, err
	}

	log.Info("rsvp updated by admin", slog.String("rsvp_id", id), slog.String("actor", actor))
	return s.GetRSVP(ctx, id)
}

func (s *AdminService) DeleteRSVP(ctx context.Context, actor, id string) error {
	log := slogx.FromContext(ctx)

	rec, err := s.GetRSVP(ctx, id)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RSVPs().DeleteRSVP(ctx, id); err != nil {
			return err
		}
		return appendAudit(ctx, tx, actor, domain.AuditActionDeleteRSVP, id,
			fmt.Sprintf("deleted rsvp for %s", rec.DisplayName()))
	})
	if err != nil {
		log.Error("admin delete failed", slog.String("rsvp_id", id), slog.Any("error", err))
		return err
	}

	log.Info("rsvp deleted by admin", slog.String("rsvp_id", id), slog.String("actor", actor))
	return nil
}

// AddGuest appends a party member to a record.
func (s *AdminService) AddGuest(ctx context.Context, actor, id string, member domain.PartyMember) (domain.RSVP, error) {
	return s.mutateParty(ctx, actor, id, domain.AuditActionAddGuest,
		fmt.Sprintf("added guest %s %s", member.FirstName, member.LastName),
		func(rec *domain.RSVP) error {
			rec.Party = append(rec.Party, member)
			return nil
		})
}

// UpdateGuest replaces the party member at index.
func (s *AdminService) UpdateGuest(ctx context.Context, actor, id string, index int, member domain.PartyMember) (domain.RSVP, error) {
	return s.mutateParty(ctx, actor, id, domain.AuditActionUpdateGuest,
		fmt.Sprintf("updated guest %d to %s %s", index, member.FirstName, member.LastName),
		func(rec *domain.RSVP) error {
			if index < 0 || index >= len(rec.Party) {
				return ErrGuestIndexOutOfRange
			}
			rec.Party[index] = member
			return nil
		})
}

// RemoveGuest drops the party member at index.
func (s *AdminService) RemoveGuest(ctx context.Context, actor, id string, index int) (domain.RSVP, error) {
	return s.mutateParty(ctx, actor, id, domain.AuditActionRemoveGuest,
		fmt.Sprintf("removed guest %d", index),
		func(rec *domain.RSVP) error {
			if index < 0 || index >= len(rec.Party) {
				return ErrGuestIndexOutOfRange
			}
			rec.Party = append(rec.Party[:index], rec.Party[index+1:]...)
			return nil
		})
}

// MoveGuest moves a party member from one record to another. Both records
// change in one transaction so the guest never exists twice or not at all.
func (s *AdminService) MoveGuest(ctx context.Context, actor, fromID string, index int, toID string) error {
	log := slogx.FromContext(ctx)

	if fromID == toID {
		return ErrGuestIndexOutOfRange
	}

	from, err := s.GetRSVP(ctx, fromID)
	if err != nil {
		return err
	}
	to, err := s.GetRSVP(ctx, toID)
	if err != nil {
		return err
	}

	if index < 0 || index >= len(from.Party) {
		return ErrGuestIndexOutOfRange
	}

	member := from.Party[index]
	from.Party = append(from.Party[:index], from.Party[index+1:]...)
	to.Party = append(to.Party, member)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RSVPs().UpdateRSVP(ctx, from); err != nil {
			return err
		}
		if err := tx.RSVPs().UpdateRSVP(ctx, to); err != nil {
			return err
		}
		return appendAudit(ctx, tx, actor, domain.AuditActionMoveGuest, fromID,
			fmt.Sprintf("moved guest %s %s to rsvp %s", member.FirstName, member.LastName, toID))
	})
	if err != nil {
		log.Error("guest move failed",
			slog.String("from", fromID),
			slog.String("to", toID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("guest moved between rsvps",
		slog.String("from", fromID),
		slog.String("to", toID),
		slog.String("actor", actor),
	)
	return nil
}

// ExportCSV writes every record to w, one row per record with the party
// flattened into a single column.
func (s *AdminService) ExportCSV(ctx context.Context, actor string, w io.Writer) error {
	log := slogx.FromContext(ctx)

	records, err := s.Store.RSVPs().ListRSVPs(ctx, store.RSVPFilter{})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "email", "first_name", "last_name", "attending", "party_size", "party", "dietary", "message", "verified", "created_at"}); err != nil {
		return err
	}

	for _, rec := range records {
		party := ""
		for i, m := range rec.Party {
			if i > 0 {
				party += "; "
			}
			party += m.FirstName + " " + m.LastName
			if !m.Attending {
				party += " (not attending)"
			}
		}

		row := []string{
			rec.ID,
			rec.Email,
			rec.FirstName,
			rec.LastName,
			strconv.FormatBool(rec.Attending),
			strconv.Itoa(len(rec.Party)),
			party,
			rec.Dietary,
			rec.Message,
			strconv.FormatBool(rec.Verified),
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if err := appendAudit(ctx, s.Store, actor, domain.AuditActionExport, "",
		fmt.Sprintf("exported %d records", len(records))); err != nil {
		log.Error("failed to record export audit entry", slog.Any("error", err))
	}

	log.Info("rsvps exported", slog.String("actor", actor), slog.Int("records", len(records)))
	return nil
}

func (s *AdminService) ListAuditEntries(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	return s.Store.Audit().ListAuditEntries(ctx, limit, offset)
}

func (s *AdminService) mutateParty(ctx context.Context, actor, id, action, detail string, mutate func(*domain.RSVP) error) (domain.RSVP, error) {
	log := slogx.FromContext(ctx)

	rec, err := s.GetRSVP(ctx, id)
	if err != nil {
		return domain.RSVP{}, err
	}

	if err := mutate(&rec); err != nil {
		return domain.RSVP{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RSVPs().UpdateRSVP(ctx, rec); err != nil {
			return err
		}
		return appendAudit(ctx, tx, actor, action, id, detail)
	})
	if err != nil {
		log.Error("party mutation failed",
			slog.String("rsvp_id", id),
			slog.String("action", action),
			slog.Any("error", err),
		)
		return domain.RSVP{}, err
	}

	log.Info("party changed by admin",
		slog.String("rsvp_id", id),
		slog.String("action", action),
		slog.String("actor", actor),
	)
	return s.GetRSVP(ctx, id)
}

// auditStore is the subset shared by Store and Tx.
type auditStore interface {
	Audit() store.Audit
}

func appendAudit(ctx context.Context, s auditStore, actor, action, rsvpID, detail string) error {
	return s.Audit().AppendAuditEntry(ctx, domain.AuditEntry{
		ID:     idx.New().String(),
		Actor:  actor,
		Action: action,
		RSVPID: rsvpID,
		Detail: detail,
	})
}
