package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/mail"
	"github.com/brudebord/rsvp/internal/rsvp/ratelimit"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/pkg/cryptox"
	"github.com/brudebord/rsvp/pkg/idx"
	"github.com/brudebord/rsvp/pkg/slogx"
)

var (
	ErrLinkNotFound = errors.New("link not found or expired")
	ErrRSVPNotFound = errors.New("rsvp not found")
)

// LinkService mints and redeems the secure edit links emailed to guests.
// Only a SHA-256 fingerprint of each raw token is ever stored.
type LinkService struct {
	Store   store.Store
	Limiter *ratelimit.Limiter
	Mail    Mailer

	// BaseURL is the public site origin, e.g. https://wedding.example.com.
	BaseURL  string
	TokenTTL time.Duration

	// Re-issue window for guests requesting a fresh link.
	RequestLimit  int
	RequestWindow time.Duration
}

const defaultTokenTTL = 14 * 24 * time.Hour

// SendEditLink mints a fresh edit token for rec and queues the email.
func (s *LinkService) SendEditLink(ctx context.Context, rec domain.RSVP) error {
	log := slogx.FromContext(ctx)

	if rec.Email == "" {
		return ErrInvalidSubmission
	}

	// 1. Generate the raw token and store only its fingerprint.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	et := domain.EditToken{
		ID:        idx.New().String(),
		RSVPID:    rec.ID,
		TokenHash: cryptox.FingerprintToken(token),
		Purpose:   domain.TokenPurposeEdit,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	}
	if err := s.Store.EditTokens().CreateEditToken(ctx, et); err != nil {
		return err
	}

	// 2. Queue the email with the raw token in the link.
	editURL := fmt.Sprintf("%s/rsvp/edit?token=%s", strings.TrimRight(s.BaseURL, "/"), token)
	s.Mail.Enqueue(mail.Message{
		To:      rec.Email,
		Subject: "Your RSVP",
		Text: fmt.Sprintf(
			"Hi %s,\n\nThanks for your RSVP. You can review or change it any time:\n\n%s\n\nThis link expires on %s.",
			rec.DisplayName(), editURL, et.ExpiresAt.Format("2 January 2006"),
		),
	})

	log.Debug("edit link queued", slog.String("rsvp_id", rec.ID), slog.String("token_id", et.ID))
	return nil
}

// RequestEditLink re-sends edit links for every record under email. The
// response is identical whether or not any record exists, so the endpoint
// cannot be used to probe the guest list.
func (s *LinkService) RequestEditLink(ctx context.Context, email, remoteIP string) error {
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidSubmission
	}

	// 1. Token issuance is limited per email and per IP.
	limit := s.RequestLimit
	if limit <= 0 {
		limit = 3
	}
	window := s.RequestWindow
	if window <= 0 {
		window = time.Hour
	}

	byEmail := s.Limiter.Check(ctx,
		ratelimit.Key(ratelimit.PurposeToken, ratelimit.DimensionEmail, strings.ToLower(email)),
		limit, window)
	if byEmail.Limited {
		return &RateLimitedError{RetryAfterSeconds: byEmail.RetryAfterSeconds}
	}

	byIP := s.Limiter.Check(ctx,
		ratelimit.Key(ratelimit.PurposeToken, ratelimit.DimensionIP, remoteIP),
		limit*3, window)
	if byIP.Limited {
		return &RateLimitedError{RetryAfterSeconds: byIP.RetryAfterSeconds}
	}

	// 2. Send a link per matching record. Zero matches is not an error.
	records, err := s.Store.RSVPs().FindByEmail(ctx, email)
	if err != nil {
		log.Error("failed to look up rsvps for link request", slog.Any("error", err))
		return err
	}
	for _, rec := range records {
		if err := s.SendEditLink(ctx, rec); err != nil {
			log.Error("failed to mint edit link", slog.String("rsvp_id", rec.ID), slog.Any("error", err))
		}
	}

	log.Info("edit links requested", slog.Int("records", len(records)))
	return nil
}

// Resolve validates a raw link token and returns the record it belongs to.
// The token stays live; it is consumed on the mutating call.
func (s *LinkService) Resolve(ctx context.Context, rawToken string) (domain.RSVP, error) {
	rec, _, err := s.resolve(ctx, rawToken)
	return rec, err
}

func (s *LinkService) resolve(ctx context.Context, rawToken string) (domain.RSVP, domain.EditToken, error) {
	if rawToken == "" {
		return domain.RSVP{}, domain.EditToken{}, ErrLinkNotFound
	}

	fingerprint := cryptox.FingerprintToken(rawToken)
	et, err := s.Store.EditTokens().GetActiveEditTokenByHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RSVP{}, domain.EditToken{}, ErrLinkNotFound
		}
		return domain.RSVP{}, domain.EditToken{}, err
	}

	rec, err := s.Store.RSVPs().GetRSVPByID(ctx, et.RSVPID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RSVP{}, domain.EditToken{}, ErrLinkNotFound
		}
		return domain.RSVP{}, domain.EditToken{}, err
	}

	return rec, et, nil
}

// UpdateInput carries the guest-editable fields.
type UpdateInput struct {
	Attending bool
	Party     []domain.PartyMember
	Dietary   string
	Message   string
}

// UpdateByToken applies a guest edit through a live link. A successful use of
// the link proves ownership of the email, so the record becomes verified, and
// the token is consumed. A fresh link is sent so the guest can edit again.
func (s *LinkService) UpdateByToken(ctx context.Context, rawToken string, in UpdateInput) (domain.RSVP, error) {
	log := slogx.FromContext(ctx)

	rec, et, err := s.resolve(ctx, rawToken)
	if err != nil {
		return domain.RSVP{}, err
	}

	rec.Attending = in.Attending
	rec.Party = in.Party
	rec.Dietary = in.Dietary
	rec.Message = in.Message
	rec.Verified = true

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RSVPs().UpdateRSVP(ctx, rec); err != nil {
			return err
		}
		return tx.EditTokens().MarkEditTokenUsed(ctx, et.ID)
	})
	if err != nil {
		log.Error("failed to apply guest edit", slog.String("rsvp_id", rec.ID), slog.Any("error", err))
		return domain.RSVP{}, err
	}

	log.Info("rsvp updated via link", slog.String("rsvp_id", rec.ID), slog.Bool("attending", rec.Attending))

	if s.Mail != nil {
		if err := s.SendEditLink(ctx, rec); err != nil {
			log.Error("failed to re-issue edit link", slog.String("rsvp_id", rec.ID), slog.Any("error", err))
		}
	}

	stored, err := s.Store.RSVPs().GetRSVPByID(ctx, rec.ID)
	if err != nil {
		return rec, nil
	}
	return stored, nil
}

// CancelByToken flips the record to not attending and consumes the link. The
// record is kept so the couple can see who declined.
func (s *LinkService) CancelByToken(ctx context.Context, rawToken string) error {
	log := slogx.FromContext(ctx)

	rec, et, err := s.resolve(ctx, rawToken)
	if err != nil {
		return err
	}

	rec.Attending = false
	for i := range rec.Party {
		rec.Party[i].Attending = false
	}
	rec.Verified = true

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RSVPs().UpdateRSVP(ctx, rec); err != nil {
			return err
		}
		return tx.EditTokens().MarkEditTokenUsed(ctx, et.ID)
	})
	if err != nil {
		log.Error("failed to cancel rsvp", slog.String("rsvp_id", rec.ID), slog.Any("error", err))
		return err
	}

	log.Info("rsvp cancelled via link", slog.String("rsvp_id", rec.ID))
	return nil
}
