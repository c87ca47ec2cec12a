package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/captcha"
	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/mail"
	"github.com/brudebord/rsvp/internal/rsvp/match"
	"github.com/brudebord/rsvp/internal/rsvp/ratelimit"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/pkg/idx"
	"github.com/brudebord/rsvp/pkg/slogx"
)

var (
	ErrInvalidSubmission = errors.New("invalid rsvp submission")
	ErrCaptchaRequired   = errors.New("captcha verification required")
	ErrCaptchaFailed     = errors.New("captcha verification failed")
)

// RateLimitedError reports a rejected submission and when to retry.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfterSeconds)
}

// DuplicateError reports a likely duplicate submission. The caller can show
// the collision and resubmit with Override set.
type DuplicateError struct {
	Match match.DuplicateMatch
}

func (e *DuplicateError) Error() string {
	return "an rsvp for this guest may already exist"
}

// Mailer is the outbound email queue. Enqueue never blocks.
type Mailer interface {
	Enqueue(msg mail.Message)
}

// RateLimits holds the per-dimension window settings for public submissions.
type RateLimits struct {
	DeviceLimit  int
	DeviceWindow time.Duration
	IPLimit      int
	IPWindow     time.Duration
	EmailLimit   int
	EmailWindow  time.Duration
}

// DefaultRateLimits keeps a tight device window backed by a looser IP window.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		DeviceLimit:  3,
		DeviceWindow: 10 * time.Minute,
		IPLimit:      10,
		IPWindow:     10 * time.Minute,
		EmailLimit:   5,
		EmailWindow:  time.Hour,
	}
}

type RSVPService struct {
	Store   store.Store
	Limiter *ratelimit.Limiter
	Captcha captcha.Verifier
	Mail    Mailer
	Links   *LinkService
	Limits  RateLimits
}

// SubmitInput is one public form submission.
type SubmitInput struct {
	Email     string
	FirstName string
	LastName  string
	Attending bool
	Party     []domain.PartyMember
	Dietary   string
	Message   string

	CaptchaToken string
	RemoteIP     string
	DeviceID     string

	// Override skips the duplicate check after the guest has confirmed the
	// collision is a different person.
	Override bool
}

// Submit handles a public RSVP submission end to end.
func (s *RSVPService) Submit(ctx context.Context, in SubmitInput) (domain.RSVP, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate the minimum viable submission.
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || in.FirstName == "" || in.LastName == "" {
		return domain.RSVP{}, ErrInvalidSubmission
	}

	// 2. Device window first. A trip here escalates to a captcha requirement
	// instead of a hard reject, so a shared kiosk or family tablet can still
	// submit several parties.
	device := s.Limiter.Check(ctx,
		ratelimit.Key(ratelimit.PurposeRSVP, ratelimit.DimensionDevice, in.DeviceID),
		s.Limits.DeviceLimit, s.Limits.DeviceWindow)
	if device.Limited || in.CaptchaToken != "" {
		if err := s.verifyCaptcha(ctx, in, device.Limited); err != nil {
			return domain.RSVP{}, err
		}
	}

	// 3. IP window hard-rejects on trip.
	ip := s.Limiter.Check(ctx,
		ratelimit.Key(ratelimit.PurposeRSVP, ratelimit.DimensionIP, in.RemoteIP),
		s.Limits.IPLimit, s.Limits.IPWindow)
	if ip.Limited {
		log.Warn("rsvp submission rate limited by ip",
			slog.String("ip", in.RemoteIP),
			slog.Int64("count", ip.Count),
		)
		return domain.RSVP{}, &RateLimitedError{RetryAfterSeconds: ip.RetryAfterSeconds}
	}

	// 4. Email window last. Verified identities earn double the limit; they
	// have already proven they own the address.
	candidates, err := s.gatherCandidates(ctx, in.Email, in.FirstName, in.LastName)
	if err != nil {
		log.Error("failed to gather duplicate candidates", slog.Any("error", err))
		return domain.RSVP{}, err
	}

	emailLimit := s.Limits.EmailLimit
	if hasVerifiedIdentity(candidates, in.Email) {
		emailLimit *= 2
	}
	email := s.Limiter.Check(ctx,
		ratelimit.Key(ratelimit.PurposeRSVP, ratelimit.DimensionEmail, strings.ToLower(in.Email)),
		emailLimit, s.Limits.EmailWindow)
	if email.Limited {
		log.Warn("rsvp submission rate limited by email", slog.Int64("count", email.Count))
		return domain.RSVP{}, &RateLimitedError{RetryAfterSeconds: email.RetryAfterSeconds}
	}

	// 5. Duplicate check, unless the guest already confirmed the override.
	if !in.Override {
		newPrimary := match.Person{FirstName: in.FirstName, LastName: in.LastName}
		newParty := make([]match.Person, 0, len(in.Party))
		for _, m := range in.Party {
			newParty = append(newParty, match.Person{FirstName: m.FirstName, LastName: m.LastName})
		}

		result := match.CheckForDuplicates(newPrimary, newParty, candidateRecords(candidates))
		if result.IsDuplicate {
			log.Info("duplicate rsvp detected",
				slog.String("candidate_id", result.Candidate.ID),
				slog.Int("matches", len(result.Matches)),
			)
			return domain.RSVP{}, &DuplicateError{Match: result}
		}
	}

	// 6. Persist the record.
	rec := domain.RSVP{
		ID:        idx.New().String(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Attending: in.Attending,
		Party:     in.Party,
		Dietary:   in.Dietary,
		Message:   in.Message,
	}
	if err := s.Store.RSVPs().CreateRSVP(ctx, rec); err != nil {
		log.Error("failed to persist rsvp", slog.Any("error", err))
		return domain.RSVP{}, err
	}

	// 7. Queue the confirmation email with an edit link. Link minting failure
	// is logged but never fails the submission; the guest can request a fresh
	// link later.
	if s.Links != nil && s.Mail != nil {
		if err := s.Links.SendEditLink(ctx, rec); err != nil {
			log.Error("failed to send edit link", slog.String("rsvp_id", rec.ID), slog.Any("error", err))
		}
	}

	log.Info("rsvp created",
		slog.String("rsvp_id", rec.ID),
		slog.Bool("attending", rec.Attending),
		slog.Int("party_size", len(rec.Party)),
	)

	stored, err := s.Store.RSVPs().GetRSVPByID(ctx, rec.ID)
	if err != nil {
		return rec, nil
	}
	return stored, nil
}

func (s *RSVPService) verifyCaptcha(ctx context.Context, in SubmitInput, required bool) error {
	log := slogx.FromContext(ctx)

	if in.CaptchaToken == "" {
		if required {
			log.Info("device window tripped, requiring captcha", slog.String("device", in.DeviceID))
			return ErrCaptchaRequired
		}
		return nil
	}

	v, err := s.Captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP)
	if err != nil {
		log.Error("captcha verification errored", slog.Any("error", err))
		if required {
			return ErrCaptchaFailed
		}
		// Provider outage on an optional check does not block the guest.
		return nil
	}
	if !v.Success {
		return ErrCaptchaFailed
	}
	return nil
}

// gatherCandidates collects possible duplicates: exact email matches plus
// fuzzy name matches on either name part. The detector dedupes overlaps.
func (s *RSVPService) gatherCandidates(ctx context.Context, email, firstName, lastName string) ([]domain.RSVP, error) {
	byEmail, err := s.Store.RSVPs().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	byLast, err := s.Store.RSVPs().FindByNameContains(ctx, lastName)
	if err != nil {
		return nil, err
	}

	byFirst, err := s.Store.RSVPs().FindByNameContains(ctx, firstName)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RSVP, 0, len(byEmail)+len(byLast)+len(byFirst))
	out = append(out, byEmail...)
	out = append(out, byLast...)
	out = append(out, byFirst...)
	return out, nil
}

func hasVerifiedIdentity(candidates []domain.RSVP, email string) bool {
	for _, c := range candidates {
		if c.Verified && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

func candidateRecords(records []domain.RSVP) []match.CandidateRecord {
	out := make([]match.CandidateRecord, 0, len(records))
	for _, r := range records {
		out = append(out, match.CandidateRecord{
			ID:        r.ID,
			Email:     r.Email,
			Name:      r.Name,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Party:     r.RawParty,
		})
	}
	return out
}
