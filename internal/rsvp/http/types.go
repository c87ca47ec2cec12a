package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/match"
	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/pkg/httpx"
)

type rsvpResponse struct {
	ID        string               `json:"id"`
	Email     string               `json:"email"`
	FirstName string               `json:"firstName"`
	LastName  string               `json:"lastName"`
	Attending bool                 `json:"attending"`
	Party     []domain.PartyMember `json:"party"`
	Dietary   string               `json:"dietary,omitempty"`
	Message   string               `json:"message,omitempty"`
	Verified  bool                 `json:"verified"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func toRSVPResponse(rec domain.RSVP) rsvpResponse {
	party := rec.Party
	if party == nil {
		party = []domain.PartyMember{}
	}
	first, last := rec.FirstName, rec.LastName
	if first == "" && last == "" && rec.Name != "" {
		first = rec.Name
	}
	return rsvpResponse{
		ID:        rec.ID,
		Email:     rec.Email,
		FirstName: first,
		LastName:  last,
		Attending: rec.Attending,
		Party:     party,
		Dietary:   rec.Dietary,
		Message:   rec.Message,
		Verified:  rec.Verified,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func toRSVPResponses(recs []domain.RSVP) []rsvpResponse {
	out := make([]rsvpResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRSVPResponse(rec))
	}
	return out
}

type duplicateResponse struct {
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	CandidateID      string          `json:"candidate_id"`
	Matches          []matchPairBody `json:"matches"`
}

type matchPairBody struct {
	New      string `json:"new"`
	Existing string `json:"existing"`
}

func personLabel(p match.Person) string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// writeServiceError maps service errors onto HTTP status codes and the
// {error, error_description} body shape.
func writeServiceError(w http.ResponseWriter, err error) {
	var rl *service.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterSeconds))
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited",
			"Too many requests, slow down")
		return
	}

	var dup *service.DuplicateError
	if errors.As(err, &dup) {
		pairs := make([]matchPairBody, 0, len(dup.Match.Matches))
		for _, m := range dup.Match.Matches {
			pairs = append(pairs, matchPairBody{
				New:      personLabel(m.NewPerson),
				Existing: personLabel(m.ExistingPerson),
			})
		}
		httpx.WriteJSON(w, http.StatusConflict, duplicateResponse{
			Error:            "duplicate_rsvp",
			ErrorDescription: "An RSVP for this guest may already exist",
			CandidateID:      dup.Match.Candidate.ID,
			Matches:          pairs,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidSubmission):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"Email, first name and last name are required")
	case errors.Is(err, service.ErrCaptchaRequired):
		httpx.WriteError(w, http.StatusForbidden, "captcha_required",
			"Please complete the captcha and resubmit")
	case errors.Is(err, service.ErrCaptchaFailed):
		httpx.WriteError(w, http.StatusForbidden, "captcha_failed",
			"Captcha verification failed")
	case errors.Is(err, service.ErrLinkNotFound):
		httpx.WriteError(w, http.StatusNotFound, "link_not_found",
			"This link is invalid, expired, or already used")
	case errors.Is(err, service.ErrRSVPNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "RSVP not found")
	case errors.Is(err, service.ErrGuestIndexOutOfRange):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"Guest index out of range")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
			"Invalid username or password")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"Something went wrong")
	}
}

// deviceID identifies the submitting browser. The frontend sets a random ID
// in a cookie on first visit; clients without one fall back to the IP.
func deviceID(r *http.Request) string {
	if c, err := r.Cookie("device_id"); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("X-Device-ID"); h != "" {
		return h
	}
	return httpx.IPKeyExtractor(r)
}
