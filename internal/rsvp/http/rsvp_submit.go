package http

import (
	"encoding/json"
	"net/http"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/pkg/httpx"
)

type SubmitHandler struct {
	RSVPService *service.RSVPService
}

type submitRequest struct {
	Email        string               `json:"email"`
	FirstName    string               `json:"firstName"`
	LastName     string               `json:"lastName"`
	Attending    *bool                `json:"attending"`
	Party        []domain.PartyMember `json:"party"`
	Dietary      string               `json:"dietary"`
	Message      string               `json:"message"`
	CaptchaToken string               `json:"captchaToken"`
	Override     bool                 `json:"overrideDuplicate"`
}

func (h *SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	// Attending defaults to yes; nobody RSVPs to say nothing.
	attending := true
	if req.Attending != nil {
		attending = *req.Attending
	}

	rec, err := h.RSVPService.Submit(ctx, service.SubmitInput{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Attending:    attending,
		Party:        req.Party,
		Dietary:      req.Dietary,
		Message:      req.Message,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     httpx.IPKeyExtractor(r),
		DeviceID:     deviceID(r),
		Override:     req.Override,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toRSVPResponse(rec))
}
