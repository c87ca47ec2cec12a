package http

import (
	"encoding/json"
	"net/http"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/pkg/httpx"
)

// LinkRequestHandler re-sends edit links to an email address. The response
// is 202 regardless of whether the address is on the guest list.
type LinkRequestHandler struct {
	LinkService *service.LinkService
}

func (h *LinkRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.LinkService.RequestEditLink(ctx, req.Email, httpx.IPKeyExtractor(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}

// LinkResolveHandler loads the RSVP behind an edit link so the frontend can
// prefill the form.
type LinkResolveHandler struct {
	LinkService *service.LinkService
}

func (h *LinkResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.LinkService.Resolve(ctx, r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toRSVPResponse(rec))
}

// LinkUpdateHandler applies a guest edit through an edit link.
type LinkUpdateHandler struct {
	LinkService *service.LinkService
}

type linkUpdateRequest struct {
	Token     string               `json:"token"`
	Attending bool                 `json:"attending"`
	Party     []domain.PartyMember `json:"party"`
	Dietary   string               `json:"dietary"`
	Message   string               `json:"message"`
}

func (h *LinkUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req linkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	rec, err := h.LinkService.UpdateByToken(ctx, req.Token, service.UpdateInput{
		Attending: req.Attending,
		Party:     req.Party,
		Dietary:   req.Dietary,
		Message:   req.Message,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toRSVPResponse(rec))
}

// LinkCancelHandler declines the whole party through an edit link.
type LinkCancelHandler struct {
	LinkService *service.LinkService
}

func (h *LinkCancelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.LinkService.CancelByToken(ctx, req.Token); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "cancelled",
	})
}
