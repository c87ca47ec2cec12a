package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/pkg/httpx"
)

// AdminPartyHandler groups the party member operations on one record.
type AdminPartyHandler struct {
	AdminService *service.AdminService
}

func (h *AdminPartyHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var member domain.PartyMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	rec, err := h.AdminService.AddGuest(ctx, httpx.AdminIDFromContext(ctx), r.PathValue("id"), member)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRSVPResponse(rec))
}

func (h *AdminPartyHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	index, ok := guestIndex(w, r)
	if !ok {
		return
	}

	var member domain.PartyMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	rec, err := h.AdminService.UpdateGuest(ctx, httpx.AdminIDFromContext(ctx), r.PathValue("id"), index, member)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRSVPResponse(rec))
}

func (h *AdminPartyHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	index, ok := guestIndex(w, r)
	if !ok {
		return
	}

	rec, err := h.AdminService.RemoveGuest(ctx, httpx.AdminIDFromContext(ctx), r.PathValue("id"), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRSVPResponse(rec))
}

func (h *AdminPartyHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	index, ok := guestIndex(w, r)
	if !ok {
		return
	}

	var req struct {
		TargetID string `json:"targetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"targetId is required")
		return
	}

	if err := h.AdminService.MoveGuest(ctx, httpx.AdminIDFromContext(ctx), r.PathValue("id"), index, req.TargetID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

func guestIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"index must be a non-negative integer")
		return 0, false
	}
	return index, true
}
