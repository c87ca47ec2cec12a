package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/pkg/httpx"
)

// AdminListHandler lists records with optional filtering, plus the headline
// counts for the dashboard.
type AdminListHandler struct {
	AdminService *service.AdminService
}

type adminListResponse struct {
	Records         []rsvpResponse `json:"records"`
	Total           int64          `json:"total"`
	AttendingGuests int64          `json:"attendingGuests"`
}

func (h *AdminListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := store.RSVPFilter{
		Search: q.Get("search"),
	}
	if v := q.Get("attending"); v != "" {
		attending := v == "true"
		filter.Attending = &attending
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	records, err := h.AdminService.ListRSVPs(ctx, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary, err := h.AdminService.Summarize(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminListResponse{
		Records:         toRSVPResponses(records),
		Total:           summary.Records,
		AttendingGuests: summary.AttendingGuests,
	})
}

type AdminGetHandler struct {
	AdminService *service.AdminService
}

func (h *AdminGetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec, err := h.AdminService.GetRSVP(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRSVPResponse(rec))
}

type AdminUpdateHandler struct {
	AdminService *service.AdminService
}

type adminUpdateRequest struct {
	Email     string               `json:"email"`
	FirstName string               `json:"firstName"`
	LastName  string               `json:"lastName"`
	Attending bool                 `json:"attending"`
	Party     []domain.PartyMember `json:"party"`
	Dietary   string               `json:"dietary"`
	Message   string               `json:"message"`
	Verified  bool                 `json:"verified"`
}

func (h *AdminUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	rec, err := h.AdminService.UpdateRSVP(ctx, httpx.AdminIDFromContext(ctx), r.PathValue("id"), service.AdminUpdateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Attending: req.Attending,
		Party:     req.Party,
		Dietary:   req.Dietary,
		Message:   req.Message,
		Verified:  req.Verified,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toRSVPResponse(rec))
}

type AdminDeleteHandler struct {
	AdminService *service.AdminService
}

func (h *AdminDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.AdminService.DeleteRSVP(ctx, httpx.AdminIDFromContext(ctx), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminExportHandler streams the guest list as CSV.
type AdminExportHandler struct {
	AdminService *service.AdminService
}

func (h *AdminExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		`attachment; filename="rsvps-`+time.Now().Format("2006-01-02")+`.csv"`)

	if err := h.AdminService.ExportCSV(ctx, httpx.AdminIDFromContext(ctx), w); err != nil {
		// Headers may already be out; nothing more to do than log upstream.
		writeServiceError(w, err)
	}
}

type AdminAuditHandler struct {
	AdminService *service.AdminService
}

type auditEntryBody struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	RSVPID    string    `json:"rsvpId,omitempty"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *AdminAuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	entries, err := h.AdminService.ListAuditEntries(ctx, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]auditEntryBody, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryBody{
			ID:        e.ID,
			Actor:     e.Actor,
			Action:    e.Action,
			RSVPID:    e.RSVPID,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}
