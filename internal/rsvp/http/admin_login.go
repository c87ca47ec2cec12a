package http

import (
	"encoding/json"
	"net/http"

	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/pkg/httpx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"username and password are required")
		return
	}

	token, err := h.AuthService.Login(ctx, req.Username, req.Password, httpx.IPKeyExtractor(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "Bearer",
	})
}
