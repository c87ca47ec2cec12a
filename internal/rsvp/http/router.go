package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/pkg/httpx"
	"github.com/brudebord/rsvp/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	RSVPService      *service.RSVPService
	LinkService      *service.LinkService
	AdminService     *service.AdminService
	AuthService      *service.AuthService
	BootstrapService *service.BootstrapService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPublic()
	r.registerLinks()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPublic() {
	submitHandler := &SubmitHandler{RSVPService: r.RSVPService}

	// POST /rsvps - the service applies its own sliding windows; the edge
	// limiter here only sheds floods before they reach the store.
	r.Mux.Handle("POST /v1/rsvps",
		httpx.Chain(submitHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerLinks() {
	requestHandler := &LinkRequestHandler{LinkService: r.LinkService}
	resolveHandler := &LinkResolveHandler{LinkService: r.LinkService}
	updateHandler := &LinkUpdateHandler{LinkService: r.LinkService}
	cancelHandler := &LinkCancelHandler{LinkService: r.LinkService}

	// POST /rsvps/links - public re-issue endpoint, strict edge limit
	r.Mux.Handle("POST /v1/rsvps/links",
		httpx.Chain(requestHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/rsvps/edit",
		httpx.Chain(resolveHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/rsvps/edit",
		httpx.Chain(updateHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/rsvps/cancel",
		httpx.Chain(cancelHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	loginHandler := &LoginHandler{AuthService: r.AuthService}

	// POST /admin/login - strict rate limit (authentication attempts)
	r.Mux.Handle("POST /v1/admin/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	secured := func(h http.Handler) http.Handler {
		return httpx.Chain(h,
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RateLimitByAdmin(httpx.ModerateLimit),
		)
	}

	listHandler := &AdminListHandler{AdminService: r.AdminService}
	exportHandler := &AdminExportHandler{AdminService: r.AdminService}
	getHandler := &AdminGetHandler{AdminService: r.AdminService}
	updateHandler := &AdminUpdateHandler{AdminService: r.AdminService}
	deleteHandler := &AdminDeleteHandler{AdminService: r.AdminService}
	auditHandler := &AdminAuditHandler{AdminService: r.AdminService}
	partyHandler := &AdminPartyHandler{AdminService: r.AdminService}

	r.Mux.Handle("GET /v1/admin/rsvps", secured(listHandler))
	r.Mux.Handle("GET /v1/admin/rsvps/export", secured(exportHandler))
	r.Mux.Handle("GET /v1/admin/rsvps/{id}", secured(getHandler))
	r.Mux.Handle("PATCH /v1/admin/rsvps/{id}", secured(updateHandler))
	r.Mux.Handle("DELETE /v1/admin/rsvps/{id}", secured(deleteHandler))

	r.Mux.Handle("POST /v1/admin/rsvps/{id}/party", secured(http.HandlerFunc(partyHandler.HandleAdd)))
	r.Mux.Handle("PUT /v1/admin/rsvps/{id}/party/{index}", secured(http.HandlerFunc(partyHandler.HandleUpdate)))
	r.Mux.Handle("DELETE /v1/admin/rsvps/{id}/party/{index}", secured(http.HandlerFunc(partyHandler.HandleRemove)))
	r.Mux.Handle("POST /v1/admin/rsvps/{id}/party/{index}/move", secured(http.HandlerFunc(partyHandler.HandleMove)))

	r.Mux.Handle("GET /v1/admin/audit", secured(auditHandler))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
