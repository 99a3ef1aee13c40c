package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agentfleet/control-plane/app"
	"github.com/agentfleet/control-plane/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health probes stay public: load balancers carry no tokens
	r.Get("/healthz", deps.HealthHandler.HandleHealthz)
	r.Get("/readyz", deps.HealthHandler.HandleReadyz)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", deps.TicketHandler.HandleCreateTicket)
			r.Get("/", deps.TicketHandler.HandleListTickets)
			r.Get("/{id}", deps.TicketHandler.HandleGetTicket)
			r.Patch("/{id}", deps.TicketHandler.HandleUpdateTicket)
			r.Post("/{id}/jobs", deps.TicketHandler.HandleCreateTicketJob)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/{id}", deps.JobHandler.HandleGetJob)
			r.Patch("/{id}", deps.JobHandler.HandleUpdateJob)
		})

		r.Route("/approvals", func(r chi.Router) {
			r.Get("/", deps.ApprovalHandler.HandleListApprovals)
			r.Get("/{id}", deps.ApprovalHandler.HandleGetApproval)
			r.Post("/{id}/approve", deps.ApprovalHandler.HandleApprove)
			r.Post("/{id}/deny", deps.ApprovalHandler.HandleDeny)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Post("/", deps.AuditHandler.HandleCreateAuditEvent)
			r.Get("/", deps.AuditHandler.HandleListAuditEvents)
			r.Get("/{id}", deps.AuditHandler.HandleGetAuditEvent)
		})

		r.Get("/events", handlers.EventStreamHandler(deps.Config.Events.Enabled))
	})

	// 404 handler
	r.NotFound(handlers.NotFoundHandler)

	return r
}
