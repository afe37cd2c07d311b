package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/compliance-data-agent/app"
	"github.com/upb/compliance-data-agent/handlers"
	"github.com/upb/compliance-data-agent/middleware"
	"github.com/upb/compliance-data-agent/models"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Actor-Role", "X-Actor-Id", "X-Actor-Email"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	actorMW := middleware.NewActorMiddleware(deps.Logger)
	internalMW := middleware.NewInternalAuthMiddleware(deps.Config.Internal.SharedSecret, deps.Logger)

	healthHandler := handlers.NewHealthHandler(
		deps.DB.DB,
		deps.Recorder,
		deps.Config.SchemaVersion,
		deps.Config.PolicyVersion,
		deps.Logger,
	)
	auditHandler := handlers.NewAuditHandler(deps.AuditEvents, deps.Logger)
	internalHandler := handlers.NewInternalHandler(deps.ComplianceChecks, deps.Recorder, deps.Logger)

	resourceHandlers := make([]*handlers.ResourceHandler, 0, len(models.Registry))
	for _, spec := range models.Registry {
		resourceHandlers = append(resourceHandlers, handlers.NewResourceHandler(
			spec,
			deps.Resources,
			deps.Recorder,
			deps.Oracle,
			deps.IdemCache,
			deps.Logger,
		))
	}

	// Health check endpoint
	r.Get("/health", healthHandler.HandleHealth)

	// Public API: tenant scoped via the tenant_id query parameter
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(actorMW.ExtractActor)

		for i, spec := range models.Registry {
			handler := resourceHandlers[i]
			r.Route("/"+spec.Name, func(r chi.Router) {
				handler.Mount(r)
			})
		}

		r.Get("/audit", auditHandler.HandleRecent)
	})

	// Internal service-to-service surface: shared secret plus tenant header
	r.Route("/internal/v1", func(r chi.Router) {
		r.Use(internalMW.RequireSecret)
		r.Use(internalMW.RequireTenantHeader)
		r.Use(actorMW.ExtractActor)

		for i, spec := range models.Registry {
			handler := resourceHandlers[i]
			r.Route("/"+spec.Name, func(r chi.Router) {
				handler.MountReadOnly(r)
			})
		}

		r.Post("/login-events", internalHandler.HandleRecordLoginEvent)
		r.Post("/compliance-checks", internalHandler.HandleRecordComplianceCheck)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"error":"not_found","message":"endpoint not found"}`))
	})

	return r
}
