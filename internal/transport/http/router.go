package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodbank/pkg/platform/middleware/auth"
)

// NewRouter wires all public endpoints. Handlers stay thin; the processors
// own every business rule.
func NewRouter(h *Handler, validator *auth.Validator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, logger))

		// Any authenticated caller sees the dashboard and stock levels.
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/stock", h.handleListStock)
		r.Get("/stock/{group}", h.handleGroupStock)

		r.With(auth.RequireRole(auth.RoleDonor)).Group(func(r chi.Router) {
			r.Post("/donations", h.handleDonate)
			r.Get("/donations/mine", h.handleMyDonations)
			r.Get("/donations/eligibility", h.handleEligibility)
		})

		r.With(auth.RequireRole(auth.RolePatient)).Group(func(r chi.Router) {
			r.Post("/requests", h.handleRequestBlood)
			r.Get("/requests/mine", h.handleMyRequests)
		})

		r.With(auth.RequireRole(auth.RoleAdmin)).Group(func(r chi.Router) {
			r.Get("/donations", h.handleListDonations)
			r.Get("/requests", h.handleListRequests)
			r.Put("/stock/{group}", h.handleSetStock)
			r.Get("/audit", h.handleAuditTrail)
		})
	})

	return r
}
