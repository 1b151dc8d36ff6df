package meter

import (
	"github.com/go-chi/chi/v5"
)

// Router mounts the metering endpoints on a fresh chi router. All routes
// sit behind PrincipalMiddleware, so every handler can assume a principal
// is present.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/api", meter.Router(svc))
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()
	r.Use(PrincipalMiddleware)

	r.Post("/scan", svc.handleScan)
	r.Post("/questions", svc.handleQuestion)

	r.Get("/medications/limit", svc.handleMedicationLimit)
	r.Post("/medications", svc.handleSaveMedication)

	r.Get("/entitlements", svc.handleEntitlements)

	r.Get("/plans", svc.handleListPlans)
	r.Post("/subscription", svc.handleSubscribe)
	r.Delete("/subscription", svc.handleCancelSubscription)

	return r
}
