package meter

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/mediscan/quotakit/pkg/entitlement"
	"github.com/mediscan/quotakit/pkg/scan"
	"github.com/mediscan/quotakit/pkg/subscription"
)

type scanRequest struct {
	Image string `json:"image"` // base64-encoded JPEG
}

type scanResponse struct {
	Medicine scan.Medicine       `json:"medicine"`
	Outcome  entitlement.Outcome `json:"outcome"`
	Used     int64               `json:"used"`
	FailOpen bool                `json:"fail_open,omitempty"`
}

// handleScan runs one gated scan analysis. An unrecognized result still
// returns 200 with the sentinel medicine so the client can render it; the
// metering difference lives entirely in which counter was debited.
func (s *Service) handleScan(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_principal", "no principal in request context")
		return
	}

	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil || len(image) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "image must be non-empty base64")
		return
	}

	res, err := entitlement.Run(r.Context(), s.gate, p, entitlement.FeatureScanQuota,
		func(ctx context.Context) (scan.Medicine, error) {
			return s.classifier.Analyze(ctx, image)
		},
		scan.Classify)
	if err != nil {
		s.log.ErrorContext(r.Context(), "scan analysis failed", "error", err)
		respondError(w, http.StatusBadGateway, "scan_failed", "medicine analysis did not complete")
		return
	}
	if !res.Decision.Permitted {
		respondJSON(w, http.StatusForbidden, res.Decision)
		return
	}

	respondJSON(w, http.StatusOK, scanResponse{
		Medicine: res.Value,
		Outcome:  res.Outcome,
		Used:     res.Usage.Used,
		FailOpen: res.FailOpen,
	})
}

type questionRequest struct {
	Medicine scan.Medicine `json:"medicine"`
	Question string        `json:"question"`
}

type questionResponse struct {
	Answer string `json:"answer"`
	Used   int64  `json:"used"`
}

func (s *Service) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if s.answerer == nil {
		respondError(w, http.StatusNotImplemented, "not_supported", "follow-up questions are not enabled")
		return
	}
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_principal", "no principal in request context")
		return
	}

	var req questionRequest
	if err := decodeJSON(r, &req); err != nil || req.Question == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "medicine and question are required")
		return
	}

	res, err := entitlement.Run(r.Context(), s.gate, p, entitlement.FeatureFollowupQuestions,
		func(ctx context.Context) (string, error) {
			return s.answerer.Ask(ctx, req.Medicine, req.Question)
		},
		nil)
	if err != nil {
		s.log.ErrorContext(r.Context(), "follow-up answer failed", "error", err)
		respondError(w, http.StatusBadGateway, "question_failed", "answer generation did not complete")
		return
	}
	if !res.Decision.Permitted {
		respondJSON(w, http.StatusForbidden, res.Decision)
		return
	}

	respondJSON(w, http.StatusOK, questionResponse{Answer: res.Value, Used: res.Usage.Used})
}

type limitResponse struct {
	Permitted bool                   `json:"permitted"`
	Feature   entitlement.FeatureKey `json:"feature"`
	Remaining int64                  `json:"remaining"`
}

// handleMedicationLimit is a read-only quota probe: it evaluates without
// executing or accounting anything, so clients can disable the save button
// before the user tries.
func (s *Service) handleMedicationLimit(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_principal", "no principal in request context")
		return
	}

	snap, err := s.resolver.Resolve(r.Context(), p)
	if snap == nil {
		s.log.ErrorContext(r.Context(), "entitlement resolution failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not resolve entitlements")
		return
	}

	d := entitlement.Permits(snap, entitlement.FeatureSavedMedications, 1)
	respondJSON(w, http.StatusOK, limitResponse{
		Permitted: d.Permitted,
		Feature:   d.Feature,
		Remaining: snap.Remaining(entitlement.FeatureSavedMedications),
	})
}

type saveResponse struct {
	Saved bool  `json:"saved"`
	Used  int64 `json:"used"`
}

func (s *Service) handleSaveMedication(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_principal", "no principal in request context")
		return
	}

	var m scan.Medicine
	if err := decodeJSON(r, &m); err != nil || m.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "medicine with a name is required")
		return
	}

	res, err := entitlement.Run(r.Context(), s.gate, p, entitlement.FeatureSavedMedications,
		func(ctx context.Context) (scan.Medicine, error) {
			if s.meds != nil {
				if err := s.meds.Save(ctx, p, m); err != nil {
					return scan.Medicine{}, err
				}
			}
			return m, nil
		},
		nil)
	if err != nil {
		s.log.ErrorContext(r.Context(), "medication save failed", "error", err)
		respondError(w, http.StatusInternalServerError, "save_failed", "medication could not be saved")
		return
	}
	if !res.Decision.Permitted {
		respondJSON(w, http.StatusForbidden, res.Decision)
		return
	}

	respondJSON(w, http.StatusCreated, saveResponse{Saved: true, Used: res.Usage.Used})
}

type entitlementsResponse struct {
	Plan       string                  `json:"plan"`
	Features   []entitlement.UsageInfo `json:"features"`
	AdsEnabled bool                    `json:"ads_enabled"`
	Degraded   bool                    `json:"degraded,omitempty"`
}

func (s *Service) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "missing_principal", "no principal in request context")
		return
	}

	snap, err := s.resolver.Resolve(r.Context(), p)
	if snap == nil {
		s.log.ErrorContext(r.Context(), "entitlement resolution failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not resolve entitlements")
		return
	}

	respondJSON(w, http.StatusOK, entitlementsResponse{
		Plan:       snap.PlanID(),
		Features:   snap.Usage(),
		AdsEnabled: snap.AdsEnabled(),
		Degraded:   err != nil,
	})
}

type priceView struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type grantView struct {
	Limit   int64  `json:"limit"`
	Refresh string `json:"refresh"`
}

type planView struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Price    priceView            `json:"price"`
	Interval string               `json:"interval"`
	Grants   map[string]grantView `json:"grants"`
}

func (s *Service) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.subs.ListPlans(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "plan listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not list plans")
		return
	}

	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		grants := make(map[string]grantView, len(p.Grants))
		for k, g := range p.Grants {
			limit := g.Limit
			if k.IsValue() {
				limit = g.Value
			}
			grants[string(k)] = grantView{Limit: limit, Refresh: string(g.Refresh)}
		}
		views = append(views, planView{
			ID:       p.ID,
			Name:     p.Name,
			Price:    priceView{Amount: p.Price.Amount, Currency: p.Price.Currency},
			Interval: string(p.Interval),
			Grants:   grants,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"plans": views})
}

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Service) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok || p.IsAnonymous() {
		respondError(w, http.StatusUnauthorized, "authentication_required", "subscriptions require an authenticated user")
		return
	}

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil || req.PlanID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "plan_id is required")
		return
	}

	if err := s.subs.Subscribe(r.Context(), p.UserID(), req.PlanID); err != nil {
		switch {
		case errors.Is(err, subscription.ErrPlanNotFound):
			respondError(w, http.StatusNotFound, "plan_not_found", "unknown plan")
		case errors.Is(err, subscription.ErrNotSubscribable):
			respondError(w, http.StatusUnprocessableEntity, "not_subscribable", "plan cannot be subscribed to")
		default:
			s.log.ErrorContext(r.Context(), "subscribe failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "subscription did not complete")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"plan": req.PlanID})
}

func (s *Service) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok || p.IsAnonymous() {
		respondError(w, http.StatusUnauthorized, "authentication_required", "subscriptions require an authenticated user")
		return
	}

	immediate := r.URL.Query().Get("immediate") == "true"
	if err := s.subs.Cancel(r.Context(), p.UserID(), immediate); err != nil {
		s.log.ErrorContext(r.Context(), "cancel failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "cancellation did not complete")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
