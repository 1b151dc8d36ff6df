package meter

import (
	"context"
	"log/slog"

	"github.com/mediscan/quotakit/pkg/entitlement"
	"github.com/mediscan/quotakit/pkg/scan"
	"github.com/mediscan/quotakit/pkg/subscription"
)

// MedicationStore persists a principal's saved medications. The meter only
// needs the write side; listing and deletion live with the owning service.
type MedicationStore interface {
	Save(ctx context.Context, p entitlement.Principal, m scan.Medicine) error
}

// Service wires the quota engine's collaborators behind the HTTP surface.
type Service struct {
	gate       *entitlement.Gate
	resolver   *entitlement.Resolver
	subs       subscription.Service
	classifier scan.Classifier
	answerer   scan.Answerer
	meds       MedicationStore
	log        *slog.Logger
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

// WithAnswerer enables the follow-up question endpoint.
func WithAnswerer(a scan.Answerer) ServiceOption {
	return func(s *Service) { s.answerer = a }
}

// WithMedicationStore enables persistence behind the medication save endpoint.
// Without it the save is metered but not stored.
func WithMedicationStore(m MedicationStore) ServiceOption {
	return func(s *Service) { s.meds = m }
}

// WithServiceLogger sets the logger used by the handlers.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates the meter service. Gate, resolver, subscription
// service, and classifier are required; panics if any is nil.
func NewService(gate *entitlement.Gate, resolver *entitlement.Resolver, subs subscription.Service, classifier scan.Classifier, opts ...ServiceOption) *Service {
	if gate == nil {
		panic("meter: Gate is required")
	}
	if resolver == nil {
		panic("meter: Resolver is required")
	}
	if subs == nil {
		panic("meter: subscription.Service is required")
	}
	if classifier == nil {
		panic("meter: scan.Classifier is required")
	}

	s := &Service{
		gate:       gate,
		resolver:   resolver,
		subs:       subs,
		classifier: classifier,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
