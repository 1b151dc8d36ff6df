package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

// Service defines the plan-selection surface.
type Service interface {
	// ListPlans returns all subscribable plans.
	ListPlans(ctx context.Context) ([]entitlement.Plan, error)

	// CurrentPlan returns the user's active plan.
	CurrentPlan(ctx context.Context, userID uuid.UUID) (entitlement.Plan, error)

	// Subscribe assigns a plan to the user and forces re-resolution of their
	// entitlement snapshot.
	Subscribe(ctx context.Context, userID uuid.UUID, planID string) error

	// Cancel ends the user's subscription. Immediate cancellation takes
	// effect now; otherwise the plan runs out at the period end.
	Cancel(ctx context.Context, userID uuid.UUID, immediate bool) error

	// Compare reports the grant differences a user would see moving to the
	// target plan.
	Compare(ctx context.Context, userID uuid.UUID, targetPlanID string) (*entitlement.PlanComparison, error)
}

type service struct {
	catalog  *entitlement.Catalog
	store    entitlement.Store
	resolver *entitlement.Resolver
	log      *slog.Logger
}

// ServiceOption configures the service.
type ServiceOption func(*service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a plan-selection service. Panics if required
// collaborators are nil to fail fast during initialization.
func NewService(catalog *entitlement.Catalog, store entitlement.Store, resolver *entitlement.Resolver, opts ...ServiceOption) Service {
	if catalog == nil {
		panic("subscription: Catalog is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if resolver == nil {
		panic("subscription: Resolver is required")
	}

	s := &service{
		catalog:  catalog,
		store:    store,
		resolver: resolver,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListPlans(ctx context.Context) ([]entitlement.Plan, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		// The catalog carries the same reference data; serve it rather than
		// failing a read-only listing.
		s.log.WarnContext(ctx, "remote plan listing failed, serving catalog",
			slog.Any("error", err))
		catalogPlans := s.catalog.Plans()
		out := make([]entitlement.Plan, 0, len(catalogPlans))
		for _, p := range catalogPlans {
			if p.ID == entitlement.TierAnonymous {
				continue
			}
			out = append(out, p)
		}
		return out, nil
	}
	return plans, nil
}

func (s *service) CurrentPlan(ctx context.Context, userID uuid.UUID) (entitlement.Plan, error) {
	if userID == uuid.Nil {
		return entitlement.Plan{}, ErrMissingUserID
	}

	planID, err := s.store.GetPlan(ctx, userID)
	if err != nil {
		return entitlement.Plan{}, errors.Join(ErrStoreUnavailable, err)
	}

	plan, ok := s.catalog.Plan(planID)
	if !ok {
		return entitlement.Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

func (s *service) Subscribe(ctx context.Context, userID uuid.UUID, planID string) error {
	if userID == uuid.Nil {
		return ErrMissingUserID
	}

	plan, ok := s.catalog.Plan(planID)
	if !ok {
		return ErrPlanNotFound
	}
	// The anonymous tier exists only as a default; nobody subscribes to it.
	if plan.ID == entitlement.TierAnonymous {
		return ErrNotSubscribable
	}

	if err := s.store.SetPlan(ctx, userID, planID); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	// Plan change supersedes whatever snapshot is cached.
	s.resolver.Invalidate(entitlement.Authenticated(userID))

	s.log.InfoContext(ctx, "plan assigned",
		slog.String("user_id", userID.String()),
		slog.String("plan", planID))
	return nil
}

func (s *service) Cancel(ctx context.Context, userID uuid.UUID, immediate bool) error {
	if userID == uuid.Nil {
		return ErrMissingUserID
	}

	if err := s.store.CancelPlan(ctx, userID, immediate); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	if immediate {
		s.resolver.Invalidate(entitlement.Authenticated(userID))
	}

	s.log.InfoContext(ctx, "plan cancelled",
		slog.String("user_id", userID.String()),
		slog.Bool("immediate", immediate))
	return nil
}

func (s *service) Compare(ctx context.Context, userID uuid.UUID, targetPlanID string) (*entitlement.PlanComparison, error) {
	current, err := s.CurrentPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	targetPlan, ok := s.catalog.Plan(targetPlanID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	return entitlement.ComparePlans(&current, &targetPlan), nil
}
