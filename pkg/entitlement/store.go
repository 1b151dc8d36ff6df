package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageRow is one feature's remote counter state for a user. For value-style
// features Limit carries the flag value and Used stays zero.
type UsageRow struct {
	Feature      FeatureKey
	Limit        int64
	Used         int64
	Refresh      RefreshPeriod
	PeriodAnchor time.Time
}

// Store is the authoritative remote entitlement store for authenticated
// principals. All calls are request/response; implementations should make
// increments atomic so concurrent operations never lose a count.
type Store interface {
	// GetPlan returns the user's active plan ID. Users without an explicit
	// subscription resolve to the free tier.
	GetPlan(ctx context.Context, userID uuid.UUID) (string, error)

	// GetUsage returns the per-feature counters for the user's active plan.
	GetUsage(ctx context.Context, userID uuid.UUID) ([]UsageRow, error)

	// IncrementUsage adds one unit to a feature counter and returns the new
	// used count.
	IncrementUsage(ctx context.Context, userID uuid.UUID, feature FeatureKey) (int64, error)

	// IncrementFailedUsage adds one unit to the failed-scan counter and
	// returns the new used count.
	IncrementFailedUsage(ctx context.Context, userID uuid.UUID) (int64, error)

	// ResetUsage zeroes a feature counter and moves its period anchor,
	// the remote half of a period rollover.
	ResetUsage(ctx context.Context, userID uuid.UUID, feature FeatureKey, anchor time.Time) error

	// SetPlan assigns a plan to the user.
	SetPlan(ctx context.Context, userID uuid.UUID, planID string) error

	// CancelPlan cancels the user's subscription. Immediate cancellation
	// drops the user to the free tier right away; otherwise the plan runs
	// out at the period end.
	CancelPlan(ctx context.Context, userID uuid.UUID, immediate bool) error

	// ListPlans returns all subscribable plans.
	ListPlans(ctx context.Context) ([]Plan, error)
}

// Counter is one feature's locally-held usage state.
type Counter struct {
	Used         int64
	PeriodAnchor time.Time
}

// SessionStore holds per-principal counters on this side of the wire: the
// system of record for anonymous principals and a mirror of remote counters
// for authenticated ones.
type SessionStore interface {
	// Get returns all locally known counters for a principal key.
	Get(ctx context.Context, key string) (map[FeatureKey]Counter, error)

	// Increment adds one unit to a feature counter, creating it when absent,
	// and returns the new used count. The anchor is applied only on creation.
	Increment(ctx context.Context, key string, feature FeatureKey, anchor time.Time) (int64, error)

	// Set overwrites a feature counter.
	Set(ctx context.Context, key string, feature FeatureKey, c Counter) error

	// Clear drops all counters for a principal key.
	Clear(ctx context.Context, key string) error
}
