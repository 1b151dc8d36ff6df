package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

// Store implements entitlement.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store. Panics on a nil pool to fail fast during initialization.
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("pgstore: connection pool is required")
	}
	return &Store{pool: pool}
}

// GetPlan returns the user's active plan ID. Users without an explicit
// subscription resolve to the free tier.
func (s *Store) GetPlan(ctx context.Context, userID uuid.UUID) (string, error) {
	var planID string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(
			(SELECT plan_id FROM user_plans WHERE user_id = $1),
			'free')`,
		userID,
	).Scan(&planID)
	if err != nil {
		return "", err
	}
	return planID, nil
}

// GetUsage returns the per-feature counters joined against the user's active
// plan grants. Features the user never touched come back with zero usage.
func (s *Store) GetUsage(ctx context.Context, userID uuid.UUID) ([]entitlement.UsageRow, error) {
	rows, err := s.pool.Query(ctx,
		`WITH active AS (
			SELECT COALESCE(
				(SELECT plan_id FROM user_plans WHERE user_id = $1),
				'free') AS plan_id
		)
		SELECT g.feature_key,
		       g.limit_value,
		       COALESCE(u.used, 0),
		       g.refresh_period,
		       COALESCE(u.period_anchor, now())
		FROM plan_grants g
		JOIN active a ON g.plan_id = a.plan_id
		LEFT JOIN feature_usage u
		       ON u.user_id = $1 AND u.feature_key = g.feature_key`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entitlement.UsageRow
	for rows.Next() {
		var r entitlement.UsageRow
		var feature, refresh string
		if err := rows.Scan(&feature, &r.Limit, &r.Used, &refresh, &r.PeriodAnchor); err != nil {
			return nil, err
		}
		r.Feature = entitlement.FeatureKey(feature)
		r.Refresh = entitlement.RefreshPeriod(refresh)
		out = append(out, r)
	}
	return out, rows.Err()
}

// IncrementUsage adds one unit to a feature counter in a single atomic
// statement and returns the new used count.
func (s *Store) IncrementUsage(ctx context.Context, userID uuid.UUID, feature entitlement.FeatureKey) (int64, error) {
	var used int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO feature_usage (user_id, feature_key, used, period_anchor)
		 VALUES ($1, $2, 1, now())
		 ON CONFLICT (user_id, feature_key)
		 DO UPDATE SET used = feature_usage.used + 1
		 RETURNING used`,
		userID, string(feature),
	).Scan(&used)
	if err != nil {
		return 0, err
	}
	return used, nil
}

// IncrementFailedUsage adds one unit to the failed-scan counter.
func (s *Store) IncrementFailedUsage(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.IncrementUsage(ctx, userID, entitlement.FeatureFailedScanQuota)
}

// ResetUsage zeroes a feature counter and moves its period anchor.
func (s *Store) ResetUsage(ctx context.Context, userID uuid.UUID, feature entitlement.FeatureKey, anchor time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO feature_usage (user_id, feature_key, used, period_anchor)
		 VALUES ($1, $2, 0, $3)
		 ON CONFLICT (user_id, feature_key)
		 DO UPDATE SET used = 0, period_anchor = $3`,
		userID, string(feature), anchor,
	)
	return err
}

// SetPlan assigns a plan to the user.
func (s *Store) SetPlan(ctx context.Context, userID uuid.UUID, planID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_plans (user_id, plan_id, cancel_at_period_end, updated_at)
		 VALUES ($1, $2, false, now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET plan_id = $2, cancel_at_period_end = false, updated_at = now()`,
		userID, planID,
	)
	return err
}

// CancelPlan cancels the user's subscription. Immediate cancellation drops
// the user to the free tier now; otherwise the plan is flagged to run out at
// the period end.
func (s *Store) CancelPlan(ctx context.Context, userID uuid.UUID, immediate bool) error {
	if immediate {
		return s.SetPlan(ctx, userID, "free")
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE user_plans
		 SET cancel_at_period_end = true, updated_at = now()
		 WHERE user_id = $1`,
		userID,
	)
	return err
}

// ListPlans returns all subscribable plans with their grants.
func (s *Store) ListPlans(ctx context.Context) ([]entitlement.Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, p.price_cents, p.currency, p.billing_interval,
		        g.feature_key, g.limit_value, g.refresh_period
		 FROM plans p
		 JOIN plan_grants g ON g.plan_id = p.id
		 ORDER BY p.price_cents, p.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*entitlement.Plan)
	var order []string
	for rows.Next() {
		var (
			id, name, currency, interval, feature, refresh string
			priceCents, limit                              int64
		)
		if err := rows.Scan(&id, &name, &priceCents, &currency, &interval, &feature, &limit, &refresh); err != nil {
			return nil, err
		}

		p, ok := byID[id]
		if !ok {
			p = &entitlement.Plan{
				ID:       id,
				Name:     name,
				Price:    entitlement.Money{Amount: priceCents, Currency: currency},
				Interval: entitlement.BillingInterval(interval),
				Grants:   make(map[entitlement.FeatureKey]entitlement.Grant),
			}
			byID[id] = p
			order = append(order, id)
		}

		key := entitlement.FeatureKey(feature)
		grant := entitlement.Grant{Refresh: entitlement.RefreshPeriod(refresh)}
		if key.IsValue() {
			grant.Value = limit
		} else {
			grant.Limit = limit
		}
		p.Grants[key] = grant
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]entitlement.Plan, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}
