package entitlement

import (
	"errors"
	"fmt"
)

// Grant is one feature's allowance within a plan: a counted limit with a
// refresh period, or a boolean-style value for flag features.
type Grant struct {
	Limit   int64
	Refresh RefreshPeriod
	Value   int64 // used only when the feature is value-style
}

// Money represents a monetary amount in the smallest currency unit.
type Money struct {
	Amount   int64  // cents for USD
	Currency string // ISO 4217 currency code
}

// BillingInterval represents the billing frequency for a plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free plans with no billing
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Plan is read-only reference data describing a subscription tier and the
// grants it carries. A principal's active plan pointer may change via the
// subscription service; plans themselves never change at runtime.
type Plan struct {
	ID       string
	Name     string
	Price    Money
	Interval BillingInterval
	Grants   map[FeatureKey]Grant
}

// Grant returns the plan's grant for a feature, if present.
func (p Plan) Grant(k FeatureKey) (Grant, bool) {
	g, ok := p.Grants[k]
	return g, ok
}

// IsFree reports whether the plan carries no billing.
func (p Plan) IsFree() bool {
	return p.Interval == BillingIntervalNone || p.Price.Amount == 0
}

// GrantChange represents a change in one feature's limit between two plans.
type GrantChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// PlanComparison contains the grant differences between two plans. Used to
// communicate upgrade/downgrade consequences to users.
type PlanComparison struct {
	IncreasedLimits map[FeatureKey]GrantChange
	DecreasedLimits map[FeatureKey]GrantChange
	GainedFlags     []FeatureKey
	LostFlags       []FeatureKey
}

// HasDecreases returns true if any grant shrinks in the target plan.
func (c *PlanComparison) HasDecreases() bool {
	return len(c.DecreasedLimits) > 0 || len(c.LostFlags) > 0
}

// ComparePlans returns the grant differences between current and target plans.
func ComparePlans(current, target *Plan) *PlanComparison {
	if current == nil || target == nil {
		return nil
	}

	cmp := &PlanComparison{
		IncreasedLimits: make(map[FeatureKey]GrantChange),
		DecreasedLimits: make(map[FeatureKey]GrantChange),
	}

	for _, k := range Features() {
		cur, curOK := current.Grants[k]
		tgt, tgtOK := target.Grants[k]
		if !curOK || !tgtOK {
			continue
		}

		if k.IsValue() {
			switch {
			case tgt.Value > cur.Value:
				cmp.GainedFlags = append(cmp.GainedFlags, k)
			case tgt.Value < cur.Value:
				cmp.LostFlags = append(cmp.LostFlags, k)
			}
			continue
		}

		if tgt.Limit == cur.Limit {
			continue
		}

		change := GrantChange{From: cur.Limit, To: tgt.Limit}

		// Unlimited-to-limited always counts as a decrease, regardless of
		// how large the target limit is.
		switch {
		case cur.Limit == Unlimited:
			cmp.DecreasedLimits[k] = change
		case tgt.Limit == Unlimited:
			cmp.IncreasedLimits[k] = change
		case tgt.Limit > cur.Limit:
			cmp.IncreasedLimits[k] = change
		default:
			cmp.DecreasedLimits[k] = change
		}
	}

	return cmp
}

// validatePlan ensures a plan grants every known feature key with sane limits.
func validatePlan(p Plan) error {
	if p.ID == "" {
		return errors.Join(ErrInvalidCatalog, errors.New("plan ID cannot be empty"))
	}
	for _, k := range Features() {
		g, ok := p.Grants[k]
		if !ok {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s is missing a grant for feature %s", p.ID, k))
		}
		if !k.IsValue() && g.Limit < Unlimited {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s has negative limit %d for feature %s", p.ID, g.Limit, k))
		}
	}
	for k := range p.Grants {
		if !k.Valid() {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan %s grants unknown feature %s", p.ID, k))
		}
	}
	return nil
}
