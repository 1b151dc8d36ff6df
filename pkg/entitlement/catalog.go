package entitlement

import (
	"errors"
	"fmt"
	"maps"
)

// Built-in plan tiers. TierAnonymous applies to sessions without a login,
// TierFree to authenticated users without a paid subscription.
const (
	TierAnonymous = "anonymous"
	TierFree      = "free"
	TierPremium   = "premium"
)

// Catalog is the static, plan-driven definition of feature grants per tier.
// It is a pure lookup: no network or storage access.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog builds a catalog from the given plans. Every plan must grant
// every feature key; the anonymous and free tiers are mandatory.
func NewCatalog(plans map[string]Plan) (*Catalog, error) {
	for id, p := range plans {
		if p.ID != id {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", id, p.ID))
		}
		if err := validatePlan(p); err != nil {
			return nil, err
		}
	}
	for _, required := range []string{TierAnonymous, TierFree} {
		if _, ok := plans[required]; !ok {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("built-in tier %s is required", required))
		}
	}
	return &Catalog{plans: maps.Clone(plans)}, nil
}

// DefaultCatalog returns the built-in catalog. Limits mirror the production
// plan configuration: anonymous sessions get a small daily scan allowance,
// free accounts slightly more plus follow-ups and saved slots, premium lifts
// the caps and disables ads.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(map[string]Plan{
		TierAnonymous: {
			ID:       TierAnonymous,
			Name:     "Free (Not Logged In)",
			Interval: BillingIntervalNone,
			Grants: map[FeatureKey]Grant{
				FeatureScanQuota:         {Limit: 3, Refresh: RefreshDaily},
				FeatureFailedScanQuota:   {Limit: 2, Refresh: RefreshDaily},
				FeatureFollowupQuestions: {Limit: 0, Refresh: RefreshDaily},
				FeatureHistoryAccess:     {Limit: 0, Refresh: RefreshNone},
				FeatureSavedMedications:  {Limit: 0, Refresh: RefreshNone},
				FeatureAdsEnabled:        {Value: 1},
			},
		},
		TierFree: {
			ID:       TierFree,
			Name:     "Free (Logged In)",
			Interval: BillingIntervalNone,
			Grants: map[FeatureKey]Grant{
				FeatureScanQuota:         {Limit: 5, Refresh: RefreshDaily},
				FeatureFailedScanQuota:   {Limit: 3, Refresh: RefreshDaily},
				FeatureFollowupQuestions: {Limit: 3, Refresh: RefreshDaily},
				FeatureHistoryAccess:     {Limit: 3, Refresh: RefreshNone},
				FeatureSavedMedications:  {Limit: 3, Refresh: RefreshNone},
				FeatureAdsEnabled:        {Value: 1},
			},
		},
		TierPremium: {
			ID:       TierPremium,
			Name:     "Premium",
			Price:    Money{Amount: 499, Currency: "USD"},
			Interval: BillingIntervalMonthly,
			Grants: map[FeatureKey]Grant{
				FeatureScanQuota:         {Limit: 50, Refresh: RefreshDaily},
				FeatureFailedScanQuota:   {Limit: 10, Refresh: RefreshDaily},
				FeatureFollowupQuestions: {Limit: 25, Refresh: RefreshDaily},
				FeatureHistoryAccess:     {Limit: Unlimited, Refresh: RefreshNone},
				FeatureSavedMedications:  {Limit: 50, Refresh: RefreshNone},
				FeatureAdsEnabled:        {Value: 0},
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("entitlement: built-in catalog is invalid: %v", err))
	}
	return c
}

// Plan returns the plan for an ID, if known.
func (c *Catalog) Plan(id string) (Plan, bool) {
	p, ok := c.plans[id]
	return p, ok
}

// Plans returns all catalog plans keyed by ID. The returned map is a copy.
func (c *Catalog) Plans() map[string]Plan {
	return maps.Clone(c.plans)
}

// DefaultsFor returns a fresh set of quota records for a plan tier with all
// counters at zero. Unknown tiers fall back to the free tier so that a stale
// plan pointer never strips a user of their baseline entitlements.
func (c *Catalog) DefaultsFor(tier string) map[FeatureKey]QuotaRecord {
	p, ok := c.plans[tier]
	if !ok {
		p = c.plans[TierFree]
	}

	records := make(map[FeatureKey]QuotaRecord, len(p.Grants))
	for k, g := range p.Grants {
		if k.IsValue() {
			records[k] = QuotaRecord{Value: g.Value, Refresh: RefreshNone}
			continue
		}
		records[k] = QuotaRecord{Limit: g.Limit, Refresh: g.Refresh}
	}
	return records
}
