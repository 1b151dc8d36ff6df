package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

func TestComparePlans(t *testing.T) {
	t.Parallel()

	catalog := entitlement.DefaultCatalog()
	free, _ := catalog.Plan(entitlement.TierFree)
	premium, _ := catalog.Plan(entitlement.TierPremium)

	t.Run("upgrade free to premium", func(t *testing.T) {
		t.Parallel()

		cmp := entitlement.ComparePlans(&free, &premium)
		require.NotNil(t, cmp)

		assert.Contains(t, cmp.IncreasedLimits, entitlement.FeatureScanQuota)
		assert.Contains(t, cmp.IncreasedLimits, entitlement.FeatureHistoryAccess)
		assert.Empty(t, cmp.DecreasedLimits)
		assert.Contains(t, cmp.LostFlags, entitlement.FeatureAdsEnabled)
		assert.False(t, cmp.HasDecreases() && len(cmp.DecreasedLimits) > 0)
	})

	t.Run("downgrade premium to free", func(t *testing.T) {
		t.Parallel()

		cmp := entitlement.ComparePlans(&premium, &free)
		require.NotNil(t, cmp)

		assert.Contains(t, cmp.DecreasedLimits, entitlement.FeatureScanQuota)
		assert.Contains(t, cmp.GainedFlags, entitlement.FeatureAdsEnabled)
		assert.True(t, cmp.HasDecreases())
	})

	t.Run("unlimited to limited counts as decrease", func(t *testing.T) {
		t.Parallel()

		cmp := entitlement.ComparePlans(&premium, &free)
		require.NotNil(t, cmp)

		change, ok := cmp.DecreasedLimits[entitlement.FeatureHistoryAccess]
		require.True(t, ok)
		assert.Equal(t, entitlement.Unlimited, change.From)
		assert.Equal(t, int64(3), change.To)
	})

	t.Run("same plan yields no changes", func(t *testing.T) {
		t.Parallel()

		cmp := entitlement.ComparePlans(&free, &free)
		require.NotNil(t, cmp)

		assert.Empty(t, cmp.IncreasedLimits)
		assert.Empty(t, cmp.DecreasedLimits)
		assert.Empty(t, cmp.GainedFlags)
		assert.Empty(t, cmp.LostFlags)
		assert.False(t, cmp.HasDecreases())
	})

	t.Run("nil plans", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, entitlement.ComparePlans(nil, &free))
		assert.Nil(t, entitlement.ComparePlans(&free, nil))
	})
}

func TestPlan_IsFree(t *testing.T) {
	t.Parallel()

	assert.True(t, entitlement.Plan{Interval: entitlement.BillingIntervalNone}.IsFree())
	assert.True(t, entitlement.Plan{Interval: entitlement.BillingIntervalMonthly}.IsFree())
	assert.False(t, entitlement.Plan{
		Interval: entitlement.BillingIntervalMonthly,
		Price:    entitlement.Money{Amount: 499, Currency: "USD"},
	}.IsFree())
}
