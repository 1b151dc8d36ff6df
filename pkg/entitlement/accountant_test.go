package entitlement_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

func newLocalResolver(t *testing.T) (*entitlement.Resolver, *entitlement.MemorySessionStore) {
	t.Helper()

	sessions := entitlement.NewMemorySessionStore(entitlement.WithCleanupInterval(0))
	t.Cleanup(func() { _ = sessions.Close() })

	r := entitlement.NewResolver(entitlement.DefaultCatalog(), nil, sessions,
		entitlement.WithClock(fixedClock))
	return r, sessions
}

func TestAccountant_Anonymous(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("recognized scan debits scan quota", func(t *testing.T) {
		t.Parallel()

		r, sessions := newLocalResolver(t)
		a := entitlement.NewAccountant(nil, r, entitlement.WithAccountantClock(fixedClock))
		p := entitlement.Anonymous("sess-acc-1")

		c, err := a.Account(ctx, p, entitlement.FeatureScanQuota, entitlement.OutcomeRecognized)
		require.NoError(t, err)
		assert.Equal(t, int64(1), c.Used)

		counters, err := sessions.Get(ctx, p.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(1), counters[entitlement.FeatureScanQuota].Used)
		assert.NotContains(t, counters, entitlement.FeatureFailedScanQuota)
	})

	t.Run("unrecognized scan debits failed counter only", func(t *testing.T) {
		t.Parallel()

		r, sessions := newLocalResolver(t)
		a := entitlement.NewAccountant(nil, r, entitlement.WithAccountantClock(fixedClock))
		p := entitlement.Anonymous("sess-acc-2")

		c, err := a.Account(ctx, p, entitlement.FeatureScanQuota, entitlement.OutcomeUnrecognized)
		require.NoError(t, err)
		assert.Equal(t, int64(1), c.Used)

		counters, err := sessions.Get(ctx, p.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(1), counters[entitlement.FeatureFailedScanQuota].Used)
		assert.NotContains(t, counters, entitlement.FeatureScanQuota)
	})

	t.Run("non-scan features ignore the outcome", func(t *testing.T) {
		t.Parallel()

		r, sessions := newLocalResolver(t)
		a := entitlement.NewAccountant(nil, r, entitlement.WithAccountantClock(fixedClock))
		p := entitlement.Anonymous("sess-acc-3")

		_, err := a.Account(ctx, p, entitlement.FeatureFollowupQuestions, entitlement.OutcomeUnrecognized)
		require.NoError(t, err)

		counters, err := sessions.Get(ctx, p.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(1), counters[entitlement.FeatureFollowupQuestions].Used)
	})

	t.Run("advances the cached snapshot", func(t *testing.T) {
		t.Parallel()

		r, _ := newLocalResolver(t)
		a := entitlement.NewAccountant(nil, r, entitlement.WithAccountantClock(fixedClock))
		p := entitlement.Anonymous("sess-acc-4")

		resolved, err := r.Resolve(ctx, p)
		require.NoError(t, err)

		_, err = a.Account(ctx, p, entitlement.FeatureScanQuota, entitlement.OutcomeRecognized)
		require.NoError(t, err)

		snap, ok := r.Cached(p)
		require.True(t, ok)
		rec, _ := snap.Record(entitlement.FeatureScanQuota)
		assert.Equal(t, int64(1), rec.Used)

		// The snapshot handed out by Resolve stays immutable; advancing the
		// cache swaps in a fresh copy instead of mutating it in place.
		assert.NotSame(t, resolved, snap)
		old, _ := resolved.Record(entitlement.FeatureScanQuota)
		assert.Equal(t, int64(0), old.Used)
	})

	t.Run("concurrent evaluation and accounting", func(t *testing.T) {
		t.Parallel()

		r, sessions := newLocalResolver(t)
		a := entitlement.NewAccountant(nil, r, entitlement.WithAccountantClock(fixedClock))
		p := entitlement.Anonymous("sess-acc-concurrent")

		snap, err := r.Resolve(ctx, p)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = entitlement.Permits(snap, entitlement.FeatureScanQuota, 1)
				if cached, ok := r.Cached(p); ok {
					_ = entitlement.Permits(cached, entitlement.FeatureScanQuota, 1)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, _ = a.Account(ctx, p, entitlement.FeatureScanQuota, entitlement.OutcomeRecognized)
			}
		}()
		wg.Wait()

		counters, err := sessions.Get(ctx, p.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(200), counters[entitlement.FeatureScanQuota].Used)
	})

	t.Run("session write failure reports accounting error", func(t *testing.T) {
		t.Parallel()

		r := entitlement.NewResolver(entitlement.DefaultCatalog(), nil,
			failingSessionStore{err: errors.New("boom")},
			entitlement.WithClock(fixedClock))
		a := entitlement.NewAccountant(nil, r, entitlement.WithAccountantClock(fixedClock))

		_, err := a.Account(ctx, entitlement.Anonymous("sess-acc-5"),
			entitlement.FeatureScanQuota, entitlement.OutcomeRecognized)
		assert.ErrorIs(t, err, entitlement.ErrAccountingFailed)
	})
}

func TestAccountant_Authenticated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	userID := uuid.New()
	p := entitlement.Authenticated(userID)

	t.Run("remote write first, mirror after ack", func(t *testing.T) {
		t.Parallel()

		sessions := entitlement.NewMemorySessionStore(entitlement.WithCleanupInterval(0))
		defer sessions.Close()

		store := new(MockStore)
		store.On("IncrementUsage", mock.Anything, userID, entitlement.FeatureScanQuota).
			Return(int64(7), nil)

		r := entitlement.NewResolver(entitlement.DefaultCatalog(), store, sessions,
			entitlement.WithClock(fixedClock))
		a := entitlement.NewAccountant(store, r, entitlement.WithAccountantClock(fixedClock))

		c, err := a.Account(ctx, p, entitlement.FeatureScanQuota, entitlement.OutcomeRecognized)
		require.NoError(t, err)
		assert.Equal(t, int64(7), c.Used)

		counters, err := sessions.Get(ctx, p.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(7), counters[entitlement.FeatureScanQuota].Used)

		store.AssertExpectations(t)
	})

	t.Run("unrecognized scan routes to the failed-scan write", func(t *testing.T) {
		t.Parallel()

		sessions := entitlement.NewMemorySessionStore(entitlement.WithCleanupInterval(0))
		defer sessions.Close()

		store := new(MockStore)
		store.On("IncrementFailedUsage", mock.Anything, userID).Return(int64(2), nil)

		r := entitlement.NewResolver(entitlement.DefaultCatalog(), store, sessions,
			entitlement.WithClock(fixedClock))
		a := entitlement.NewAccountant(store, r, entitlement.WithAccountantClock(fixedClock))

		c, err := a.Account(ctx, p, entitlement.FeatureScanQuota, entitlement.OutcomeUnrecognized)
		require.NoError(t, err)
		assert.Equal(t, int64(2), c.Used)

		store.AssertExpectations(t)
		store.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("remote failure leaves the mirror untouched", func(t *testing.T) {
		t.Parallel()

		sessions := entitlement.NewMemorySessionStore(entitlement.WithCleanupInterval(0))
		defer sessions.Close()

		store := new(MockStore)
		store.On("IncrementUsage", mock.Anything, userID, entitlement.FeatureScanQuota).
			Return(int64(0), errors.New("connection refused"))

		r := entitlement.NewResolver(entitlement.DefaultCatalog(), store, sessions,
			entitlement.WithClock(fixedClock))
		a := entitlement.NewAccountant(store, r, entitlement.WithAccountantClock(fixedClock))

		_, err := a.Account(ctx, p, entitlement.FeatureScanQuota, entitlement.OutcomeRecognized)
		assert.ErrorIs(t, err, entitlement.ErrAccountingFailed)

		counters, gerr := sessions.Get(ctx, p.Key())
		require.NoError(t, gerr)
		assert.Empty(t, counters)
	})
}

func TestAccountant_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r, _ := newLocalResolver(t)
	a := entitlement.NewAccountant(nil, r)

	t.Run("zero principal", func(t *testing.T) {
		t.Parallel()

		_, err := a.Account(ctx, entitlement.Principal{}, entitlement.FeatureScanQuota, entitlement.OutcomeRecognized)
		assert.ErrorIs(t, err, entitlement.ErrNoPrincipal)
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()

		_, err := a.Account(ctx, entitlement.Anonymous("s"), entitlement.FeatureKey("bogus"), entitlement.OutcomeRecognized)
		assert.ErrorIs(t, err, entitlement.ErrUnknownFeature)
	})

	t.Run("value feature has no counter", func(t *testing.T) {
		t.Parallel()

		_, err := a.Account(ctx, entitlement.Anonymous("s"), entitlement.FeatureAdsEnabled, entitlement.OutcomeRecognized)
		assert.ErrorIs(t, err, entitlement.ErrUnknownFeature)
	})
}
