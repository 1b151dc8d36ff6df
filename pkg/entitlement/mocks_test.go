package entitlement_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

// MockStore is a mock implementation of entitlement.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetPlan(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockStore) GetUsage(ctx context.Context, userID uuid.UUID) ([]entitlement.UsageRow, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entitlement.UsageRow), args.Error(1)
}

func (m *MockStore) IncrementUsage(ctx context.Context, userID uuid.UUID, feature entitlement.FeatureKey) (int64, error) {
	args := m.Called(ctx, userID, feature)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) IncrementFailedUsage(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ResetUsage(ctx context.Context, userID uuid.UUID, feature entitlement.FeatureKey, anchor time.Time) error {
	args := m.Called(ctx, userID, feature, anchor)
	return args.Error(0)
}

func (m *MockStore) SetPlan(ctx context.Context, userID uuid.UUID, planID string) error {
	args := m.Called(ctx, userID, planID)
	return args.Error(0)
}

func (m *MockStore) CancelPlan(ctx context.Context, userID uuid.UUID, immediate bool) error {
	args := m.Called(ctx, userID, immediate)
	return args.Error(0)
}

func (m *MockStore) ListPlans(ctx context.Context) ([]entitlement.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entitlement.Plan), args.Error(1)
}

// failingSessionStore returns the same error from every method, for
// exercising the resolver's degraded paths.
type failingSessionStore struct {
	err error
}

func (f failingSessionStore) Get(context.Context, string) (map[entitlement.FeatureKey]entitlement.Counter, error) {
	return nil, f.err
}

func (f failingSessionStore) Increment(context.Context, string, entitlement.FeatureKey, time.Time) (int64, error) {
	return 0, f.err
}

func (f failingSessionStore) Set(context.Context, string, entitlement.FeatureKey, entitlement.Counter) error {
	return f.err
}

func (f failingSessionStore) Clear(context.Context, string) error {
	return f.err
}
