package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mediscan/quotakit/pkg/logger"
)

// Outcome classifies the result of a protected operation for accounting.
// A recognized outcome debits the feature's own counter; an unrecognized
// scan debits the distinct failed-scan counter so an unusable result never
// costs the user a successful-scan credit.
type Outcome string

const (
	OutcomeRecognized   Outcome = "recognized"
	OutcomeUnrecognized Outcome = "unrecognized"
)

// Accountant records consumption against feature counters. Writes route
// through the reconciliation rule: anonymous usage goes straight to the
// session store, authenticated usage goes to the remote store first and the
// local mirror advances only on acknowledgment.
type Accountant struct {
	store    Store
	sessions SessionStore
	resolver *Resolver
	log      *slog.Logger
	now      func() time.Time
}

// AccountantOption configures an Accountant.
type AccountantOption func(*Accountant)

// WithAccountantLogger sets the logger for accounting failures.
func WithAccountantLogger(l *slog.Logger) AccountantOption {
	return func(a *Accountant) {
		if l != nil {
			a.log = l
		}
	}
}

// WithAccountantClock overrides the time source.
func WithAccountantClock(now func() time.Time) AccountantOption {
	return func(a *Accountant) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAccountant creates an Accountant sharing the resolver's session store
// and snapshot cache. The store may be nil for local-only deployments.
func NewAccountant(store Store, resolver *Resolver, opts ...AccountantOption) *Accountant {
	if resolver == nil {
		panic("entitlement: Resolver is required")
	}

	a := &Accountant{
		store:    store,
		sessions: resolver.sessions,
		resolver: resolver,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// target maps a feature and outcome onto the counter the event debits.
func target(feature FeatureKey, outcome Outcome) FeatureKey {
	if feature == FeatureScanQuota && outcome == OutcomeUnrecognized {
		return FeatureFailedScanQuota
	}
	return feature
}

// Account records one consumption event and returns the updated counter
// state. On a remote write failure it returns an error wrapping
// ErrAccountingFailed and leaves the mirror untouched; the operation that
// triggered the event is never rolled back, accounting may simply lag.
func (a *Accountant) Account(ctx context.Context, p Principal, feature FeatureKey, outcome Outcome) (Counter, error) {
	if p.IsZero() {
		return Counter{}, ErrNoPrincipal
	}
	if !feature.Valid() || feature.IsValue() {
		return Counter{}, ErrUnknownFeature
	}

	tgt := target(feature, outcome)
	now := a.now().In(referenceLocation)
	anchor := PeriodStart(tgt.DefaultRefresh(), now)

	if p.IsAnonymous() || a.store == nil {
		used, err := a.sessions.Increment(ctx, p.Key(), tgt, anchor)
		if err != nil {
			return Counter{}, errors.Join(ErrAccountingFailed, err)
		}
		a.resolver.advance(p, tgt, used)
		return Counter{Used: used, PeriodAnchor: anchor}, nil
	}

	// Remote first: the mirror advances only after the store acknowledges.
	var used int64
	var err error
	if tgt == FeatureFailedScanQuota {
		used, err = a.store.IncrementFailedUsage(ctx, p.UserID())
	} else {
		used, err = a.store.IncrementUsage(ctx, p.UserID(), tgt)
	}
	if err != nil {
		return Counter{}, errors.Join(ErrAccountingFailed, err)
	}

	c := Counter{Used: used, PeriodAnchor: anchor}
	if serr := a.sessions.Set(ctx, p.Key(), tgt, c); serr != nil {
		a.log.WarnContext(ctx, "usage mirror update failed",
			logger.Principal(p.String()),
			logger.Feature(tgt),
			logger.Error(serr))
	}
	a.resolver.advance(p, tgt, used)
	return c, nil
}
