package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mediscan/quotakit/pkg/logger"
)

// Resolver produces the current entitlement snapshot for a principal.
//
// For anonymous principals the session store is the system of record. For
// authenticated principals the remote store is authoritative: a successful
// fetch overwrites the local mirror, while a failed fetch falls back to the
// free-tier defaults merged with whatever usage the mirror already knows, so
// usage the client has seen is never dropped.
type Resolver struct {
	catalog  *Catalog
	store    Store // nil in local-only deployments
	sessions SessionStore
	log      *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for non-fatal resolution noise.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the time source, used by tests to pin period boundaries.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a Resolver. The catalog and session store are
// required; the remote store may be nil for deployments that meter anonymous
// sessions only.
func NewResolver(catalog *Catalog, store Store, sessions SessionStore, opts ...ResolverOption) *Resolver {
	if catalog == nil {
		panic("entitlement: Catalog is required")
	}
	if sessions == nil {
		panic("entitlement: SessionStore is required")
	}

	r := &Resolver{
		catalog:   catalog,
		store:     store,
		sessions:  sessions,
		log:       slog.Default(),
		now:       time.Now,
		snapshots: make(map[string]*Snapshot),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the principal's current snapshot, normalizing stale
// counters on the way, and caches it for subsequent evaluate/account calls
// within the same logical turn.
//
// When the remote store cannot be reached for an authenticated principal,
// Resolve still returns a usable fallback snapshot together with an error
// wrapping ErrResolutionFailed; callers decide whether to fail open.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (*Snapshot, error) {
	if p.IsZero() {
		return nil, ErrNoPrincipal
	}

	now := r.now().In(referenceLocation)

	if p.IsAnonymous() {
		snap := r.localSnapshot(ctx, p, TierAnonymous, now)
		r.cache(snap)
		return snap, nil
	}
	if r.store == nil {
		snap := r.localSnapshot(ctx, p, TierFree, now)
		r.cache(snap)
		return snap, nil
	}

	planID, err := r.store.GetPlan(ctx, p.UserID())
	if err == nil {
		var rows []UsageRow
		if rows, err = r.store.GetUsage(ctx, p.UserID()); err == nil {
			snap := r.remoteSnapshot(ctx, p, planID, rows, now)
			r.cache(snap)
			return snap, nil
		}
	}

	// Remote failure: serve free-tier defaults with locally mirrored usage
	// preserved, and report the failure to the caller.
	snap := r.localSnapshot(ctx, p, TierFree, now)
	r.cache(snap)
	return snap, errors.Join(ErrResolutionFailed, err)
}

// Cached returns the last resolved snapshot for the principal, if any.
func (r *Resolver) Cached(p Principal) (*Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[p.Key()]
	return snap, ok
}

// Invalidate drops the cached snapshot for a principal, forcing the next
// Resolve to rebuild it. Called on plan changes and explicit reloads.
func (r *Resolver) Invalidate(p Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, p.Key())
}

// remoteSnapshot builds an authoritative snapshot from remote rows. Catalog
// defaults fill any feature the remote store does not know yet.
func (r *Resolver) remoteSnapshot(ctx context.Context, p Principal, planID string, rows []UsageRow, now time.Time) *Snapshot {
	records := r.catalog.DefaultsFor(planID)

	for _, row := range rows {
		if !row.Feature.Valid() {
			r.log.DebugContext(ctx, "skipping unknown remote feature",
				logger.Feature(row.Feature))
			continue
		}
		if row.Feature.IsValue() {
			records[row.Feature] = QuotaRecord{Value: row.Limit, Refresh: RefreshNone}
			continue
		}
		records[row.Feature] = QuotaRecord{
			Limit:        row.Limit,
			Used:         row.Used,
			Refresh:      row.Refresh,
			PeriodAnchor: row.PeriodAnchor,
		}
	}

	for k, rec := range records {
		if k.IsValue() {
			continue
		}
		if rec.PeriodAnchor.IsZero() {
			rec.PeriodAnchor = PeriodStart(rec.Refresh, now)
			records[k] = rec
		}
		if IsStale(rec, now) {
			rec = Reset(rec, now)
			records[k] = rec
			if err := r.store.ResetUsage(ctx, p.UserID(), k, rec.PeriodAnchor); err != nil {
				r.log.ErrorContext(ctx, "remote usage reset failed",
					logger.Principal(p.String()),
					logger.Feature(k),
					logger.Error(err))
			}
		}
		// Remote is authoritative: overwrite the local mirror.
		if err := r.sessions.Set(ctx, p.Key(), k, Counter{Used: rec.Used, PeriodAnchor: rec.PeriodAnchor}); err != nil {
			r.log.WarnContext(ctx, "usage mirror update failed",
				logger.Principal(p.String()),
				logger.Feature(k),
				logger.Error(err))
		}
	}

	return &Snapshot{principal: p, planID: planID, resolvedAt: now, records: records}
}

// localSnapshot builds a snapshot from catalog defaults merged with the
// session store's counters.
func (r *Resolver) localSnapshot(ctx context.Context, p Principal, tier string, now time.Time) *Snapshot {
	records := r.catalog.DefaultsFor(tier)

	counters, err := r.sessions.Get(ctx, p.Key())
	if err != nil {
		r.log.WarnContext(ctx, "session usage read failed",
			logger.Principal(p.String()),
			logger.Error(err))
		counters = map[FeatureKey]Counter{}
	}

	for k, rec := range records {
		if k.IsValue() {
			continue
		}
		if c, ok := counters[k]; ok {
			rec.Used = c.Used
			rec.PeriodAnchor = c.PeriodAnchor
		}
		if rec.PeriodAnchor.IsZero() {
			rec.PeriodAnchor = PeriodStart(rec.Refresh, now)
		}
		if IsStale(rec, now) {
			rec = Reset(rec, now)
			if err := r.sessions.Set(ctx, p.Key(), k, Counter{Used: 0, PeriodAnchor: rec.PeriodAnchor}); err != nil {
				r.log.WarnContext(ctx, "session usage reset failed",
					logger.Principal(p.String()),
					logger.Feature(k),
					logger.Error(err))
			}
		}
		records[k] = rec
	}

	return &Snapshot{principal: p, planID: tier, resolvedAt: now, records: records}
}

func (r *Resolver) cache(snap *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.principal.Key()] = snap
}

// advance replaces the cached snapshot with a copy carrying the acknowledged
// used counter so callers within the same turn see consistent numbers.
// Snapshots already handed out are never mutated; concurrent readers keep
// the version they resolved.
func (r *Resolver) advance(p Principal, feature FeatureKey, used int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.snapshots[p.Key()]
	if !ok {
		return
	}
	rec, ok := snap.records[feature]
	if !ok {
		return
	}
	rec.Used = used

	records := make(map[FeatureKey]QuotaRecord, len(snap.records))
	for k, v := range snap.records {
		records[k] = v
	}
	records[feature] = rec

	r.snapshots[p.Key()] = &Snapshot{
		principal:  snap.principal,
		planID:     snap.planID,
		resolvedAt: snap.resolvedAt,
		records:    records,
	}
}
