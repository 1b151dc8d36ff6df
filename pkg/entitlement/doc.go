// Package entitlement decides whether a principal may perform a metered
// operation, records its consumption, and reconciles locally-cached usage
// with an authoritative remote store.
//
// The package is built around a small pipeline that runs once per protected
// operation:
//
//	Resolve -> Evaluate -> Execute -> Account
//
// Key concepts:
//
//   - Principal: an anonymous session or an authenticated user a quota is
//     tracked against.
//   - FeatureKey: one meterable capability (scans, follow-up questions, ...).
//   - QuotaRecord: limit/used/refresh bundle for one feature.
//   - Snapshot: the full entitlement view for one principal resolution.
//   - Catalog: plan-driven defaults for every feature and tier.
//   - Gate: composes the pipeline around a caller-supplied operation and
//     applies the fail-open policy on resolution failures.
//
// Usage is tracked differently per principal kind. Anonymous principals keep
// their counters in a SessionStore only; that local state is the system of
// record. Authenticated principals are backed by a remote Store; the local
// SessionStore is a read-through mirror advanced only after the remote
// increment is acknowledged.
//
// Basic usage:
//
//	catalog := entitlement.DefaultCatalog()
//	resolver := entitlement.NewResolver(catalog, store, entitlement.NewMemorySessionStore())
//	accountant := entitlement.NewAccountant(store, resolver)
//	gate := entitlement.NewGate(resolver, accountant)
//
//	res, err := entitlement.Run(ctx, gate, principal, entitlement.FeatureScanQuota,
//		func(ctx context.Context) (scan.Medicine, error) {
//			return classifier.Analyze(ctx, image)
//		},
//		scan.Classify,
//	)
//	if !res.Decision.Permitted {
//		// quota exceeded, operation never ran
//	}
package entitlement
