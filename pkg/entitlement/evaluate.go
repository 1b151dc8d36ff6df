package entitlement

// DenyReason classifies why an operation was not permitted. The single
// quota-exceeded reason is intentionally stable across all features so
// clients handle every denial uniformly.
type DenyReason string

const DenyQuotaExceeded DenyReason = "QUOTA_EXCEEDED"

// Decision is the outcome of a quota evaluation.
type Decision struct {
	Permitted bool       `json:"permitted"`
	Feature   FeatureKey `json:"feature"`
	Reason    DenyReason `json:"reason,omitempty"`
}

func permit(feature FeatureKey) Decision {
	return Decision{Permitted: true, Feature: feature}
}

func deny(feature FeatureKey) Decision {
	return Decision{Permitted: false, Feature: feature, Reason: DenyQuotaExceeded}
}

// Permits decides whether n more units of the feature may be consumed under
// the given snapshot. It is a pure function: no I/O, deterministic given its
// inputs.
//
// A missing record, a zero limit, or used+n exceeding the limit all deny.
// Usage at or above the limit denies regardless of how the counter got
// there; an Unlimited grant always permits. Value-style features have no
// spendable quota and always deny; read their value from the snapshot
// instead.
func Permits(s *Snapshot, feature FeatureKey, n int64) Decision {
	if s == nil || n <= 0 || feature.IsValue() {
		return deny(feature)
	}

	rec, ok := s.records[feature]
	if !ok {
		return deny(feature)
	}
	if rec.Limit == Unlimited {
		return permit(feature)
	}
	if rec.Limit == 0 || rec.Used+n > rec.Limit {
		return deny(feature)
	}
	return permit(feature)
}
