package entitlement

import "time"

// FeatureKey identifies one meterable capability. Keys are plan-independent:
// every plan grants every key, only limits differ.
type FeatureKey string

const (
	FeatureScanQuota         FeatureKey = "scan_quota"
	FeatureFailedScanQuota   FeatureKey = "failed_scan_quota"
	FeatureFollowupQuestions FeatureKey = "followup_questions"
	FeatureHistoryAccess     FeatureKey = "history_access"
	FeatureSavedMedications  FeatureKey = "saved_medications"
	FeatureAdsEnabled        FeatureKey = "ads_enabled"
)

// RefreshPeriod controls when a feature's used counter resets to zero.
type RefreshPeriod string

const (
	RefreshNone    RefreshPeriod = "none"
	RefreshDaily   RefreshPeriod = "daily"
	RefreshMonthly RefreshPeriod = "monthly"
)

const (
	// Unlimited indicates no limit for a feature (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// featureSpec defines the unit semantics of a feature key. The table is the
// single source of truth for which keys exist and whether they carry a
// counted quota or a boolean-style value.
type featureSpec struct {
	Refresh RefreshPeriod
	Value   bool // value-style flag rather than a limit/used counter
}

var featureSpecs = map[FeatureKey]featureSpec{
	FeatureScanQuota:         {Refresh: RefreshDaily},
	FeatureFailedScanQuota:   {Refresh: RefreshDaily},
	FeatureFollowupQuestions: {Refresh: RefreshDaily},
	FeatureHistoryAccess:     {Refresh: RefreshNone},
	FeatureSavedMedications:  {Refresh: RefreshNone},
	FeatureAdsEnabled:        {Refresh: RefreshNone, Value: true},
}

// Features returns all known feature keys in a stable order.
func Features() []FeatureKey {
	return []FeatureKey{
		FeatureScanQuota,
		FeatureFailedScanQuota,
		FeatureFollowupQuestions,
		FeatureHistoryAccess,
		FeatureSavedMedications,
		FeatureAdsEnabled,
	}
}

// Valid reports whether the key is part of the feature table.
func (k FeatureKey) Valid() bool {
	_, ok := featureSpecs[k]
	return ok
}

// IsValue reports whether the feature carries a boolean-style value instead
// of a limit/used counter. Value features are read directly from the
// snapshot; Permits does not apply to them.
func (k FeatureKey) IsValue() bool {
	return featureSpecs[k].Value
}

// DefaultRefresh returns the refresh period the feature table assigns to the key.
func (k FeatureKey) DefaultRefresh() RefreshPeriod {
	return featureSpecs[k].Refresh
}

// QuotaRecord is the limit/usage/refresh bundle for one feature.
//
// Used is monotonically non-decreasing within a period and reset only at a
// period boundary. Used may transiently exceed Limit under concurrent
// operations; evaluation treats used >= limit as the deny boundary however
// it was reached.
type QuotaRecord struct {
	Limit        int64
	Used         int64
	Refresh      RefreshPeriod
	PeriodAnchor time.Time
	Value        int64 // set only for value-style features
}

// Remaining returns how much quota is left, never negative.
// Returns Unlimited for unlimited records.
func (r QuotaRecord) Remaining() int64 {
	if r.Limit == Unlimited {
		return Unlimited
	}
	return max(0, r.Limit-r.Used)
}

// UsageInfo is the display shape for one feature's current usage.
type UsageInfo struct {
	Feature   FeatureKey    `json:"feature"`
	Used      int64         `json:"used"`
	Limit     int64         `json:"limit"`
	Remaining int64         `json:"remaining"`
	Refresh   RefreshPeriod `json:"refresh"`
}

// Snapshot is the entitlement view for one principal resolution. It is
// immutable from the caller's perspective and superseded by the next
// resolution of the same principal.
type Snapshot struct {
	principal  Principal
	planID     string
	resolvedAt time.Time
	records    map[FeatureKey]QuotaRecord
}

// NewSnapshot builds a snapshot from explicit records. The resolver is the
// normal producer; this constructor serves tests and offline evaluation.
func NewSnapshot(p Principal, planID string, resolvedAt time.Time, records map[FeatureKey]QuotaRecord) *Snapshot {
	rs := make(map[FeatureKey]QuotaRecord, len(records))
	for k, rec := range records {
		rs[k] = rec
	}
	return &Snapshot{principal: p, planID: planID, resolvedAt: resolvedAt, records: rs}
}

// Principal returns the principal the snapshot was resolved for.
func (s *Snapshot) Principal() Principal { return s.principal }

// PlanID returns the plan the snapshot was built from.
func (s *Snapshot) PlanID() string { return s.planID }

// ResolvedAt returns when the snapshot was produced.
func (s *Snapshot) ResolvedAt() time.Time { return s.resolvedAt }

// Record returns the quota record for a feature, if present.
func (s *Snapshot) Record(k FeatureKey) (QuotaRecord, bool) {
	rec, ok := s.records[k]
	return rec, ok
}

// Remaining returns the remaining quota for a feature, zero when the feature
// is absent from the snapshot.
func (s *Snapshot) Remaining(k FeatureKey) int64 {
	rec, ok := s.records[k]
	if !ok {
		return 0
	}
	return rec.Remaining()
}

// AdsEnabled reads the ad-display flag. Missing flag defaults to showing ads,
// matching the free-tier behavior.
func (s *Snapshot) AdsEnabled() bool {
	rec, ok := s.records[FeatureAdsEnabled]
	if !ok {
		return true
	}
	return rec.Value > 0
}

// Usage returns the display shape for every counted feature in the snapshot.
func (s *Snapshot) Usage() []UsageInfo {
	out := make([]UsageInfo, 0, len(s.records))
	for _, k := range Features() {
		rec, ok := s.records[k]
		if !ok || k.IsValue() {
			continue
		}
		out = append(out, UsageInfo{
			Feature:   k,
			Used:      rec.Used,
			Limit:     rec.Limit,
			Remaining: rec.Remaining(),
			Refresh:   rec.Refresh,
		})
	}
	return out
}
