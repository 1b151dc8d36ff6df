package entitlement

import "time"

// Period boundaries are computed in a fixed reference timezone so that a
// "daily" quota resets at the same wall-clock instant for every client.
var referenceLocation = time.UTC

// IsStale reports whether the record's used counter belongs to an earlier
// period than now and must be reset before evaluation or accounting.
func IsStale(rec QuotaRecord, now time.Time) bool {
	if rec.Refresh == RefreshNone || rec.Refresh == "" {
		return false
	}
	if rec.PeriodAnchor.IsZero() {
		return false
	}

	now = now.In(referenceLocation)
	anchor := rec.PeriodAnchor.In(referenceLocation)

	switch rec.Refresh {
	case RefreshDaily:
		ay, am, ad := anchor.Date()
		ny, nm, nd := now.Date()
		return ay != ny || am != nm || ad != nd
	case RefreshMonthly:
		return anchor.Year() != now.Year() || anchor.Month() != now.Month()
	default:
		return false
	}
}

// Reset zeroes the used counter and advances the period anchor to the start
// of now's period. Calling Reset twice within the same period yields the
// same record, so a second call is a no-op.
func Reset(rec QuotaRecord, now time.Time) QuotaRecord {
	rec.Used = 0
	rec.PeriodAnchor = PeriodStart(rec.Refresh, now)
	return rec
}

// PeriodStart returns the beginning of the period containing t for the given
// refresh policy. For RefreshNone it returns t truncated to the day, which
// only serves as a stable anchor.
func PeriodStart(p RefreshPeriod, t time.Time) time.Time {
	t = t.In(referenceLocation)
	switch p {
	case RefreshMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, referenceLocation)
	default:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, referenceLocation)
	}
}
