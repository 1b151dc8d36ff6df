// Package meter exposes the quota engine over HTTP.
//
// The router mounts the gated operations (scan analysis, follow-up
// questions, medication saves) plus the read side (entitlement snapshots,
// plan listings) and the subscription lifecycle. Every request carries a
// principal: authenticated callers send X-User-ID, anonymous callers send
// X-Session-ID. A quota denial renders as HTTP 403 with the decision body
//
//	{"permitted": false, "feature": "scan_quota", "reason": "QUOTA_EXCEEDED"}
//
// so clients can distinguish a spent quota from a real failure.
package meter
