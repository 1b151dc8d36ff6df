// Package subscription manages a user's active plan pointer: listing
// subscribable plans, assigning one, and cancelling it. Payment execution is
// out of scope; the package only records plan selection against the remote
// entitlement store and invalidates the affected principal's cached snapshot
// so the next resolution picks up the new grants.
package subscription
