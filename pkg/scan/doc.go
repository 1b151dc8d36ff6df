// Package scan defines the medicine-identification boundary: the structured
// data a classifier returns, the sentinel values it uses to signal an
// unusable image, and the mapping from a scan result onto the quota counter
// it debits.
//
// The classifier itself is external; this package only specifies its
// interface and interprets its output.
package scan
