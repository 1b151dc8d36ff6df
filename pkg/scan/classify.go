package scan

import (
	"strings"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

// Sentinel names the classifier emits instead of a medicine name when the
// image cannot be identified. The set is fixed by the classifier prompt;
// extending the prompt requires extending this list.
const (
	SentinelNotAvailable        = "Not Available"
	SentinelMultipleMedications = "More than one medication"
	SentinelNotAMedication      = "Not a medication"
)

var sentinels = map[string]struct{}{
	SentinelNotAvailable:        {},
	SentinelMultipleMedications: {},
	SentinelNotAMedication:      {},
}

// Classify maps a scan result onto the counter it debits. A sentinel name
// means the scan is unrecognized and debits the failed-scan counter instead
// of a successful-scan credit. An empty name is ambiguous backend state and
// also classifies as unrecognized, so ambiguity never costs real quota.
func Classify(m Medicine) entitlement.Outcome {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return entitlement.OutcomeUnrecognized
	}
	if _, ok := sentinels[name]; ok {
		return entitlement.OutcomeUnrecognized
	}
	return entitlement.OutcomeRecognized
}
