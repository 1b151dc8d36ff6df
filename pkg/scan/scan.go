package scan

import "context"

// Dosage holds the recommended dosage per age group.
type Dosage struct {
	Adults   string `json:"adults"`
	Teens    string `json:"teens"`
	Children string `json:"children"`
}

// Medicine is the structured result of one image classification.
type Medicine struct {
	Name           string   `json:"name"`
	Manufacturer   string   `json:"manufacturer"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	HowItWorks     string   `json:"howItWorks"`
	Dosage         Dosage   `json:"dosage"`
	Administration string   `json:"administration"`
	Precautions    []string `json:"precautions"`
}

// Classifier identifies a medicine from a JPEG image. Implementations wrap
// whatever recognition backend is in use; the quota engine treats the call
// as opaque.
type Classifier interface {
	Analyze(ctx context.Context, imageJPEG []byte) (Medicine, error)
}

// Answerer responds to a follow-up question about an identified medicine.
type Answerer interface {
	Ask(ctx context.Context, m Medicine, question string) (string, error)
}
