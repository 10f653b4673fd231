package domain

// ClassificationStatus records whether classification ran to completion.
type ClassificationStatus string

const (
	// StatusCompleted means the email has a final classification, even if
	// that classification is the parse-failure fallback.
	StatusCompleted ClassificationStatus = "completed"

	// StatusPending means the completion service failed and the email
	// should be classified again later.
	StatusPending ClassificationStatus = "pending"
)

// IsValid returns true if the status is recognised.
func (s ClassificationStatus) IsValid() bool {
	return s == StatusCompleted || s == StatusPending
}

// String returns the string representation.
func (s ClassificationStatus) String() string {
	return string(s)
}

// Markers written into the summary of fallback classifications.
const (
	ParseFailedSummary = "Classification parse failed: could not read the model response"
	DeferredSummary    = "Classification deferred: completion service error"
)

// ClassificationOutcome tags how a classification result was produced.
type ClassificationOutcome string

const (
	// OutcomeClassified is a result decoded from the model response.
	OutcomeClassified ClassificationOutcome = "classified"

	// OutcomeParseFailed is the fallback for an unreadable model response.
	OutcomeParseFailed ClassificationOutcome = "parse_failed"

	// OutcomeDeferred is the fallback for a completion service failure.
	OutcomeDeferred ClassificationOutcome = "deferred"
)

// ClassificationResult is always fully populated.
type ClassificationResult struct {
	Category      string
	Subject       string
	Summary       string
	ExtractedDate *string
	Status        ClassificationStatus
	Outcome       ClassificationOutcome
}

// FallbackClassification builds the result used when the model could not
// classify an email. A deferred outcome is pending so it can be retried;
// any other outcome is final.
func FallbackClassification(outcome ClassificationOutcome) ClassificationResult {
	r := ClassificationResult{
		Category: CategoryUnclassified,
		Status:   StatusCompleted,
		Outcome:  outcome,
	}
	switch outcome {
	case OutcomeDeferred:
		r.Summary = DeferredSummary
		r.Status = StatusPending
	default:
		r.Outcome = OutcomeParseFailed
		r.Summary = ParseFailedSummary
	}
	return r
}

// ParseFailedClassification is the fallback for a malformed model response.
func ParseFailedClassification() ClassificationResult {
	return FallbackClassification(OutcomeParseFailed)
}

// DeferredClassification is the fallback for a completion service failure.
func DeferredClassification() ClassificationResult {
	return FallbackClassification(OutcomeDeferred)
}
