package app

// OutcomeKind tags the result of one trigger so callers branch on kind
// instead of matching error strings.
type OutcomeKind string

const (
	// Terminal results of an admitted run.
	OutcomeCompleted         OutcomeKind = "completed"
	OutcomeExtractionFailed  OutcomeKind = "extraction_failed"
	OutcomePersistenceFailed OutcomeKind = "persistence_failed"

	// Successful no-ops: the trigger was valid but processing is not due.
	OutcomeSkippedHint      OutcomeKind = "skipped_hint"
	OutcomeSkippedStatus    OutcomeKind = "skipped_status"
	OutcomeSkippedDuplicate OutcomeKind = "skipped_duplicate"

	// Admission rejections: nothing was mutated, no pipeline ran.
	OutcomeNotFound   OutcomeKind = "not_found"
	OutcomeBadRequest OutcomeKind = "bad_request"
)

// Outcome is the structured result reported back to the trigger source.
type Outcome struct {
	Kind       OutcomeKind
	ContractID string
	Message    string
	TextLength int
	Err        error
}

// Success reports whether the outcome is a non-error from the caller's view;
// skips count as successful no-ops.
func (o Outcome) Success() bool {
	switch o.Kind {
	case OutcomeCompleted, OutcomeSkippedHint, OutcomeSkippedStatus, OutcomeSkippedDuplicate:
		return true
	}
	return false
}
