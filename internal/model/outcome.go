package model

// OutcomeStatus distinguishes a single-business answer from a nearby-search answer.
type OutcomeStatus string

// Outcome status constants.
const (
	StatusSingle   OutcomeStatus = "single"
	StatusMultiple OutcomeStatus = "multiple"
)

// Outcome is the top-level answer to an address query. Exactly one of Result,
// Candidates or Error is populated.
type Outcome struct {
	Result     *ClassificationResult  `json:"result,omitempty"`
	Status     OutcomeStatus          `json:"status,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Candidates []ClassificationResult `json:"candidates,omitempty"`
}

// ErrorOutcome builds an outcome carrying only an error message.
func ErrorOutcome(msg string) Outcome {
	return Outcome{Error: msg}
}

// Failed reports whether the outcome carries an error instead of results.
func (o Outcome) Failed() bool {
	return o.Error != ""
}

// Results flattens the outcome into its classification results.
func (o Outcome) Results() []ClassificationResult {
	switch {
	case o.Result != nil:
		return []ClassificationResult{*o.Result}
	case len(o.Candidates) > 0:
		return o.Candidates
	default:
		return nil
	}
}
