package model

import "time"

// TargetOutcome is the result of processing one target in a batch.
// Exactly one of Report or Backends is set, depending on whether the
// batch drove the enterprise pipeline or the asset-search dispatcher.
type TargetOutcome struct {
	// Target is the unit of work this outcome belongs to.
	Target Target `json:"target"`

	// Status is the terminal state of the run.
	Status Outcome `json:"status"`

	// Message is a readable one-line summary shown in progress output.
	Message string `json:"message,omitempty"`

	// Report holds the enterprise pipeline accumulator, if applicable.
	Report *OrgReport `json:"report,omitempty"`

	// Backends holds per-backend search results, if applicable.
	Backends map[string]*BackendResult `json:"backends,omitempty"`
}

// BatchReport is the aggregate, read-only outcome of one batch run.
// It is created once when the batch finishes and never mutated after.
type BatchReport struct {
	// Outcomes lists per-target results in submission order. Cancelled
	// batches contain only the targets that completed.
	Outcomes []TargetOutcome `json:"outcomes"`

	// Total is the number of targets submitted.
	Total int `json:"total"`

	// Done, Partial, and Failed count terminal states across outcomes.
	Done    int `json:"done"`
	Partial int `json:"partial"`
	Failed  int `json:"failed"`

	// Cancelled is true when the batch was interrupted between targets.
	Cancelled bool `json:"cancelled"`

	// StartedAt and FinishedAt bound the batch run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewBatchReport assembles the final report from collected outcomes.
func NewBatchReport(total int, outcomes []TargetOutcome, cancelled bool, startedAt time.Time) *BatchReport {
	r := &BatchReport{
		Outcomes:   outcomes,
		Total:      total,
		Cancelled:  cancelled,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeDone:
			r.Done++
		case OutcomePartial:
			r.Partial++
		case OutcomeFailed:
			r.Failed++
		}
	}
	return r
}

// ProgressEvent is one entry in the engine's one-way progress stream.
// The caller renders these however it likes; the engine never depends on
// a particular UI.
type ProgressEvent struct {
	// Index is the 1-based position of the target being processed.
	Index int `json:"index"`

	// Total is the number of targets in the batch.
	Total int `json:"total"`

	// Stage names the stage or backend currently running, when known.
	Stage string `json:"stage,omitempty"`

	// Message is a readable status line.
	Message string `json:"message"`
}
