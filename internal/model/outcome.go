package model

// Outcome is the terminal state of one target's collection run.
type Outcome string

const (
	// OutcomeDone means every stage ran successfully.
	OutcomeDone Outcome = "done"

	// OutcomePartial means discovery succeeded but at least one later
	// stage failed or was skipped. Collected fields are retained; failing
	// the whole run would discard already-obtained valid data.
	OutcomePartial Outcome = "partial"

	// OutcomeFailed means discovery never produced a usable identifier,
	// so no meaningful data could be collected.
	OutcomeFailed Outcome = "failed"
)

// StageStatus is the per-stage execution result.
type StageStatus string

const (
	// StageSuccess means the stage ran and its fields were merged.
	StageSuccess StageStatus = "success"

	// StageSkipped means the stage never ran, typically because a
	// required identifier from an earlier stage is missing.
	StageSkipped StageStatus = "skipped"

	// StageFailed means the stage ran and failed after exhausting its
	// retry budget.
	StageFailed StageStatus = "failed"
)

// StageOutcome records how one pipeline stage ended. Presence checks on
// the accumulator become exhaustive switches on Status.
type StageOutcome struct {
	// Stage is the stage name.
	Stage string `json:"stage"`

	// Status is the execution result.
	Status StageStatus `json:"status"`

	// Kind categorizes the failure for failed/skipped stages.
	Kind FailureKind `json:"kind,omitempty"`

	// Message is a readable description for failed/skipped stages.
	Message string `json:"message,omitempty"`

	// Attempts counts how many times the stage ran, including retries.
	Attempts int `json:"attempts,omitempty"`
}

// SucceededStage creates a success outcome for the named stage.
func SucceededStage(stage string, attempts int) StageOutcome {
	return StageOutcome{Stage: stage, Status: StageSuccess, Attempts: attempts}
}

// SkippedStage creates a skipped outcome with the reason recorded.
func SkippedStage(stage string, kind FailureKind, message string) StageOutcome {
	return StageOutcome{Stage: stage, Status: StageSkipped, Kind: kind, Message: message}
}

// FailedStage creates a failed outcome with the classified reason.
func FailedStage(stage string, kind FailureKind, message string, attempts int) StageOutcome {
	return StageOutcome{Stage: stage, Status: StageFailed, Kind: kind, Message: message, Attempts: attempts}
}
