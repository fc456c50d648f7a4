package domain

import "time"

// OutcomeKind enumerates the terminal outcomes of the enrichment pipeline.
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeSkippedNoTranscript
	OutcomeSkippedShortDuration
	OutcomePermanentFailure
	OutcomeTransientFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkippedNoTranscript:
		return "skipped_no_transcript"
	case OutcomeSkippedShortDuration:
		return "skipped_short_duration"
	case OutcomePermanentFailure:
		return "permanent_failure"
	case OutcomeTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Result is the pipeline's report for one item. Only the fields relevant to
// Kind are populated: Artifacts, ArtifactPath and Notified for completed
// items, Reason for failures.
type Result struct {
	Kind         OutcomeKind
	Artifacts    Artifacts
	ArtifactPath string
	Notified     bool
	Reason       error
}

// Completed reports a fully processed item.
func Completed(artifacts Artifacts, artifactPath string, notified bool) Result {
	return Result{Kind: OutcomeCompleted, Artifacts: artifacts, ArtifactPath: artifactPath, Notified: notified}
}

// SkippedNoTranscript reports an item with no usable transcript.
func SkippedNoTranscript() Result {
	return Result{Kind: OutcomeSkippedNoTranscript}
}

// SkippedShortDuration reports an item below the minimum duration.
func SkippedShortDuration() Result {
	return Result{Kind: OutcomeSkippedShortDuration}
}

// PermanentFailure reports a failure that would recur identically on retry.
func PermanentFailure(reason error) Result {
	return Result{Kind: OutcomePermanentFailure, Reason: reason}
}

// TransientFailure reports a failure a later run may not hit.
func TransientFailure(reason error) Result {
	return Result{Kind: OutcomeTransientFailure, Reason: reason}
}

// MarksProcessed reports whether the item id must enter the processed set.
func (r Result) MarksProcessed() bool {
	return r.Kind != OutcomeTransientFailure
}

// ItemOutcome ties a result to the item it was produced for.
type ItemOutcome struct {
	Item        Item
	ChannelName string
	Result      Result
}

// RunReport summarises one orchestrator pass.
type RunReport struct {
	RunID    string
	NewCount int
	Elapsed  time.Duration
	Outcomes []ItemOutcome
	// PersistenceErrors holds processed-set save failures that survived the
	// end-of-run retry.
	PersistenceErrors []error
}

// HasWarnings reports whether the run ended with unsaved processed state.
func (r RunReport) HasWarnings() bool {
	return len(r.PersistenceErrors) > 0
}
