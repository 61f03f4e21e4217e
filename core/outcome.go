package core

import "time"

// OutcomeKind is the terminal state of a download job.
type OutcomeKind int

const (
	// OutcomeSuccess means the download subprocess exited cleanly.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure means the job failed: unknown model, spawn failure,
	// nonzero subprocess exit, or an orchestration fault.
	OutcomeFailure
	// OutcomeTimeout means the subprocess was forcibly terminated after the
	// wall-clock ceiling elapsed.
	OutcomeTimeout
)

// String returns the lowercase name of the outcome kind, as recorded in the
// job journal.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of one download job. Exactly one
// Outcome is produced per job; the supervisor never returns a partial or
// ambiguous result.
type Outcome struct {
	// Kind is the terminal state
	Kind OutcomeKind
	// Err carries the failure or timeout cause (nil on success),
	// typically a *BridgeError
	Err error
	// Duration is the wall-clock time the job ran
	Duration time.Duration
	// BytesObserved is the last byte total sampled from the cache
	// directories (0 if no sample landed)
	BytesObserved int64
}

// Succeeded reports whether the job reached OutcomeSuccess.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// ExitCode maps the outcome to a process exit code: 0 for success, 1 for
// failure or timeout.
func (o Outcome) ExitCode() int {
	if o.Succeeded() {
		return ExitCodeSuccess
	}
	return ExitCodeError
}
