package core

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Status tokens emitted on stdout. The stream is line-oriented and parsed by
// the calling application, so the literals here are a wire contract — do not
// reword them.
const (
	TokenDownloadStart    = "DOWNLOAD_START"
	TokenDownloadComplete = "DOWNLOAD_COMPLETE"
	TokenDownloadError    = "DOWNLOAD_ERROR"
	TokenProgress         = "PROGRESS"
)

// Emitter writes the line-oriented status token stream for one download job.
//
// Guarantees enforced here rather than trusted to callers:
//   - Progress fractions are strictly increasing; a regression (directory
//     cleared mid-job) is swallowed, not emitted.
//   - Exactly one terminal token (DOWNLOAD_COMPLETE or DOWNLOAD_ERROR) is
//     written; progress arriving after it is dropped, so the terminal token
//     is always the last state change the consumer sees.
//
// Emitter is safe for concurrent use: the supervisor and the progress
// monitor write from separate goroutines.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer

	// last emitted fraction, for monotonic de-duplication
	lastFraction float64
	terminal     bool
}

// NewEmitter creates an Emitter writing to w (os.Stdout in production,
// a buffer in tests).
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w, lastFraction: -1}
}

// Start writes the DOWNLOAD_START token and the human-readable model line.
func (e *Emitter) Start(model string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintln(e.w, TokenDownloadStart)
	fmt.Fprintf(e.w, "Downloading model: %s\n", model)
}

// Info writes a human-readable progress narration line (kept for parity with
// what the app already parses around the tokens).
func (e *Emitter) Info(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminal {
		return
	}
	fmt.Fprintln(e.w, msg)
}

// Progress writes a PROGRESS line with two decimal places. The line is
// emitted only when fraction strictly exceeds the last emitted value and the
// job has not reached a terminal state. Returns true if a line was written.
func (e *Emitter) Progress(fraction float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminal || fraction <= e.lastFraction {
		return false
	}
	fmt.Fprintf(e.w, "%s: %.2f\n", TokenProgress, fraction)
	e.lastFraction = fraction
	return true
}

// Complete writes the final PROGRESS: 1.00 line followed by the
// DOWNLOAD_COMPLETE terminal token. Subsequent emissions are no-ops.
func (e *Emitter) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminal {
		return
	}
	fmt.Fprintf(e.w, "%s: 1.00\n", TokenProgress)
	fmt.Fprintln(e.w, TokenDownloadComplete)
	e.lastFraction = 1.0
	e.terminal = true
}

// Fail writes the DOWNLOAD_ERROR terminal token with a message, optionally
// followed by the captured subprocess streams. Subsequent emissions are
// no-ops.
func (e *Emitter) Fail(msg string, stdout, stderr string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.terminal {
		return
	}
	e.terminal = true
	fmt.Fprintf(e.w, "%s: %s\n", TokenDownloadError, msg)
	if s := strings.TrimSpace(stdout); s != "" {
		fmt.Fprintf(e.w, "STDOUT: %s\n", s)
	}
	if s := strings.TrimSpace(stderr); s != "" {
		fmt.Fprintf(e.w, "STDERR: %s\n", s)
	}
}

// LastFraction returns the most recently emitted progress fraction,
// or a negative value if none has been emitted yet.
func (e *Emitter) LastFraction() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFraction
}

// Terminal reports whether a terminal token has been written.
func (e *Emitter) Terminal() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminal
}
