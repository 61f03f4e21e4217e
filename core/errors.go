package core

import (
	"errors"
	"fmt"
)

// BridgeError represents a download-job error with a stable code the calling
// application can branch on. The Code mirrors the failure taxonomy: unknown
// model, spawn failure, subprocess failure, timeout. Sampling errors are
// deliberately absent — they are recovered inside the progress monitor and
// never surface to the caller.
type BridgeError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
}

func (e *BridgeError) Error() string {
	return e.Message
}

// Error codes for download-job errors
const (
	ErrCodeUnknownModel      = "UNKNOWN_MODEL"
	ErrCodeSpawnFailure      = "SPAWN_FAILURE"
	ErrCodeSubprocessFailure = "SUBPROCESS_FAILURE"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeCanceled          = "CANCELED"
)

// ErrUnknownModel returns the fast-fail error for an identifier with no
// remote source mapping. No subprocess is spawned when this is returned.
func ErrUnknownModel(model string) *BridgeError {
	return &BridgeError{
		Code:    ErrCodeUnknownModel,
		Message: fmt.Sprintf("Unknown model %s", model),
	}
}

// ErrSpawnFailure returns an error for a download command that could not start.
func ErrSpawnFailure(command string, cause error) *BridgeError {
	return &BridgeError{
		Code:    ErrCodeSpawnFailure,
		Message: fmt.Sprintf("Failed to start %s: %v", command, cause),
	}
}

// ErrSubprocessFailure returns an error for a download command that exited nonzero.
func ErrSubprocessFailure(exitCode int) *BridgeError {
	return &BridgeError{
		Code:    ErrCodeSubprocessFailure,
		Message: fmt.Sprintf("Download failed with return code %d", exitCode),
	}
}

// ErrTimeout returns an error for a download that exceeded the wall-clock ceiling.
func ErrTimeout(hours float64) *BridgeError {
	return &BridgeError{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("Download timed out after %g hours", hours),
	}
}

// ErrCanceled returns an error for a download interrupted by signal or context
// cancellation before completion.
func ErrCanceled() *BridgeError {
	return &BridgeError{
		Code:    ErrCodeCanceled,
		Message: "Download canceled",
	}
}

// IsBridgeError checks if an error is a BridgeError and returns it if so.
func IsBridgeError(err error) (*BridgeError, bool) {
	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) {
		return bridgeErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a BridgeError.
func GetErrorCode(err error) string {
	if bridgeErr, ok := IsBridgeError(err); ok {
		return bridgeErr.Code
	}
	return ""
}
