package core

import (
	"errors"
	"testing"
	"time"
)

var errNotFound = errors.New("executable file not found in $PATH")

func TestOutcomeKindString(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeSuccess, "success"},
		{OutcomeFailure, "failure"},
		{OutcomeTimeout, "timeout"},
		{OutcomeKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("OutcomeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestOutcomeExitCode(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    int
	}{
		{"success", Outcome{Kind: OutcomeSuccess, Duration: time.Minute}, ExitCodeSuccess},
		{"failure", Outcome{Kind: OutcomeFailure, Err: ErrSubprocessFailure(3)}, ExitCodeError},
		{"timeout", Outcome{Kind: OutcomeTimeout, Err: ErrTimeout(2)}, ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
			if succeeded := tt.outcome.Succeeded(); succeeded != (tt.want == ExitCodeSuccess) {
				t.Errorf("Succeeded() = %v inconsistent with exit code %d", succeeded, tt.want)
			}
		})
	}
}

func TestExitCodeName(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitCodeSuccess, "success"},
		{ExitCodeError, "error"},
		{ExitCodeSIGINT, "interrupted (SIGINT)"},
		{ExitCodeSIGTERM, "terminated (SIGTERM)"},
		{42, "unknown"},
	}

	for _, tt := range tests {
		if got := ExitCodeName(tt.code); got != tt.want {
			t.Errorf("ExitCodeName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestIsSignalExit(t *testing.T) {
	if !IsSignalExit(ExitCodeSIGINT) || !IsSignalExit(ExitCodeSIGTERM) {
		t.Error("signal codes should report true")
	}
	if IsSignalExit(ExitCodeSuccess) || IsSignalExit(ExitCodeError) {
		t.Error("non-signal codes should report false")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      *BridgeError
		wantCode string
	}{
		{"unknown model", ErrUnknownModel("foo"), ErrCodeUnknownModel},
		{"spawn failure", ErrSpawnFailure("huggingface-cli", errNotFound), ErrCodeSpawnFailure},
		{"subprocess failure", ErrSubprocessFailure(3), ErrCodeSubprocessFailure},
		{"timeout", ErrTimeout(2), ErrCodeTimeout},
		{"canceled", ErrCanceled(), ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if got := GetErrorCode(tt.err); got != tt.wantCode {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.wantCode)
			}
			if _, ok := IsBridgeError(tt.err); !ok {
				t.Error("IsBridgeError() = false, want true")
			}
		})
	}

	if code := GetErrorCode(errNotFound); code != "" {
		t.Errorf("GetErrorCode(plain error) = %q, want empty", code)
	}
}
