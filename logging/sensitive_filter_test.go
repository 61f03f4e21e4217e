package logging

import (
	"strings"
	"testing"
)

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantRedact bool
		keep       string
	}{
		{
			name:       "openai key",
			input:      "using key sk-proj-abcdefghij1234567890abcdef for fallback",
			wantRedact: true,
			keep:       "for fallback",
		},
		{
			name:       "huggingface token",
			input:      "auth with hf_AbCdEfGhIjKlMnOpQrStUvWx",
			wantRedact: true,
			keep:       "auth with",
		},
		{
			name:       "bearer token",
			input:      "header Bearer abcdefghijklmnopqrstuvwxyz.12345",
			wantRedact: true,
			keep:       "header",
		},
		{
			name:       "generic token assignment",
			input:      "env HF_TOKEN=supersecretvalue123 passed through",
			wantRedact: true,
			keep:       "passed through",
		},
		{
			name:       "plain message untouched",
			input:      "download complete for model schnell",
			wantRedact: false,
		},
		{
			name:       "short sk prefix untouched",
			input:      "skipping sk-test entry",
			wantRedact: false,
		},
		{
			name:       "empty string",
			input:      "",
			wantRedact: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactSensitiveData(tt.input)
			if tt.wantRedact {
				if !strings.Contains(got, RedactedPlaceholder) {
					t.Errorf("expected redaction in %q, got %q", tt.input, got)
				}
				if got == tt.input {
					t.Errorf("input passed through unredacted: %q", got)
				}
				if tt.keep != "" && !strings.Contains(got, tt.keep) {
					t.Errorf("redaction destroyed surrounding text: %q", got)
				}
			} else if got != tt.input {
				t.Errorf("non-sensitive input modified: %q -> %q", tt.input, got)
			}
		})
	}
}

func TestRedactSensitiveDataMultiple(t *testing.T) {
	input := "keys: sk-proj-abcdefghij1234567890abcdef and hf_AbCdEfGhIjKlMnOpQrStUvWx"
	got := RedactSensitiveData(input)
	if strings.Count(got, RedactedPlaceholder) != 2 {
		t.Errorf("expected both credentials redacted, got %q", got)
	}
}
