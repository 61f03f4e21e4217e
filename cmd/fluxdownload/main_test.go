package main

import "testing"

func TestValidateModelArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"single model", []string{"schnell"}, "schnell", false},
		{"no arguments", []string{}, "", true},
		{"too many arguments", []string{"schnell", "dev"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateModelArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("validateModelArgs(%v) = %q, want error", tt.args, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateModelArgs(%v) unexpected error: %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("validateModelArgs(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
