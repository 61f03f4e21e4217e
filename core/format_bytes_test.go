package core

import "testing"

var bytesPerGBf = float64(BytesPerGB)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"negative treated as zero", -100, "0 B"},
		{"bytes", 512, "512 B"},
		{"exactly 1 KB", 1024, "1.00 KB"},
		{"1.5 KB", 1536, "1.50 KB"},
		{"exactly 1 MB", 1024 * 1024, "1.00 MB"},
		{"exactly 1 GB", 1024 * 1024 * 1024, "1.00 GB"},
		{"4.2 GB model", int64(4.2 * bytesPerGBf), "4.20 GB"},
		{"exactly 1 TB", 1024 * 1024 * 1024 * 1024, "1.00 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"1KB", "1KB", 1024, false},
		{"lowercase", "1kb", 1024, false},
		{"with space", "1.5 MB", 1572864, false},
		{"2GB", "2GB", 2 * BytesPerGB, false},
		{"fractional GB", "31.4GB", int64(31.4 * bytesPerGBf), false},
		{"bare bytes", "2048", 2048, false},
		{"explicit B", "100B", 100, false},
		{"empty", "", 0, true},
		{"garbage", "many bytes", 0, true},
		{"missing number", "GB", 0, true},
		{"negative", "-5MB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBytes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseBytes(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
