package moderation

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Duration
		wantOK bool
	}{
		{"compound", "1d2h30m", 86400*time.Second + 2*time.Hour + 30*time.Minute, true},
		{"seconds", "45s", 45 * time.Second, true},
		{"weeks", "2w", 14 * 24 * time.Hour, true},
		{"uppercase units", "1H30M", 90 * time.Minute, true},
		{"spaces between tokens", "1h 15m", 75 * time.Minute, true},
		{"repeated unit adds up", "10m10m", 20 * time.Minute, true},
		{"garbage around tokens", "abc5mxyz", 5 * time.Minute, true},
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"no tokens", "abc", 0, false},
		{"number without unit", "30", 0, false},
		{"zero total", "0h0m", 0, false},
		{"unknown unit", "5y", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDuration(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDuration(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDurationOverflow(t *testing.T) {
	got, ok := ParseDuration("99999999999999999999w1s")
	if !ok {
		t.Fatal("expected the in-range token to be kept")
	}
	if got != time.Second {
		t.Errorf("ParseDuration overflow = %v, want 1s", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(0); got != "Permanent" {
		t.Errorf("FormatDuration(0) = %q, want Permanent", got)
	}
	if got := FormatDuration(-time.Second); got != "Permanent" {
		t.Errorf("FormatDuration(-1s) = %q, want Permanent", got)
	}
	if got := FormatSeconds(3600); got != "1 hour" {
		t.Errorf("FormatSeconds(3600) = %q, want %q", got, "1 hour")
	}
	if got := FormatDuration(90 * time.Minute); got != "1 hour 30 minutes" {
		t.Errorf("FormatDuration(90m) = %q, want %q", got, "1 hour 30 minutes")
	}
}
