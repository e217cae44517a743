package cli

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		d        time.Duration
		expected string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatDuration(tc.d); got != tc.expected {
				t.Errorf("FormatDuration(%v) = %s, want %s", tc.d, got, tc.expected)
			}
		})
	}
}

func TestFormatIndicator(t *testing.T) {
	if got := FormatIndicator(math.NaN()); got != "-" {
		t.Errorf("FormatIndicator(NaN) = %q, want -", got)
	}
	if got := FormatIndicator(1.234); got != "1.23" {
		t.Errorf("FormatIndicator(1.234) = %q, want 1.23", got)
	}
	if got := FormatIndicator(12.5); got != "12.5" {
		t.Errorf("FormatIndicator(12.5) = %q, want 12.5", got)
	}
	if got := FormatDate(time.Time{}); got != "-" {
		t.Errorf("FormatDate(zero) = %q, want -", got)
	}
}
