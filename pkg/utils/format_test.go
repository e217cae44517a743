package utils

import (
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell   string
		want   float64
		wantOK bool
	}{
		{"1.25", 1.25, true},
		{" 95% ", 95, true},
		{"1,250.5", 1250.5, true},
		{"-0.5 %", -0.5, true},
		{"", math.NaN(), false},
		{"n/a", math.NaN(), false},
		{"%", math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := ParseNumber(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.cell, ok, tt.wantOK)
			}
			if !ok {
				if !math.IsNaN(got) {
					t.Errorf("ParseNumber(%q) = %v, want NaN", tt.cell, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0.7, "0.7"},
		{0.6000000000000001, "0.6"},
		{1, "1"},
		{-0.00001, "0"},
		{-0.15, "-0.15"},
		{math.NaN(), ""},
		{math.Inf(1), ""},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.value, 4); got != tt.want {
			t.Errorf("FormatNumber(%v, 4) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		value float64
		want  string
		delta string
	}{
		{0.7, "70%", "+70%"},
		{-0.1, "-10%", "-10%"},
		{0.155, "15.5%", "+15.5%"},
		{0, "0%", ""},
	}

	for _, tt := range tests {
		if got := FormatPosition(tt.value); got != tt.want {
			t.Errorf("FormatPosition(%v) = %q, want %q", tt.value, got, tt.want)
		}
		if got := FormatDelta(tt.value); got != tt.delta {
			t.Errorf("FormatDelta(%v) = %q, want %q", tt.value, got, tt.delta)
		}
	}
	if got := FormatPosition(math.NaN()); got != "-" {
		t.Errorf("FormatPosition(NaN) = %q, want -", got)
	}
}
