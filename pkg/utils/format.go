// Package utils provides shared utility functions.
package utils

import (
	"math"
	"strconv"
	"strings"
)

// FormatPosition formats a position fraction as a percentage of full size,
// e.g. 0.7 as "70%".
func FormatPosition(value float64) string {
	if math.IsNaN(value) {
		return "-"
	}
	return strconv.FormatFloat(math.Round(value*10000)/100, 'f', -1, 64) + "%"
}

// FormatDelta formats a signed position change, e.g. -0.1 as "-10%".
// Zero formats as an empty string.
func FormatDelta(value float64) string {
	if value == 0 || math.IsNaN(value) {
		return ""
	}
	s := FormatPosition(value)
	if value > 0 {
		return "+" + s
	}
	return s
}

// FormatNumber formats a value for CSV output with at most places decimals
// and no trailing zeros. NaN formats as an empty cell.
func FormatNumber(value float64, places int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	s := strconv.FormatFloat(value, 'f', places, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// ParseNumber parses a numeric cell, tolerating percent signs, thousands
// separators and surrounding spaces. "12.5%" parses as 12.5.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}
