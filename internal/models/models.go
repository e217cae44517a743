// Package models provides domain models for the position engine.
package models

import (
	"math"
	"time"
)

// Indicator keys used in TradingRow.Indicators.
const (
	IndicatorBBI           = "bbi"
	IndicatorPCRPercentile = "pcr_percentile"
	IndicatorPCR           = "pcr"
	IndicatorAccumulation  = "accumulation"
	IndicatorAmplitude     = "amplitude"
	IndicatorChange        = "change"
	IndicatorMACD          = "macd"
)

// TradingRow is one trading period (a day or a week) of market data.
type TradingRow struct {
	Date       time.Time
	Close      float64
	Indicators map[string]float64
}

// Value returns the named indicator, or NaN when it is missing.
func (r TradingRow) Value(name string) float64 {
	if v, ok := r.Indicators[name]; ok {
		return v
	}
	return math.NaN()
}

// Series is an ordered, date-ascending sequence of trading rows.
// The sequence doubles as the trading calendar.
type Series struct {
	Name string
	Rows []TradingRow
	// Columns preserves the input header order for output.
	Columns []string
	// Raw holds the original cell text per row, keyed by header.
	Raw []map[string]string
}

// Len returns the number of rows.
func (s *Series) Len() int {
	return len(s.Rows)
}

// Dates returns the row dates in order.
func (s *Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.Rows))
	for i, r := range s.Rows {
		dates[i] = r.Date
	}
	return dates
}

// Closes returns the close prices in order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		closes[i] = r.Close
	}
	return closes
}

// Column returns the named indicator values in order.
func (s *Series) Column(name string) []float64 {
	values := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		values[i] = r.Value(name)
	}
	return values
}

// HasIndicator reports whether every row carries the named indicator.
func (s *Series) HasIndicator(name string) bool {
	if len(s.Rows) == 0 {
		return false
	}
	for _, r := range s.Rows {
		if _, ok := r.Indicators[name]; !ok {
			return false
		}
	}
	return true
}

// SetColumn stores values under the named indicator for every row.
func (s *Series) SetColumn(name string, values []float64) {
	for i := range s.Rows {
		if s.Rows[i].Indicators == nil {
			s.Rows[i].Indicators = make(map[string]float64)
		}
		if i < len(values) {
			s.Rows[i].Indicators[name] = values[i]
		}
	}
}

// Action represents a position action requested by a strategy.
type Action string

const (
	ActionNone Action = ""
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// ExecutionStatus describes what happened to a scheduled action.
type ExecutionStatus string

const (
	ExecutionApplied ExecutionStatus = "APPLIED"
	ExecutionClipped ExecutionStatus = "CLIPPED"
	ExecutionSkipped ExecutionStatus = "SKIPPED"
	ExecutionLost    ExecutionStatus = "LOST"
)

// Execution records one scheduled position change and its outcome.
type Execution struct {
	Strategy     string
	DetectedAt   time.Time
	ScheduledFor time.Time
	Action       Action
	Requested    float64
	Applied      float64
	Status       ExecutionStatus
	Reason       string
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
