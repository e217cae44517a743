package trading

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	apperrors "position-engine/internal/errors"
)

// Rounding applied to a ledger's running total.
const (
	// Unrounded keeps the total at full decimal precision.
	Unrounded int32 = -1
	// PositionPlaces rounds the total to whole percent.
	PositionPlaces int32 = 2
)

// Ledger is one strategy's running position, clamped to [0, limit] and
// mutated strictly in row order.
type Ledger struct {
	name    string
	dates   []time.Time
	initial decimal.Decimal
	limit   decimal.Decimal
	places  int32
	total   decimal.Decimal
	deltas  []decimal.Decimal
	totals  []decimal.Decimal
}

// NewLedger creates a ledger over the given row dates. The initial position
// must lie within [0, limit]. A non-negative places rounds every total to
// that many decimal places; Unrounded keeps full precision.
func NewLedger(name string, dates []time.Time, initial, limit float64, places int32) (*Ledger, error) {
	if limit <= 0 {
		return nil, apperrors.NewValidationError(name+".position_limit", limit, "must be positive")
	}
	if initial < 0 || initial > limit {
		return nil, apperrors.NewValidationError(name+".initial_position", initial,
			fmt.Sprintf("must be between 0 and %.2f", limit))
	}

	start := roundTo(decimal.NewFromFloat(initial), places)
	return &Ledger{
		name:    name,
		dates:   dates,
		initial: start,
		limit:   decimal.NewFromFloat(limit),
		places:  places,
		total:   start,
		deltas:  make([]decimal.Decimal, 0, len(dates)),
		totals:  make([]decimal.Decimal, 0, len(dates)),
	}, nil
}

// Name returns the ledger name.
func (l *Ledger) Name() string {
	return l.name
}

// Dates returns the row dates the ledger is defined over.
func (l *Ledger) Dates() []time.Time {
	return l.dates
}

// Len returns the number of rows applied so far.
func (l *Ledger) Len() int {
	return len(l.totals)
}

// Apply adds delta at row i and returns the change actually applied after
// clamping. Row i must be the next unapplied row.
func (l *Ledger) Apply(i int, delta float64) (float64, error) {
	if i != len(l.totals) || i >= len(l.dates) {
		var date time.Time
		if i >= 0 && i < len(l.dates) {
			date = l.dates[i]
		}
		return 0, apperrors.NewLedgerError(l.name, i, date, apperrors.ErrOutOfOrder)
	}

	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0, apperrors.NewLedgerError(l.name, i, l.dates[i],
			apperrors.NewValidationError("delta", delta, "must be a finite number"))
	}

	next := roundTo(l.total.Add(decimal.NewFromFloat(delta)), l.places)
	if next.LessThan(decimal.Zero) {
		next = decimal.Zero
	}
	if next.GreaterThan(l.limit) {
		next = l.limit
	}

	applied := next.Sub(l.total)
	l.total = next
	l.deltas = append(l.deltas, applied)
	l.totals = append(l.totals, next)

	return applied.InexactFloat64(), nil
}

func roundTo(d decimal.Decimal, places int32) decimal.Decimal {
	if places < 0 {
		return d
	}
	return d.Round(places)
}

// Initial returns the position before row 0.
func (l *Ledger) Initial() float64 {
	return l.initial.InexactFloat64()
}

// Current returns the latest total.
func (l *Ledger) Current() float64 {
	return l.total.InexactFloat64()
}

// Delta returns the change applied at row i.
func (l *Ledger) Delta(i int) float64 {
	return l.deltas[i].InexactFloat64()
}

// Total returns the running total after row i. Row -1 is the initial position.
func (l *Ledger) Total(i int) float64 {
	if i < 0 {
		return l.Initial()
	}
	return l.totals[i].InexactFloat64()
}

// Deltas returns every applied change in row order.
func (l *Ledger) Deltas() []float64 {
	return toFloats(l.deltas)
}

// Totals returns every running total in row order.
func (l *Ledger) Totals() []float64 {
	return toFloats(l.totals)
}

func toFloats(ds []decimal.Decimal) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}
