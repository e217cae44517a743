package trading

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "position-engine/internal/errors"
	"position-engine/internal/models"
)

// MaxCombined is the most ledgers Combine accepts.
const MaxCombined = 3

// Combined is the row-wise sum of several ledgers. It is not clamped.
type Combined struct {
	Name    string
	Sources []string
	Deltas  []float64
	Totals  []float64
}

// Combine sums the per-row deltas and totals of up to three ledgers that
// share one date axis.
func Combine(name string, ledgers ...*Ledger) (*Combined, error) {
	if len(ledgers) == 0 || len(ledgers) > MaxCombined {
		return nil, apperrors.NewValidationError("ledgers", len(ledgers),
			fmt.Sprintf("must combine between 1 and %d ledgers", MaxCombined))
	}

	base := ledgers[0]
	for _, l := range ledgers[1:] {
		if err := aligned(base, l); err != nil {
			return nil, err
		}
	}

	n := base.Len()
	deltas := make([]decimal.Decimal, n)
	totals := make([]decimal.Decimal, n)
	sources := make([]string, 0, len(ledgers))
	for _, l := range ledgers {
		sources = append(sources, l.Name())
		for i := 0; i < n; i++ {
			deltas[i] = deltas[i].Add(l.deltas[i])
			totals[i] = totals[i].Add(l.totals[i])
		}
	}

	return &Combined{
		Name:    name,
		Sources: sources,
		Deltas:  toFloats(deltas),
		Totals:  toFloats(totals),
	}, nil
}

func aligned(a, b *Ledger) error {
	if a.Len() != b.Len() {
		return fmt.Errorf("%w: %s has %d rows, %s has %d",
			apperrors.ErrMisaligned, a.Name(), a.Len(), b.Name(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if !models.SameDay(a.dates[i], b.dates[i]) {
			return fmt.Errorf("%w: %s and %s differ at row %d (%s vs %s)",
				apperrors.ErrMisaligned, a.Name(), b.Name(), i,
				a.dates[i].Format("2006-01-02"), b.dates[i].Format("2006-01-02"))
		}
	}
	return nil
}
