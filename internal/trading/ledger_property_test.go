package trading

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any delta sequence the total stays within [0, limit] and
// every applied change equals the difference between consecutive totals.
func TestProperty_LedgerStaysInBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("total within bounds", prop.ForAll(
		func(initial float64, deltas []float64) bool {
			l, err := NewLedger("prop", dates("2020-01-01", len(deltas)), initial, 1, PositionPlaces)
			if err != nil {
				return false
			}
			prev := l.Initial()
			for i, d := range deltas {
				applied, err := l.Apply(i, d)
				if err != nil {
					return false
				}
				total := l.Total(i)
				if total < 0 || total > 1 {
					return false
				}
				if math.Abs(total-prev-applied) > 1e-9 {
					return false
				}
				prev = total
			}
			return true
		},
		gen.Float64Range(0, 1),
		gen.SliceOf(gen.Float64Range(-0.5, 0.5)),
	))

	properties.Property("combined total equals the sum of ledger totals", prop.ForAll(
		func(deltas []float64) bool {
			axis := dates("2020-01-01", len(deltas))
			a, _ := NewLedger("a", axis, 0.5, 1, PositionPlaces)
			b, _ := NewLedger("b", axis, 0.2, 1, Unrounded)
			for i, d := range deltas {
				a.Apply(i, d)
				b.Apply(i, -d)
			}
			c, err := Combine("sum", a, b)
			if err != nil {
				return false
			}
			for i := range deltas {
				if math.Abs(c.Totals[i]-(a.Total(i)+b.Total(i))) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-0.3, 0.3)),
	))

	properties.TestingRun(t)
}
