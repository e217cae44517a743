package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// closesGen generates a positive price path.
func closesGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.Float64Range(100.0, 1000.0)).Map(func(closes []float64) []float64 {
		for len(closes) < minLen {
			closes = append(closes, 100.0)
		}
		return closes
	})
}

// Property: BBI lies between the smallest and largest close of its longest window.
func TestProperty_BBIWithinWindowRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("BBI within window min/max", prop.ForAll(
		func(closes []float64) bool {
			bbi := NewBBI()
			values, err := bbi.Calculate(closes)
			if err != nil {
				return true
			}
			for i := 0; i < len(values); i++ {
				if i < bbi.Period()-1 {
					if !math.IsNaN(values[i]) {
						return false
					}
					continue
				}
				lo, hi := math.Inf(1), math.Inf(-1)
				for _, c := range closes[i-bbi.Period()+1 : i+1] {
					lo = math.Min(lo, c)
					hi = math.Max(hi, c)
				}
				if values[i] < lo-1e-9 || values[i] > hi+1e-9 {
					return false
				}
			}
			return true
		},
		closesGen(30, 80),
	))

	properties.TestingRun(t)
}

// Property: a constant series has a zero MACD histogram after warmup.
func TestProperty_MACDFlatSeries(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("flat prices give zero MACD", prop.ForAll(
		func(price float64, n int) bool {
			closes := make([]float64, n)
			for i := range closes {
				closes[i] = price
			}
			macd := NewMACD(12, 26, 9)
			values, err := macd.Calculate(closes)
			if err != nil {
				return false
			}
			for i := macd.Period() - 1; i < n; i++ {
				if math.Abs(values[i]) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1.0, 5000.0),
		gen.IntRange(34, 120),
	))

	properties.TestingRun(t)
}

func TestSMA(t *testing.T) {
	values, err := NewSMA(3).Calculate([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if !math.IsNaN(values[0]) || !math.IsNaN(values[1]) {
		t.Errorf("warmup rows should be NaN, got %v", values[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if values[i+2] != w {
			t.Errorf("SMA[%d] = %v, want %v", i+2, values[i+2], w)
		}
	}
}

func TestSMA_InvalidInput(t *testing.T) {
	if _, err := NewSMA(0).Calculate([]float64{1}); err != ErrInvalidPeriod {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := NewSMA(5).Calculate([]float64{1, 2}); err != ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMACD_RisingSeriesPositiveDIF(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*float64(i)*0.1
	}
	values, err := NewMACD(12, 26, 9).Calculate(closes)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	// An accelerating uptrend keeps DIF growing faster than its average.
	if last := values[len(values)-1]; last <= 0 {
		t.Errorf("expected positive histogram for accelerating uptrend, got %v", last)
	}
}
