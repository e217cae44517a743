// Package indicators computes the baseline indicators the strategies consume
// when an input dataset does not already carry them. Warmup rows are NaN.
package indicators

import (
	"fmt"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(values []float64) ([]float64, error)
	Period() int
}

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Calculate(values []float64) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < s.period {
		return nil, ErrInsufficientData
	}

	result := nanSlice(len(values))
	for i := s.period - 1; i < len(values); i++ {
		result[i] = mean(values[i-s.period+1 : i+1])
	}
	return result, nil
}

// CalculateEMA calculates EMA on raw values, seeded with the SMA of the first
// period values after any leading NaNs.
func CalculateEMA(values []float64, period int) []float64 {
	start := firstValid(values)
	if period <= 0 || len(values)-start < period {
		return nil
	}

	result := nanSlice(len(values))
	multiplier := 2.0 / float64(period+1)

	seed := start + period - 1
	result[seed] = mean(values[start : seed+1])
	for i := seed + 1; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}
	return result
}

// BBI is the bull-and-bear index: the mean of four simple moving averages.
type BBI struct {
	periods [4]int
}

// NewBBI creates a BBI indicator with the conventional 3/6/12/24 periods.
func NewBBI() *BBI {
	return &BBI{periods: [4]int{3, 6, 12, 24}}
}

func (b *BBI) Name() string {
	return fmt.Sprintf("BBI_%d_%d_%d_%d", b.periods[0], b.periods[1], b.periods[2], b.periods[3])
}

func (b *BBI) Period() int {
	longest := 0
	for _, p := range b.periods {
		if p > longest {
			longest = p
		}
	}
	return longest
}

func (b *BBI) Calculate(values []float64) ([]float64, error) {
	if len(values) < b.Period() {
		return nil, ErrInsufficientData
	}

	averages := make([][]float64, 0, len(b.periods))
	for _, p := range b.periods {
		sma, err := NewSMA(p).Calculate(values)
		if err != nil {
			return nil, err
		}
		averages = append(averages, sma)
	}

	result := nanSlice(len(values))
	for i := b.Period() - 1; i < len(values); i++ {
		var total float64
		for _, avg := range averages {
			total += avg[i]
		}
		result[i] = total / float64(len(averages))
	}
	return result, nil
}

// MACD calculates the MACD histogram in the 2×(DIF−DEA) convention used by
// the weekly strategy's input data.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

func (m *MACD) Period() int {
	return m.slowPeriod + m.signalPeriod - 1
}

func (m *MACD) Calculate(values []float64) ([]float64, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < m.Period() {
		return nil, ErrInsufficientData
	}

	fastEMA := CalculateEMA(values, m.fastPeriod)
	slowEMA := CalculateEMA(values, m.slowPeriod)

	// DIF = fast EMA - slow EMA
	dif := nanSlice(len(values))
	for i := m.slowPeriod - 1; i < len(values); i++ {
		dif[i] = fastEMA[i] - slowEMA[i]
	}

	// DEA = EMA of DIF
	dea := CalculateEMA(dif, m.signalPeriod)
	if dea == nil {
		return nil, ErrInsufficientData
	}

	result := nanSlice(len(values))
	for i := m.Period() - 1; i < len(values); i++ {
		result[i] = 2 * (dif[i] - dea[i])
	}
	return result, nil
}
