package indicators

import (
	"position-engine/internal/models"
)

// EnsureBBI stores BBI computed from the closes when the series lacks it.
// It reports whether the column was computed. With too few rows the column is
// filled with NaN and ErrInsufficientData is returned.
func EnsureBBI(s *models.Series) (bool, error) {
	return ensure(s, models.IndicatorBBI, NewBBI())
}

// EnsureMACD stores the 12/26/9 MACD histogram when the series lacks it.
func EnsureMACD(s *models.Series) (bool, error) {
	return ensure(s, models.IndicatorMACD, NewMACD(12, 26, 9))
}

func ensure(s *models.Series, name string, ind Indicator) (bool, error) {
	if s.Len() == 0 || s.HasIndicator(name) {
		return false, nil
	}

	values, err := ind.Calculate(s.Closes())
	if err != nil {
		s.SetColumn(name, nanSlice(s.Len()))
		return true, err
	}
	s.SetColumn(name, values)
	return true, nil
}
