package analysis

import (
	"fmt"

	apperrors "position-engine/internal/errors"
)

// DetectCross flags the rows where a crosses b in the given direction.
// Row 0 never fires. Equal values never fire on either side, and neither
// does a NaN on either row.
func DetectCross(a, b []float64, dir Direction) ([]bool, error) {
	if len(a) != len(b) {
		return nil, apperrors.NewValidationError("series", fmt.Sprintf("%d vs %d", len(a), len(b)), "series lengths differ")
	}

	flags := make([]bool, len(a))
	for i := 1; i < len(a); i++ {
		flags[i] = crossesAt(a, b, i, dir)
	}
	return flags, nil
}

// CrossEvents returns every crossing in either direction, in index order.
func CrossEvents(a, b []float64) ([]CrossEvent, error) {
	if len(a) != len(b) {
		return nil, apperrors.NewValidationError("series", fmt.Sprintf("%d vs %d", len(a), len(b)), "series lengths differ")
	}

	var events []CrossEvent
	for i := 1; i < len(a); i++ {
		switch {
		case crossesAt(a, b, i, CrossUnder):
			events = append(events, CrossEvent{Index: i, Direction: CrossUnder})
		case crossesAt(a, b, i, CrossOver):
			events = append(events, CrossEvent{Index: i, Direction: CrossOver})
		}
	}
	return events, nil
}

// crossesAt evaluates the strict sign-flip rule between rows i-1 and i.
// Comparisons against NaN are false, so missing values never fire.
func crossesAt(a, b []float64, i int, dir Direction) bool {
	prev := a[i-1] - b[i-1]
	curr := a[i] - b[i]
	switch dir {
	case CrossUnder:
		return prev > 0 && curr < 0
	case CrossOver:
		return prev < 0 && curr > 0
	}
	return false
}
