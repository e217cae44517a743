// Package analysis provides series-level signal detection: threshold crossings
// between two series and qualifying runs ("bands") of a per-row condition.
package analysis

import "fmt"

// Direction is the direction of a crossing of series A relative to series B.
type Direction string

const (
	// CrossUnder fires when A moves from above B to below B.
	CrossUnder Direction = "under"
	// CrossOver fires when A moves from below B to above B.
	CrossOver Direction = "over"
)

// CrossEvent marks the row at which a sign flip of A-B completed.
type CrossEvent struct {
	Index     int
	Direction Direction
}

// Band is a maximal run of consecutive qualifying rows, inclusive on both ends.
type Band struct {
	Start int
	End   int
}

// Len returns the number of rows in the band.
func (b Band) Len() int {
	return b.End - b.Start + 1
}

// Contains reports whether row i lies inside the band.
func (b Band) Contains(i int) bool {
	return i >= b.Start && i <= b.End
}

func (b Band) String() string {
	return fmt.Sprintf("[%d..%d]", b.Start, b.End)
}
