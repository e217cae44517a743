// Package strategy implements the per-row signal state machines that turn a
// trading series into requested position changes.
package strategy

import (
	"time"

	"position-engine/internal/models"
)

// Strategy names, also used as ledger and output column prefixes.
const (
	NamePCRBBI       = "pcr_bbi"
	NameAmplitude    = "amplitude"
	NameWeekly       = "weekly"
	NameAccumulation = "accumulation"
)

// Strategy is a forward-only state machine advanced once per row.
type Strategy interface {
	Name() string
	// Step advances the machine to row i. Rows must be stepped in order,
	// starting at 0, and the caller applies the result before stepping i+1.
	Step(i int) StepResult
}

// StepResult is what a strategy asks for at one row.
type StepResult struct {
	// Delta is the position change requested by an executed action.
	Delta float64
	// Carry is a position change inherited from another ledger rather
	// than produced by an action of this strategy.
	Carry  float64
	Action models.Action
	// DetectedAt is the detection date of the executed action.
	DetectedAt time.Time
	Labels     map[string]string
	// Lost lists detections at this row whose execution date has no row.
	Lost []models.Execution
}

// Total returns the full position change to apply for the row.
func (r StepResult) Total() float64 {
	return r.Delta + r.Carry
}

func (r *StepResult) label(key, value string) {
	if r.Labels == nil {
		r.Labels = make(map[string]string)
	}
	r.Labels[key] = value
}

// LedgerView is read access to a position ledger that has already been
// applied up to the current row.
type LedgerView interface {
	Initial() float64
	Delta(i int) float64
	Total(i int) float64
}

func lost(strategy string, action models.Action, detected, scheduled time.Time, requested float64) models.Execution {
	return models.Execution{
		Strategy:     strategy,
		DetectedAt:   detected,
		ScheduledFor: scheduled,
		Action:       action,
		Requested:    requested,
		Status:       models.ExecutionLost,
		Reason:       "execution date not in dataset",
	}
}

func signed(action models.Action, size float64) float64 {
	if action == models.ActionSell {
		return -size
	}
	return size
}

const dateLayout = "2006-01-02"
