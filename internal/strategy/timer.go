package strategy

import (
	"time"

	"position-engine/internal/models"
)

// Timer is the trigger/expiry/pending state owned by one state machine.
// All changes go through the named transitions below.
type Timer struct {
	Anchor time.Time
	Count  int

	Armed    bool
	ArmedAt  time.Time
	ArmedIdx int

	Pending     models.Action
	PendingIdx  int
	PendingFrom time.Time
}

// NewTimer returns an idle timer anchored at anchor.
func NewTimer(anchor time.Time) *Timer {
	return &Timer{Anchor: anchor, ArmedIdx: -1, PendingIdx: -1}
}

// Hit records one qualifying observation and returns the new count.
func (t *Timer) Hit() int {
	t.Count++
	return t.Count
}

// Reanchor moves the anchor without touching the count.
func (t *Timer) Reanchor(at time.Time) {
	t.Anchor = at
}

// Reset clears the count and moves the anchor. Pending actions survive.
func (t *Timer) Reset(anchor time.Time) {
	t.Count = 0
	t.Anchor = anchor
}

// Arm starts the confirmation window at row idx.
func (t *Timer) Arm(at time.Time, idx int) {
	t.Armed = true
	t.ArmedAt = at
	t.ArmedIdx = idx
}

// Disarm closes the confirmation window and clears the count.
func (t *Timer) Disarm() {
	t.Armed = false
	t.ArmedAt = time.Time{}
	t.ArmedIdx = -1
	t.Count = 0
}

// HasPending reports whether an action is waiting for its execution row.
func (t *Timer) HasPending() bool {
	return t.Pending != models.ActionNone
}

// Schedule queues action for row idx. It refuses to overwrite an existing
// pending action unless replace is set.
func (t *Timer) Schedule(action models.Action, idx int, detected time.Time, replace bool) bool {
	if t.HasPending() && !replace {
		return false
	}
	t.Pending = action
	t.PendingIdx = idx
	t.PendingFrom = detected
	return true
}

// Due reports whether the pending action executes at row i.
func (t *Timer) Due(i int) bool {
	return t.HasPending() && t.PendingIdx == i
}

// Retire clears the pending action after execution or cancellation.
func (t *Timer) Retire() {
	t.Pending = models.ActionNone
	t.PendingIdx = -1
	t.PendingFrom = time.Time{}
}
