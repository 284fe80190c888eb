// Package timeline schedules chart targets against the playback clock.
//
// A Timeline owns a fresh table of notes per session; the caller's targets
// are copied on construction and never written to.
package timeline

import "github.com/okian/handbeat/internal/domain/model"

// Timeline admits targets in arrival order and tracks the ones still awaiting
// a judgment.
type Timeline struct {
	targets []model.Target
	notes   []*model.Note
	active  []*model.Note
	cursor  int // index of the next target to admit
}

// New builds a timeline over targets, which must be sorted by ArrivalTime.
// Admission order for unsorted input is undefined.
func New(targets []model.Target) *Timeline {
	t := &Timeline{targets: append([]model.Target(nil), targets...)}
	t.Reset()
	return t
}

// Reset discards all outcomes and rewinds admission to the first target.
func (t *Timeline) Reset() {
	t.notes = make([]*model.Note, len(t.targets))
	for i, target := range t.targets {
		t.notes[i] = model.NewNote(target, i)
	}
	t.active = t.active[:0]
	t.cursor = 0
}

// AdmitReachable activates every not-yet-admitted target whose spawn time
// (arrival - lookahead) has been reached and returns the newly active notes.
// The cursor only moves forward, so each target is examined once per session.
func (t *Timeline) AdmitReachable(now, lookahead float64) []*model.Note {
	start := t.cursor
	for t.cursor < len(t.notes) && now >= t.notes[t.cursor].Target.ArrivalTime-lookahead {
		t.cursor++
	}
	if t.cursor == start {
		return nil
	}
	admitted := t.notes[start:t.cursor:t.cursor]
	t.active = append(t.active, admitted...)
	return admitted
}

// Active returns the admitted notes that are still pending, in arrival order.
// Resolved notes are retired from the set as a side effect.
func (t *Timeline) Active() []*model.Note {
	kept := t.active[:0]
	for _, n := range t.active {
		if n.Pending() {
			kept = append(kept, n)
		}
	}
	// clear the tail so retired notes are not pinned by the backing array
	for i := len(kept); i < len(t.active); i++ {
		t.active[i] = nil
	}
	t.active = kept
	return t.active
}

// Notes returns every note of the session, in chart order.
func (t *Timeline) Notes() []*model.Note { return t.notes }

// Len returns the number of targets in the chart.
func (t *Timeline) Len() int { return len(t.targets) }

// Admitted returns how many targets have been admitted so far.
func (t *Timeline) Admitted() int { return t.cursor }

// Done reports whether every target has been admitted and resolved.
func (t *Timeline) Done() bool {
	return t.cursor == len(t.notes) && len(t.Active()) == 0
}
