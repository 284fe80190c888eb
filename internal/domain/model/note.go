package model

// NoteState is the judgment outcome of a single note.
type NoteState uint8

// NoteState values. Pending moves to Hit or Missed exactly once.
const (
	Pending NoteState = iota
	Hit
	Missed
)

func (s NoteState) String() string {
	switch s {
	case Hit:
		return "hit"
	case Missed:
		return "missed"
	default:
		return "pending"
	}
}

// Quality grades a successful hit.
type Quality uint8

// Quality values.
const (
	QualityNone Quality = iota
	QualityWeak
	QualityGood
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityWeak:
		return "weak"
	default:
		return "none"
	}
}

// Note is the per-session judgment record for one Target.
// The target itself is shared and never written to.
type Note struct {
	Target Target
	Index  int // position in the chart

	state    NoteState
	quality  Quality
	resolved float64 // playback time of the hit or miss
}

// NewNote returns a pending note for t.
func NewNote(t Target, index int) *Note {
	return &Note{Target: t, Index: index}
}

// State returns the current outcome.
func (n *Note) State() NoteState { return n.state }

// Quality returns the hit quality, QualityNone unless the note was hit.
func (n *Note) Quality() Quality { return n.quality }

// ResolvedAt returns the playback time at which the note was hit or missed.
func (n *Note) ResolvedAt() float64 { return n.resolved }

// Pending reports whether the note is still awaiting a judgment.
func (n *Note) Pending() bool { return n.state == Pending }

// Hit marks the note as hit. It returns false if the note was already resolved.
func (n *Note) Hit(at float64, q Quality) bool {
	if n.state != Pending {
		return false
	}
	n.state = Hit
	n.quality = q
	n.resolved = at
	return true
}

// Miss marks the note as missed. It returns false if the note was already resolved.
func (n *Note) Miss(at float64) bool {
	if n.state != Pending {
		return false
	}
	n.state = Missed
	n.resolved = at
	return true
}

// Offset is the timing error of a hit in seconds; negative means early.
func (n *Note) Offset() float64 {
	return n.resolved - n.Target.ArrivalTime
}
