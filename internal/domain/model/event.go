package model

import (
	"fmt"
	"time"
)

// JudgeEvent is a single hit or miss decision.
type JudgeEvent struct {
	Note    *Note
	Outcome NoteState // Hit or Missed
	Quality Quality   // QualityNone for misses
	At      float64   // playback time of the decision
}

// Phase is a game lifecycle state.
type Phase uint8

// Phase values.
const (
	PhaseLoading Phase = iota
	PhaseIdle
	PhasePlaying
	PhaseGameOver
	PhaseVictory
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhaseGameOver:
		return "game_over"
	case PhaseVictory:
		return "victory"
	default:
		return "unknown"
	}
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	for p := PhaseLoading; p <= PhaseVictory; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// Terminal reports whether p ends a session.
func (p Phase) Terminal() bool { return p == PhaseGameOver || p == PhaseVictory }

// Transition describes a lifecycle state change.
type Transition struct {
	From, To Phase
	At       time.Time
	Err      error // set when a collaborator failure kept the game in From
}

// Summary is the final tally of a session.
type Summary struct {
	SessionID   string
	ChartID     string
	Outcome     Phase
	Score       int
	MaxCombo    int
	Good        int
	Weak        int
	Misses      int
	Accuracy    float64 // hits / judged notes, 0..1
	MeanOffset  float64 // seconds, hits only
	StdevOffset float64
	StartedAt   time.Time
	EndedAt     time.Time
}

// NotificationKind tags the payload of a Notification.
type NotificationKind uint8

// NotificationKind values.
const (
	KindJudgement NotificationKind = iota + 1
	KindTransition
)

// Notification is what the game publishes to its collaborators.
type Notification struct {
	Kind       NotificationKind
	SessionID  string
	Judgement  JudgeEvent
	Transition Transition
	Summary    *Summary // set on transitions into a terminal phase
}
