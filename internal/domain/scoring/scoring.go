// Package scoring turns judge events into score, combo, multiplier and health.
package scoring

import (
	"gonum.org/v1/gonum/stat"

	"github.com/okian/handbeat/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultBasePoints  = 100
	defaultGoodBonus   = 50
	defaultHitHeal     = 2
	defaultMissPenalty = 15
	MaxHealth          = 100
)

// Option applies a configuration option to the State.
type Option func(*State)

// WithPoints sets the base points per hit and the bonus for a good cut.
func WithPoints(base, goodBonus int) Option {
	return func(s *State) {
		if base > 0 && goodBonus >= 0 {
			s.basePoints = base
			s.goodBonus = goodBonus
		}
	}
}

// WithHealth sets how much health a hit restores and a miss costs.
func WithHealth(heal, penalty int) Option {
	return func(s *State) {
		if heal >= 0 && penalty > 0 {
			s.hitHeal = heal
			s.missPenalty = penalty
		}
	}
}

// Snapshot is a read-only copy of the live values.
type Snapshot struct {
	Score      int `json:"score"`
	Combo      int `json:"combo"`
	Multiplier int `json:"multiplier"`
	Health     int `json:"health"`
	MaxCombo   int `json:"max_combo"`
	Good       int `json:"good"`
	Weak       int `json:"weak"`
	Misses     int `json:"misses"`
}

// State is the score transducer for one session. It is written only by the
// game tick and is not safe for concurrent use.
type State struct {
	basePoints  int
	goodBonus   int
	hitHeal     int
	missPenalty int

	score      int
	combo      int
	multiplier int
	health     int
	maxCombo   int
	good       int
	weak       int
	misses     int
	defeated   bool
	offsets    []float64 // timing error of each hit, seconds
}

// NewState creates a full-health state with configuration options.
func NewState(opts ...Option) *State {
	s := &State{
		basePoints:  defaultBasePoints,
		goodBonus:   defaultGoodBonus,
		hitHeal:     defaultHitHeal,
		missPenalty: defaultMissPenalty,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.Reset()
	return s
}

// Reset starts a new session at full health.
func (s *State) Reset() {
	s.score = 0
	s.combo = 0
	s.multiplier = 1
	s.health = MaxHealth
	s.maxCombo = 0
	s.good, s.weak, s.misses = 0, 0, 0
	s.defeated = false
	s.offsets = s.offsets[:0]
}

// Multiplier maps a combo to its score multiplier.
func Multiplier(combo int) int {
	switch {
	case combo > 30:
		return 8
	case combo > 20:
		return 4
	case combo > 10:
		return 2
	default:
		return 1
	}
}

// Apply folds one judge event into the state and reports whether health is
// exhausted. Once defeated, further events are ignored until Reset.
func (s *State) Apply(e model.JudgeEvent) bool {
	if s.defeated {
		return true
	}
	switch e.Outcome {
	case model.Hit:
		s.hit(e)
	case model.Missed:
		s.miss()
	}
	return s.defeated
}

func (s *State) hit(e model.JudgeEvent) {
	s.combo++
	if s.combo > s.maxCombo {
		s.maxCombo = s.combo
	}
	s.multiplier = Multiplier(s.combo)

	points := s.basePoints
	if e.Quality == model.QualityGood {
		points += s.goodBonus
		s.good++
	} else {
		s.weak++
	}
	s.score += points * s.multiplier
	s.health = min(MaxHealth, s.health+s.hitHeal)

	if e.Note != nil {
		s.offsets = append(s.offsets, e.At-e.Note.Target.ArrivalTime)
	}
}

func (s *State) miss() {
	s.combo = 0
	s.multiplier = 1
	s.misses++
	s.health = max(0, s.health-s.missPenalty)
	if s.health == 0 {
		s.defeated = true
	}
}

// Defeated reports whether health has run out.
func (s *State) Defeated() bool { return s.defeated }

// Snapshot returns the current values.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Score:      s.score,
		Combo:      s.combo,
		Multiplier: s.multiplier,
		Health:     s.health,
		MaxCombo:   s.maxCombo,
		Good:       s.good,
		Weak:       s.weak,
		Misses:     s.misses,
	}
}

// Summary fills the tally fields of a session summary. Identity, outcome and
// timestamps are left to the caller.
func (s *State) Summary() model.Summary {
	sum := model.Summary{
		Score:    s.score,
		MaxCombo: s.maxCombo,
		Good:     s.good,
		Weak:     s.weak,
		Misses:   s.misses,
	}
	if judged := s.good + s.weak + s.misses; judged > 0 {
		sum.Accuracy = float64(s.good+s.weak) / float64(judged)
	}
	switch n := len(s.offsets); {
	case n == 1:
		sum.MeanOffset = s.offsets[0]
	case n > 1:
		sum.MeanOffset, sum.StdevOffset = stat.MeanStdDev(s.offsets, nil)
	}
	return sum
}
