package tracking

import (
	"sync/atomic"

	"github.com/okian/handbeat/internal/domain/model"
)

// Slots holds the most recent conditioned state of each hand.
//
// The conditioner is the only writer; any number of readers may call Snapshot
// concurrently. A write replaces the previous value outright, there is no
// queueing and readers never wait for a fresh sample.
type Slots struct {
	hands [model.HandSlots]atomic.Pointer[model.HandState]
}

// NewSlots returns slots with both hands untracked.
func NewSlots() *Slots {
	return &Slots{}
}

// Store publishes state for hand.
func (s *Slots) Store(hand model.Hand, state model.HandState) {
	if !hand.Valid() {
		return
	}
	s.hands[hand].Store(&state)
}

// Load returns the latest state for hand.
func (s *Slots) Load(hand model.Hand) model.HandState {
	if !hand.Valid() {
		return model.HandState{}
	}
	if p := s.hands[hand].Load(); p != nil {
		return *p
	}
	return model.HandState{}
}

// Snapshot returns the latest state of every hand.
func (s *Slots) Snapshot() model.HandsSnapshot {
	var out model.HandsSnapshot
	for _, h := range model.Hands {
		out[h] = s.Load(h)
	}
	return out
}

// Clear marks every hand untracked.
func (s *Slots) Clear() {
	for _, h := range model.Hands {
		s.hands[h].Store(nil)
	}
}
