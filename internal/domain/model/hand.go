package model

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// HandState is the conditioned state of one hand.
type HandState struct {
	Tracked   bool
	Position  r3.Vec // only meaningful when Tracked
	Velocity  r3.Vec // units per second; zero until a second sample
	SampledAt time.Time
}

// Speed returns the velocity magnitude.
func (h HandState) Speed() float64 { return r3.Norm(h.Velocity) }

// HandSlots is the size of a per-hand table indexed by Hand.
const HandSlots = 3

// HandsSnapshot holds one HandState per trackable hand.
type HandsSnapshot [HandSlots]HandState

// Get returns the state for hand; HandNone always reads untracked.
func (s HandsSnapshot) Get(hand Hand) HandState {
	if !hand.Valid() {
		return HandState{}
	}
	return s[hand]
}
