package judge

import (
	"math"

	"github.com/okian/handbeat/internal/domain/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Geometry fixes the playfield layout and the judgment thresholds.
type Geometry struct {
	ApproachSpeed   float64 // units per second toward the player
	SpawnDepth      float64
	JudgmentDepth   float64
	MissTolerance   float64 // depth past the plane after which a note is missed
	WindowBefore    float64 // hit-test window in front of the plane
	WindowAfter     float64 // hit-test window behind the plane
	CollisionRadius float64
	MinSwingSpeed   float64 // units per second for a good cut
	MinAlignment    float64 // dot product with the required direction for a good cut
	LaneX           [model.LaneCount]float64
	LayerY          [model.LayerCount]float64
}

// DefaultGeometry returns the stock playfield.
func DefaultGeometry() Geometry {
	return Geometry{
		ApproachSpeed:   10,
		SpawnDepth:      -40,
		JudgmentDepth:   0,
		MissTolerance:   2,
		WindowBefore:    1.5,
		WindowAfter:     1.0,
		CollisionRadius: 0.8,
		MinSwingSpeed:   1.5,
		MinAlignment:    0.3,
		LaneX:           [model.LaneCount]float64{-1.5, -0.5, 0.5, 1.5},
		LayerY:          [model.LayerCount]float64{0.8, 1.4, 2.0},
	}
}

// Lookahead is how long before arrival a target spawns: the travel time from
// spawn depth to the judgment plane.
func (g Geometry) Lookahead() float64 {
	if g.ApproachSpeed <= 0 {
		return 0
	}
	return math.Abs(g.SpawnDepth-g.JudgmentDepth) / g.ApproachSpeed
}

// Depth returns where a target arriving at arrival sits at playback time now.
// Depth grows toward and past the judgment plane as time advances.
func (g Geometry) Depth(arrival, now float64) float64 {
	return g.JudgmentDepth - (arrival-now)*g.ApproachSpeed
}

// Slot returns the world position of t at the given depth.
func (g Geometry) Slot(t model.Target, depth float64) r3.Vec {
	return r3.Vec{X: g.LaneX[clamp(t.Lane, model.LaneCount)], Y: g.LayerY[clamp(t.Layer, model.LayerCount)], Z: depth}
}

func clamp(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}
