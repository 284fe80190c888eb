// Package tracking turns raw per-frame hand detections into smoothed world
// positions and velocities.
//
// Detections arrive at the detector's own cadence, unrelated to the game tick.
// The Conditioner is driven from that cadence and publishes into Slots, which
// the game reads without blocking.
package tracking

import (
	"math"
	"time"

	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/pkg/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Default conditioning parameters.
const (
	DefaultSmoothing     = 0.6 // weight of the new sample
	DefaultMinDelta      = time.Millisecond
	DefaultMinConfidence = 0.5
)

// Detection is one hand landmark reported by the detector for a single cycle.
type Detection struct {
	Hand       model.Hand `msgpack:"hand"`
	Confidence float64    `msgpack:"conf"`
	X          float64    `msgpack:"x"` // normalised 0..1, left to right
	Y          float64    `msgpack:"y"` // normalised 0..1, top to bottom
}

// track is the conditioner's private per-hand history. It survives detection
// gaps so the next velocity spans the real elapsed time.
type track struct {
	seen     bool
	smoothed r3.Vec
	velocity r3.Vec
	last     time.Time
}

// Option applies a configuration option to the Conditioner.
type Option func(*Conditioner)

// WithSmoothing sets the blend factor toward each new sample, in (0, 1].
func WithSmoothing(alpha float64) Option {
	return func(c *Conditioner) {
		if alpha > 0 && alpha <= 1 {
			c.smoothing = alpha
		}
	}
}

// WithMinDelta sets the smallest sample spacing for which velocity is updated.
func WithMinDelta(d time.Duration) Option {
	return func(c *Conditioner) {
		if d > 0 {
			c.minDelta = d
		}
	}
}

// WithMinConfidence sets the classification score below which a detection is ignored.
func WithMinConfidence(score float64) Option {
	return func(c *Conditioner) {
		if score >= 0 {
			c.minConfidence = score
		}
	}
}

// WithProjection sets the image-to-world mapping.
func WithProjection(p Projection) Option {
	return func(c *Conditioner) {
		c.projection = p
	}
}

// Conditioner smooths detections and derives velocities. Ingest and Reset must
// be called from a single goroutine; Snapshot is safe from any goroutine.
type Conditioner struct {
	slots         *Slots
	tracks        [model.HandSlots]track
	projection    Projection
	smoothing     float64
	minDelta      time.Duration
	minConfidence float64
}

// NewConditioner creates a conditioner with configuration options.
func NewConditioner(opts ...Option) *Conditioner {
	c := &Conditioner{
		slots:         NewSlots(),
		projection:    DefaultProjection(),
		smoothing:     DefaultSmoothing,
		minDelta:      DefaultMinDelta,
		minConfidence: DefaultMinConfidence,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ingest applies one detector cycle observed at the given wall-clock time.
// Hands missing from detections are published as untracked. When a cycle
// reports the same hand twice, the later detection wins.
func (c *Conditioner) Ingest(detections []Detection, at time.Time) {
	var (
		present [model.HandSlots]bool
		raw     [model.HandSlots]r3.Vec
	)
	for _, d := range detections {
		if reason := c.reject(d); reason != "" {
			metrics.RecordDetectionDropped(reason)
			continue
		}
		raw[d.Hand] = c.projection.Project(d.X, d.Y)
		present[d.Hand] = true
	}

	for _, h := range model.Hands {
		tr := &c.tracks[h]
		if !present[h] {
			c.slots.Store(h, model.HandState{SampledAt: tr.last})
			continue
		}
		metrics.RecordDetection(h.String())
		c.update(tr, raw[h], at)
		c.slots.Store(h, model.HandState{
			Tracked:   true,
			Position:  tr.smoothed,
			Velocity:  tr.velocity,
			SampledAt: tr.last,
		})
	}
}

func (c *Conditioner) reject(d Detection) string {
	switch {
	case !d.Hand.Valid():
		return "unclassified"
	case math.IsNaN(d.Confidence) || d.Confidence < c.minConfidence:
		return "low_confidence"
	case math.IsNaN(d.X) || math.IsNaN(d.Y) || math.IsInf(d.X, 0) || math.IsInf(d.Y, 0):
		return "malformed"
	}
	return ""
}

func (c *Conditioner) update(tr *track, raw r3.Vec, at time.Time) {
	if !tr.seen {
		tr.seen = true
		tr.smoothed = raw
		tr.velocity = r3.Vec{}
		tr.last = at
		return
	}

	prev := tr.smoothed
	tr.smoothed = r3.Add(prev, r3.Scale(c.smoothing, r3.Sub(raw, prev)))

	dt := at.Sub(tr.last)
	if dt < c.minDelta {
		// too close to the previous sample for a stable derivative
		if dt > 0 {
			tr.last = at
		}
		return
	}
	tr.velocity = r3.Scale(1/dt.Seconds(), r3.Sub(tr.smoothed, prev))
	tr.last = at
}

// Snapshot returns the latest published state of both hands.
func (c *Conditioner) Snapshot() model.HandsSnapshot {
	return c.slots.Snapshot()
}

// Reset forgets all hand history.
func (c *Conditioner) Reset() {
	c.tracks = [model.HandSlots]track{}
	c.slots.Clear()
}
