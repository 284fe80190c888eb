// Package judge decides hits and misses for active notes.
package judge

import (
	"github.com/okian/handbeat/internal/domain/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Option applies a configuration option to the Judge.
type Option func(*Judge)

// WithGeometry replaces the default playfield and thresholds.
func WithGeometry(g Geometry) Option {
	return func(j *Judge) {
		j.geo = g
	}
}

// Judge evaluates active notes against the latest hand states. It holds no
// per-session state and is safe to reuse across sessions.
type Judge struct {
	geo Geometry
}

// New creates a judge with configuration options.
func New(opts ...Option) *Judge {
	j := &Judge{geo: DefaultGeometry()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Geometry returns the judge's playfield.
func (j *Judge) Geometry() Geometry { return j.geo }

// Lookahead returns the spawn lead time for the timeline.
func (j *Judge) Lookahead() float64 { return j.geo.Lookahead() }

// Evaluate judges every pending note in active at playback time now and
// resolves the ones it decides. Each note is resolved at most once; notes are
// independent, so one hand can hit several notes in the same call.
func (j *Judge) Evaluate(now float64, active []*model.Note, hands model.HandsSnapshot) []model.JudgeEvent {
	var events []model.JudgeEvent
	for _, n := range active {
		if !n.Pending() {
			continue
		}
		depth := j.geo.Depth(n.Target.ArrivalTime, now)

		if depth > j.geo.JudgmentDepth+j.geo.MissTolerance {
			if n.Miss(now) {
				events = append(events, model.JudgeEvent{Note: n, Outcome: model.Missed, At: now})
			}
			continue
		}

		if !j.inWindow(depth) {
			continue
		}
		hand := hands.Get(n.Target.Hand)
		if !hand.Tracked || !j.Collides(hand.Position, n.Target, depth) {
			continue
		}
		q := j.Quality(n.Target.Direction, hand)
		if n.Hit(now, q) {
			events = append(events, model.JudgeEvent{Note: n, Outcome: model.Hit, Quality: q, At: now})
		}
	}
	return events
}

func (j *Judge) inWindow(depth float64) bool {
	return depth >= j.geo.JudgmentDepth-j.geo.WindowBefore && depth <= j.geo.JudgmentDepth+j.geo.WindowAfter
}

// Collides reports whether pos is strictly inside the collision radius of
// target's slot at depth.
func (j *Judge) Collides(pos r3.Vec, target model.Target, depth float64) bool {
	return r3.Norm(r3.Sub(pos, j.geo.Slot(target, depth))) < j.geo.CollisionRadius
}

// Quality grades a cut. Without a required direction only speed matters;
// otherwise the swing must also point along dir.
func (j *Judge) Quality(dir model.Direction, hand model.HandState) model.Quality {
	speed := hand.Speed()
	fast := speed >= j.geo.MinSwingSpeed

	want, directed := dir.Unit()
	if !directed {
		if fast {
			return model.QualityGood
		}
		return model.QualityWeak
	}
	if !fast || speed == 0 {
		return model.QualityWeak
	}
	if r3.Dot(r3.Scale(1/speed, hand.Velocity), want) >= j.geo.MinAlignment {
		return model.QualityGood
	}
	return model.QualityWeak
}
