package judge_test

import (
	"testing"

	"github.com/okian/handbeat/internal/domain/judge"
	"github.com/okian/handbeat/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/spatial/r3"
)

func hands(hand model.Hand, pos, vel r3.Vec) model.HandsSnapshot {
	var s model.HandsSnapshot
	s[hand] = model.HandState{Tracked: true, Position: pos, Velocity: vel}
	return s
}

func TestGeometry(t *testing.T) {
	Convey("Given the default geometry", t, func() {
		g := judge.DefaultGeometry()

		Convey("Lookahead is the travel time from spawn to the plane", func() {
			So(g.Lookahead(), ShouldAlmostEqual, 4, 1e-9)
		})

		Convey("Depth approaches the plane linearly", func() {
			So(g.Depth(2, 2), ShouldAlmostEqual, 0, 1e-9)
			So(g.Depth(2, 1.9), ShouldAlmostEqual, -1, 1e-9)
			So(g.Depth(2, 2.1), ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("Slots use the lane and layer tables", func() {
			p := g.Slot(model.Target{Lane: 3, Layer: 2}, -1)
			So(p, ShouldResemble, r3.Vec{X: 1.5, Y: 2.0, Z: -1})
		})
	})
}

func TestJudge_Evaluate(t *testing.T) {
	Convey("Given a single left-hand note in lane 1, layer 0 arriving at 2.0s", t, func() {
		j := judge.New()
		g := j.Geometry()
		target := model.Target{ID: "n1", ArrivalTime: 2.0, Lane: 1, Layer: 0, Hand: model.HandLeft}
		note := model.NewNote(target, 0)
		active := []*model.Note{note}
		atSlot := func(now float64) r3.Vec { return g.Slot(target, g.Depth(target.ArrivalTime, now)) }

		Convey("When a fast left hand sits on the slot at 2.0s", func() {
			events := j.Evaluate(2.0, active, hands(model.HandLeft, atSlot(2.0), r3.Vec{Y: 2}))

			Convey("Then exactly one good hit is emitted and the note is resolved", func() {
				So(len(events), ShouldEqual, 1)
				So(events[0].Outcome, ShouldEqual, model.Hit)
				So(events[0].Quality, ShouldEqual, model.QualityGood)
				So(events[0].Note, ShouldPointTo, note)
				So(note.State(), ShouldEqual, model.Hit)
			})

			Convey("And the note is never judged again", func() {
				So(j.Evaluate(2.05, active, hands(model.HandLeft, atSlot(2.05), r3.Vec{Y: 2})), ShouldBeEmpty)
				So(j.Evaluate(5, active, model.HandsSnapshot{}), ShouldBeEmpty)
			})
		})

		Convey("When the wrong hand sits on the slot", func() {
			events := j.Evaluate(2.0, active, hands(model.HandRight, atSlot(2.0), r3.Vec{Y: 2}))

			Convey("Then nothing happens", func() {
				So(events, ShouldBeEmpty)
				So(note.Pending(), ShouldBeTrue)
			})
		})

		Convey("When no hand is tracked", func() {
			Convey("Then the note stays pending inside the miss tolerance", func() {
				So(j.Evaluate(2.19, active, model.HandsSnapshot{}), ShouldBeEmpty)
				So(note.Pending(), ShouldBeTrue)
			})

			Convey("Then it is missed once it passes the tolerance", func() {
				events := j.Evaluate(2.21, active, model.HandsSnapshot{})
				So(len(events), ShouldEqual, 1)
				So(events[0].Outcome, ShouldEqual, model.Missed)
				So(note.State(), ShouldEqual, model.Missed)
			})
		})

		Convey("When a perfect swing reaches the slot after the tolerance", func() {
			events := j.Evaluate(2.25, active, hands(model.HandLeft, atSlot(2.25), r3.Vec{Y: 3}))

			Convey("Then the note is still missed", func() {
				So(len(events), ShouldEqual, 1)
				So(events[0].Outcome, ShouldEqual, model.Missed)
			})
		})

		Convey("When the hand meets the note before the hit window", func() {
			events := j.Evaluate(1.8, active, hands(model.HandLeft, atSlot(1.8), r3.Vec{Y: 2}))

			Convey("Then it is left pending", func() {
				So(events, ShouldBeEmpty)
				So(note.Pending(), ShouldBeTrue)
			})

			Convey("But inside the window it is hit", func() {
				events := j.Evaluate(1.86, active, hands(model.HandLeft, atSlot(1.86), r3.Vec{Y: 2}))
				So(len(events), ShouldEqual, 1)
				So(events[0].Outcome, ShouldEqual, model.Hit)
			})
		})

		Convey("When the hand meets the note past the window but inside the tolerance", func() {
			events := j.Evaluate(2.15, active, hands(model.HandLeft, atSlot(2.15), r3.Vec{Y: 2}))

			Convey("Then it is left pending", func() {
				So(events, ShouldBeEmpty)
				So(note.Pending(), ShouldBeTrue)
			})
		})
	})
}

func TestJudge_CollisionBoundary(t *testing.T) {
	Convey("Given a playfield whose lane 0 / layer 0 slot sits at the origin", t, func() {
		g := judge.DefaultGeometry()
		g.LaneX[0], g.LayerY[0] = 0, 0
		j := judge.New(judge.WithGeometry(g))
		target := model.Target{Lane: 0, Layer: 0}

		Convey("A hand exactly one radius away does not collide", func() {
			So(j.Collides(r3.Vec{X: 0.8}, target, 0), ShouldBeFalse)
		})

		Convey("A hand just inside the radius collides", func() {
			So(j.Collides(r3.Vec{X: 0.79}, target, 0), ShouldBeTrue)
			So(j.Collides(r3.Vec{X: 0.5, Y: 0.3, Z: 0.5}, target, 0), ShouldBeTrue)
		})
	})
}

func TestJudge_Quality(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		j := judge.New()
		state := func(v r3.Vec) model.HandState { return model.HandState{Tracked: true, Velocity: v} }

		Convey("Any direction is graded on speed alone", func() {
			So(j.Quality(model.DirectionAny, state(r3.Vec{X: -2})), ShouldEqual, model.QualityGood)
			So(j.Quality(model.DirectionAny, state(r3.Vec{X: 1.5})), ShouldEqual, model.QualityGood)
			So(j.Quality(model.DirectionAny, state(r3.Vec{X: 1.49})), ShouldEqual, model.QualityWeak)
			So(j.Quality(model.DirectionAny, state(r3.Vec{})), ShouldEqual, model.QualityWeak)
		})

		Convey("A directed swing needs alignment and speed", func() {
			So(j.Quality(model.DirectionUp, state(r3.Vec{Y: 2})), ShouldEqual, model.QualityGood)
			So(j.Quality(model.DirectionUp, state(r3.Vec{X: 1.9, Y: 0.62})), ShouldEqual, model.QualityGood)
			So(j.Quality(model.DirectionUp, state(r3.Vec{X: 1.9, Y: 0.56})), ShouldEqual, model.QualityWeak)
			So(j.Quality(model.DirectionUp, state(r3.Vec{Y: -2})), ShouldEqual, model.QualityWeak)
			So(j.Quality(model.DirectionUp, state(r3.Vec{Y: 1})), ShouldEqual, model.QualityWeak)
			So(j.Quality(model.DirectionLeft, state(r3.Vec{X: -3})), ShouldEqual, model.QualityGood)
			So(j.Quality(model.DirectionRight, state(r3.Vec{X: -3})), ShouldEqual, model.QualityWeak)
			So(j.Quality(model.DirectionDown, state(r3.Vec{})), ShouldEqual, model.QualityWeak)
		})

		Convey("A weak cut still counts as a hit", func() {
			target := model.Target{ArrivalTime: 1, Lane: 2, Layer: 1, Hand: model.HandRight, Direction: model.DirectionDown}
			note := model.NewNote(target, 0)
			g := j.Geometry()
			events := j.Evaluate(1, []*model.Note{note}, hands(model.HandRight, g.Slot(target, 0), r3.Vec{Y: 2}))
			So(len(events), ShouldEqual, 1)
			So(events[0].Outcome, ShouldEqual, model.Hit)
			So(events[0].Quality, ShouldEqual, model.QualityWeak)
		})
	})
}

func TestJudge_OneHandManyNotes(t *testing.T) {
	Convey("Given two stacked notes within reach of one hand", t, func() {
		j := judge.New()
		g := j.Geometry()
		low := model.NewNote(model.Target{ID: "low", ArrivalTime: 3, Lane: 1, Layer: 0, Hand: model.HandLeft}, 0)
		mid := model.NewNote(model.Target{ID: "mid", ArrivalTime: 3, Lane: 1, Layer: 1, Hand: model.HandLeft}, 1)
		between := r3.Vec{X: g.LaneX[1], Y: (g.LayerY[0] + g.LayerY[1]) / 2}

		Convey("When the hand passes between them", func() {
			events := j.Evaluate(3, []*model.Note{low, mid}, hands(model.HandLeft, between, r3.Vec{Y: 2}))

			Convey("Then both are hit in the same evaluation", func() {
				So(len(events), ShouldEqual, 2)
				So(low.State(), ShouldEqual, model.Hit)
				So(mid.State(), ShouldEqual, model.Hit)
			})
		})
	})
}
