// Package app sequences a play session: it owns the lifecycle state machine
// and drives timeline admission, judging and scoring once per tick.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/handbeat/internal/domain/judge"
	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/internal/domain/scoring"
	"github.com/okian/handbeat/internal/domain/timeline"
	"github.com/okian/handbeat/pkg/logger"
	"github.com/okian/handbeat/pkg/metrics"
)

// HandSource yields the latest conditioned hand states without blocking.
type HandSource interface {
	Snapshot() model.HandsSnapshot
}

// Clock is the session clock, normally backed by audio playback.
type Clock interface {
	Start() error
	Stop()
	Position() float64 // seconds since Start
	Ended() bool       // the source has drained
}

// Publisher receives everything the game reports. Publish must not block.
type Publisher interface {
	Publish(ctx context.Context, n model.Notification)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.Notification) {}

// Game is the top-level state machine of a session.
//
// Ready, Start, Tick and Restart must be called from a single goroutine.
// Status may be called from any goroutine.
type Game struct {
	chart    *model.Chart
	timeline *timeline.Timeline
	judge    *judge.Judge
	score    *scoring.State
	hands    HandSource
	clock    Clock
	pub      Publisher
	log      logger.Logger
	now      func() time.Time

	phase     model.Phase
	sessionID string
	startedAt time.Time
	position  float64
	summary   *model.Summary

	status atomic.Pointer[model.Status]
}

// New creates a game for chart in the LOADING phase.
func New(chart *model.Chart, hands HandSource, clock Clock, opts ...Option) *Game {
	g := &Game{
		chart:    chart,
		timeline: timeline.New(chart.Targets),
		judge:    judge.New(),
		score:    scoring.NewState(),
		hands:    hands,
		clock:    clock,
		pub:      nopPublisher{},
		now:      time.Now,
		phase:    model.PhaseLoading,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.log == nil {
		g.log = logger.Named("game")
	}

	g.publishStatus()
	return g
}

// Phase returns the current lifecycle phase.
func (g *Game) Phase() model.Phase { return g.phase }

// Summary returns the tally of the last finished session.
func (g *Game) Summary() (model.Summary, bool) {
	if g.summary == nil {
		return model.Summary{}, false
	}
	return *g.summary, true
}

// Status returns the last published view of the game.
func (g *Game) Status() model.Status {
	return *g.status.Load()
}

// Ready reports the outcome of bringing up hand sensing. A nil err moves the
// game from LOADING to IDLE; otherwise it stays in LOADING and the failure is
// published and returned.
func (g *Game) Ready(ctx context.Context, err error) error {
	if g.phase != model.PhaseLoading {
		return fmt.Errorf("%w: ready in %s", ErrInvalidTransition, g.phase)
	}
	if err != nil {
		g.refuse(ctx, model.PhaseIdle, "sensing_unavailable", err)
		return fmt.Errorf("%w: %w", ErrSensingUnavailable, err)
	}
	g.transition(ctx, model.PhaseIdle, nil)
	return nil
}

// Start begins a new session: fresh notes and score, a new session id, then
// the clock. If the clock fails to start the game stays IDLE.
func (g *Game) Start(ctx context.Context) error {
	switch g.phase {
	case model.PhaseIdle:
	case model.PhaseLoading:
		return fmt.Errorf("%w: still loading", ErrSensingUnavailable)
	default:
		return fmt.Errorf("%w: start in %s", ErrInvalidTransition, g.phase)
	}

	g.timeline.Reset()
	g.score.Reset()
	g.position = 0
	g.summary = nil
	g.sessionID = uuid.NewString()

	if err := g.clock.Start(); err != nil {
		g.refuse(ctx, model.PhasePlaying, "audio_start", err)
		return fmt.Errorf("%w: %w", ErrAudioStart, err)
	}

	g.startedAt = g.now()
	g.transition(ctx, model.PhasePlaying, nil)
	return nil
}

// Tick advances the session to the clock's current position and returns the
// resulting phase. It does nothing outside PLAYING. Events decided after a
// defeat in the same tick are discarded.
func (g *Game) Tick(ctx context.Context) model.Phase {
	if g.phase != model.PhasePlaying {
		return g.phase
	}
	began := time.Now()

	g.position = g.clock.Position()
	g.timeline.AdmitReachable(g.position, g.judge.Lookahead())
	events := g.judge.Evaluate(g.position, g.timeline.Active(), g.hands.Snapshot())

	for _, e := range events {
		defeated := g.score.Apply(e)
		g.record(ctx, e)
		if defeated {
			g.finish(ctx, model.PhaseGameOver)
			break
		}
	}

	if g.phase == model.PhasePlaying && g.clock.Ended() {
		g.finish(ctx, model.PhaseVictory)
	}

	snap := g.score.Snapshot()
	metrics.UpdateScore(snap.Score)
	metrics.UpdateCombo(snap.Combo)
	metrics.UpdateMultiplier(snap.Multiplier)
	metrics.UpdateHealth(snap.Health)
	metrics.RecordTick(float64(time.Since(began).Microseconds()) / 1000)

	g.publishStatus()
	return g.phase
}

// Restart returns a finished game to IDLE.
func (g *Game) Restart(ctx context.Context) error {
	if !g.phase.Terminal() {
		return fmt.Errorf("%w: restart in %s", ErrInvalidTransition, g.phase)
	}
	g.transition(ctx, model.PhaseIdle, nil)
	return nil
}

func (g *Game) record(ctx context.Context, e model.JudgeEvent) {
	if e.Outcome == model.Hit {
		metrics.RecordHit(e.Quality.String())
	} else {
		metrics.RecordMiss()
	}
	g.pub.Publish(ctx, model.Notification{
		Kind:      model.KindJudgement,
		SessionID: g.sessionID,
		Judgement: e,
	})
}

func (g *Game) finish(ctx context.Context, outcome model.Phase) {
	g.clock.Stop()

	sum := g.score.Summary()
	sum.SessionID = g.sessionID
	sum.ChartID = g.chart.ID
	sum.Outcome = outcome
	sum.StartedAt = g.startedAt
	sum.EndedAt = g.now()
	g.summary = &sum

	metrics.RecordSession(outcome.String())
	g.transition(ctx, outcome, &sum)
}

func (g *Game) transition(ctx context.Context, to model.Phase, sum *model.Summary) {
	from := g.phase
	g.phase = to

	metrics.RecordTransition(from.String(), to.String())
	g.log.Info(ctx, "phase changed",
		logger.String("from", from.String()),
		logger.String("to", to.String()),
		logger.String("session", g.sessionID))

	g.pub.Publish(ctx, model.Notification{
		Kind:       model.KindTransition,
		SessionID:  g.sessionID,
		Transition: model.Transition{From: from, To: to, At: g.now()},
		Summary:    sum,
	})
	g.publishStatus()
}

// refuse reports a transition to the given phase that a collaborator blocked.
func (g *Game) refuse(ctx context.Context, to model.Phase, kind string, err error) {
	metrics.RecordErrorByComponent("game", kind)
	g.log.Warn(ctx, "transition refused",
		logger.String("from", g.phase.String()),
		logger.String("to", to.String()),
		logger.Error(err))

	g.pub.Publish(ctx, model.Notification{
		Kind:       model.KindTransition,
		SessionID:  g.sessionID,
		Transition: model.Transition{From: g.phase, To: g.phase, At: g.now(), Err: err},
	})
}

func (g *Game) publishStatus() {
	snap := g.score.Snapshot()
	g.status.Store(&model.Status{
		SessionID:  g.sessionID,
		ChartID:    g.chart.ID,
		Phase:      g.phase,
		State:      g.phase.String(),
		Position:   g.position,
		Score:      snap.Score,
		Combo:      snap.Combo,
		Multiplier: snap.Multiplier,
		Health:     snap.Health,
		MaxCombo:   snap.MaxCombo,
		Good:       snap.Good,
		Weak:       snap.Weak,
		Misses:     snap.Misses,
		Active:     len(g.timeline.Active()),
	})
}
