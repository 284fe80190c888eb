package app

import (
	"time"

	"github.com/okian/handbeat/internal/domain/judge"
	"github.com/okian/handbeat/internal/domain/scoring"
	"github.com/okian/handbeat/pkg/logger"
)

// Option applies a configuration option to the Game.
type Option func(*Game)

// WithJudge replaces the default judge.
func WithJudge(j *judge.Judge) Option {
	return func(g *Game) {
		if j != nil {
			g.judge = j
		}
	}
}

// WithScoring configures the score state.
func WithScoring(opts ...scoring.Option) Option {
	return func(g *Game) {
		g.score = scoring.NewState(opts...)
	}
}

// WithLogger sets a custom logger for the game.
func WithLogger(log logger.Logger) Option {
	return func(g *Game) {
		if log != nil {
			g.log = log
		}
	}
}

// WithPublisher sets where judgements and transitions are sent.
func WithPublisher(p Publisher) Option {
	return func(g *Game) {
		if p != nil {
			g.pub = p
		}
	}
}

// WithWallClock sets the source of session timestamps.
func WithWallClock(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}
