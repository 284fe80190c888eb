// Package config defines engine configuration and how it maps onto the
// playfield, the judge and the hand conditioner.
package config

import (
	"fmt"
	"time"

	"github.com/okian/handbeat/internal/domain/judge"
	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/internal/domain/tracking"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file for session history.
	DBPath string `koanf:"db_path"`

	// TickRateHz is how often the headless driver ticks the game.
	TickRateHz int `koanf:"tick_rate_hz"`

	// QueueSize bounds the notification queue.
	QueueSize int `koanf:"queue_size"`

	// SampleRate of the session clock stream.
	SampleRate int `koanf:"sample_rate"`

	// EndPaddingMS extends a headless run past the last arrival.
	EndPaddingMS int `koanf:"end_padding_ms"`

	// Playfield and judgment thresholds.
	ApproachSpeed   float64   `koanf:"approach_speed"`
	SpawnDepth      float64   `koanf:"spawn_depth"`
	JudgmentDepth   float64   `koanf:"judgment_depth"`
	MissTolerance   float64   `koanf:"miss_tolerance"`
	WindowBefore    float64   `koanf:"window_before"`
	WindowAfter     float64   `koanf:"window_after"`
	CollisionRadius float64   `koanf:"collision_radius"`
	MinSwingSpeed   float64   `koanf:"min_swing_speed"`
	MinAlignment    float64   `koanf:"min_alignment"`
	LaneX           []float64 `koanf:"lane_x"`
	LayerY          []float64 `koanf:"layer_y"`

	// Hand conditioning.
	Smoothing       float64 `koanf:"smoothing"`
	MinVelocityDtMS float64 `koanf:"min_velocity_dt_ms"`
	MinConfidence   float64 `koanf:"min_confidence"`
	MirrorX         bool    `koanf:"mirror_x"`
	HalfWidth       float64 `koanf:"half_width"`
	Height          float64 `koanf:"height"`
	YOffset         float64 `koanf:"y_offset"`
	DepthSpan       float64 `koanf:"depth_span"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config holding the stock defaults.
func New() *Config {
	g := judge.DefaultGeometry()
	p := tracking.DefaultProjection()
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DBPath:              "handbeat.db",
		TickRateHz:          120,
		QueueSize:           4096,
		SampleRate:          44100,
		EndPaddingMS:        2000,
		ApproachSpeed:       g.ApproachSpeed,
		SpawnDepth:          g.SpawnDepth,
		JudgmentDepth:       g.JudgmentDepth,
		MissTolerance:       g.MissTolerance,
		WindowBefore:        g.WindowBefore,
		WindowAfter:         g.WindowAfter,
		CollisionRadius:     g.CollisionRadius,
		MinSwingSpeed:       g.MinSwingSpeed,
		MinAlignment:        g.MinAlignment,
		LaneX:               g.LaneX[:],
		LayerY:              g.LayerY[:],
		Smoothing:           tracking.DefaultSmoothing,
		MinVelocityDtMS:     float64(tracking.DefaultMinDelta) / float64(time.Millisecond),
		MinConfidence:       tracking.DefaultMinConfidence,
		HalfWidth:           p.HalfWidth,
		Height:              p.Height,
		YOffset:             p.YOffset,
		DepthSpan:           p.DepthSpan,
		MaxLeaderboardLimit: 100,
	}
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TickRateHz <= 0:
		return fmt.Errorf("%w: tick_rate_hz must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be positive", ErrInvalidConfig)
	case c.EndPaddingMS < 0:
		return fmt.Errorf("%w: end_padding_ms must not be negative", ErrInvalidConfig)
	case c.ApproachSpeed <= 0:
		return fmt.Errorf("%w: approach_speed must be positive", ErrInvalidConfig)
	case c.CollisionRadius <= 0:
		return fmt.Errorf("%w: collision_radius must be positive", ErrInvalidConfig)
	case c.MissTolerance < 0 || c.WindowBefore < 0 || c.WindowAfter < 0:
		return fmt.Errorf("%w: judgment windows must not be negative", ErrInvalidConfig)
	case c.MinAlignment < -1 || c.MinAlignment > 1:
		return fmt.Errorf("%w: min_alignment must be within [-1, 1]", ErrInvalidConfig)
	case len(c.LaneX) != model.LaneCount:
		return fmt.Errorf("%w: lane_x needs %d entries, got %d", ErrInvalidConfig, model.LaneCount, len(c.LaneX))
	case len(c.LayerY) != model.LayerCount:
		return fmt.Errorf("%w: layer_y needs %d entries, got %d", ErrInvalidConfig, model.LayerCount, len(c.LayerY))
	case c.Smoothing <= 0 || c.Smoothing > 1:
		return fmt.Errorf("%w: smoothing must be within (0, 1]", ErrInvalidConfig)
	case c.MinVelocityDtMS < 0:
		return fmt.Errorf("%w: min_velocity_dt_ms must not be negative", ErrInvalidConfig)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("%w: min_confidence must be within [0, 1]", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// Geometry returns the judge playfield. Call Validate first.
func (c *Config) Geometry() judge.Geometry {
	g := judge.Geometry{
		ApproachSpeed:   c.ApproachSpeed,
		SpawnDepth:      c.SpawnDepth,
		JudgmentDepth:   c.JudgmentDepth,
		MissTolerance:   c.MissTolerance,
		WindowBefore:    c.WindowBefore,
		WindowAfter:     c.WindowAfter,
		CollisionRadius: c.CollisionRadius,
		MinSwingSpeed:   c.MinSwingSpeed,
		MinAlignment:    c.MinAlignment,
	}
	copy(g.LaneX[:], c.LaneX)
	copy(g.LayerY[:], c.LayerY)
	return g
}

// ConditionerOptions returns the hand conditioner settings.
func (c *Config) ConditionerOptions() []tracking.Option {
	return []tracking.Option{
		tracking.WithSmoothing(c.Smoothing),
		tracking.WithMinDelta(time.Duration(c.MinVelocityDtMS * float64(time.Millisecond))),
		tracking.WithMinConfidence(c.MinConfidence),
		tracking.WithProjection(tracking.Projection{
			HalfWidth:     c.HalfWidth,
			Height:        c.Height,
			YOffset:       c.YOffset,
			DepthSpan:     c.DepthSpan,
			JudgmentDepth: c.JudgmentDepth,
			MirrorX:       c.MirrorX,
		}),
	}
}

// TickInterval is the period between headless ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}
