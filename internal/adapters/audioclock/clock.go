// Package audioclock derives the session clock from an audio stream: the
// playback position is the number of samples the player has pulled.
package audioclock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

// Sentinel kinds for clock errors.
var (
	ErrNoPlayer      = errors.New("no audio player")
	ErrNotRewindable = errors.New("audio source cannot be rewound")
)

// Player starts pulling samples from a stream, typically on its own goroutine.
type Player interface {
	Play(s beep.Streamer) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(s beep.Streamer) error

// Play implements Player.
func (f PlayerFunc) Play(s beep.Streamer) error { return f(s) }

// Clock wraps an audio source and reports how far playback has got.
// Position and Ended are safe to call from any goroutine.
type Clock struct {
	rate   beep.SampleRate
	player Player

	mu      sync.Mutex // guards src
	src     beep.Streamer
	played  bool
	current atomic.Pointer[run]
}

// run is one playback from the start of the source. A new Start or Stop
// orphans the previous run, which then reports itself drained to its player.
type run struct {
	clock   *Clock
	samples atomic.Int64
	ended   atomic.Bool
}

// New creates a clock over src sampled at rate.
func New(src beep.Streamer, rate beep.SampleRate, player Player) *Clock {
	return &Clock{src: src, rate: rate, player: player}
}

// Start rewinds the source when it has been played before and hands a new
// run to the player.
func (c *Clock) Start() error {
	if c.player == nil {
		return ErrNoPlayer
	}

	c.mu.Lock()
	if c.played {
		seeker, ok := c.src.(beep.StreamSeeker)
		if !ok {
			c.mu.Unlock()
			return ErrNotRewindable
		}
		if err := seeker.Seek(0); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("rewind: %w", err)
		}
	}
	c.played = true
	r := &run{clock: c}
	c.current.Store(r)
	c.mu.Unlock()

	if err := c.player.Play(r); err != nil {
		c.current.CompareAndSwap(r, nil)
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Stop ends the current run. The player sees the stream drain on its next pull.
func (c *Clock) Stop() {
	c.current.Store(nil)
}

// Position returns the playback position of the current run in seconds.
func (c *Clock) Position() float64 {
	r := c.current.Load()
	if r == nil {
		return 0
	}
	return c.rate.D(int(r.samples.Load())).Seconds()
}

// Ended reports whether the current run has drained its source.
func (c *Clock) Ended() bool {
	r := c.current.Load()
	return r != nil && r.ended.Load()
}

// Stream implements beep.Streamer.
func (r *run) Stream(samples [][2]float64) (int, bool) {
	c := r.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Load() != r || r.ended.Load() {
		return 0, false
	}
	n, ok := c.src.Stream(samples)
	r.samples.Add(int64(n))
	if !ok {
		r.ended.Store(true)
	}
	return n, ok
}

// Err implements beep.Streamer.
func (r *run) Err() error {
	r.clock.mu.Lock()
	defer r.clock.mu.Unlock()
	return r.clock.src.Err()
}

// Headless is a Player that discards audio at real-time pace, for runs
// without a sound device.
type Headless struct {
	Ctx    context.Context
	Rate   beep.SampleRate
	Period time.Duration
}

// Play implements Player.
func (h Headless) Play(s beep.Streamer) error {
	go func() { _ = Pump(h.Ctx, s, h.Rate, h.Period) }()
	return nil
}

const pumpChunk = 512

// Pump pulls samples from s in step with the wall clock, every period, until
// s drains or ctx ends. It returns ctx.Err() when canceled and s.Err() otherwise.
func Pump(ctx context.Context, s beep.Streamer, rate beep.SampleRate, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([][2]float64, pumpChunk)
	start := time.Now()
	pulled := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			due := rate.N(now.Sub(start)) - pulled
			for due > 0 {
				chunk := min(due, len(buf))
				n, ok := s.Stream(buf[:chunk])
				pulled += n
				due -= n
				if !ok {
					return s.Err()
				}
			}
		}
	}
}

// silence is a seekable stream of zeros.
type silence struct {
	pos, len int
}

// Silence returns d of seekable silence at rate, a stand-in for a song in
// headless runs.
func Silence(rate beep.SampleRate, d time.Duration) beep.StreamSeeker {
	return &silence{len: rate.N(d)}
}

func (s *silence) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.len {
		return 0, false
	}
	n := min(len(samples), s.len-s.pos)
	clear(samples[:n])
	s.pos += n
	return n, true
}

func (s *silence) Err() error    { return nil }
func (s *silence) Len() int      { return s.len }
func (s *silence) Position() int { return s.pos }

func (s *silence) Seek(p int) error {
	if p < 0 || p > s.len {
		return fmt.Errorf("seek %d outside [0, %d]", p, s.len)
	}
	s.pos = p
	return nil
}
