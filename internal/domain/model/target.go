// Package model contains domain models passed between layers.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Playfield dimensions.
const (
	LaneCount  = 4
	LayerCount = 3
)

// Hand identifies which of the player's hands a target or detection belongs to.
type Hand uint8

// Hand values. HandNone marks a detection without a usable classification.
const (
	HandNone Hand = iota
	HandLeft
	HandRight
)

// Hands lists the trackable hands in index order.
var Hands = [...]Hand{HandLeft, HandRight}

func (h Hand) String() string {
	switch h {
	case HandLeft:
		return "left"
	case HandRight:
		return "right"
	default:
		return "none"
	}
}

// Valid reports whether h is a trackable hand.
func (h Hand) Valid() bool { return h == HandLeft || h == HandRight }

// ParseHand converts a label such as "left" or "Right" to a Hand.
func ParseHand(label string) (Hand, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "left", "l":
		return HandLeft, nil
	case "right", "r":
		return HandRight, nil
	default:
		return HandNone, fmt.Errorf("%w: %q", ErrUnknownHand, label)
	}
}

// Direction is the swing direction a target asks for.
type Direction uint8

// Direction values.
const (
	DirectionAny Direction = iota
	DirectionUp
	DirectionDown
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "any"
	}
}

// Unit returns the world-space unit vector for d. The boolean is false for
// DirectionAny, which has no preferred axis.
func (d Direction) Unit() (r3.Vec, bool) {
	switch d {
	case DirectionUp:
		return r3.Vec{Y: 1}, true
	case DirectionDown:
		return r3.Vec{Y: -1}, true
	case DirectionLeft:
		return r3.Vec{X: -1}, true
	case DirectionRight:
		return r3.Vec{X: 1}, true
	default:
		return r3.Vec{}, false
	}
}

// ParseDirection converts a chart label to a Direction. An empty label means any.
func ParseDirection(label string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "any":
		return DirectionAny, nil
	case "up":
		return DirectionUp, nil
	case "down":
		return DirectionDown, nil
	case "left":
		return DirectionLeft, nil
	case "right":
		return DirectionRight, nil
	default:
		return DirectionAny, fmt.Errorf("%w: %q", ErrUnknownDirection, label)
	}
}

// Target is a scheduled note. It is immutable once a chart is loaded.
type Target struct {
	ID          string
	ArrivalTime float64 // seconds on the playback clock when it reaches the judgment plane
	Lane        int     // 0..LaneCount-1
	Layer       int     // 0..LayerCount-1
	Hand        Hand
	Direction   Direction
}

// Chart is an ordered set of targets for one song.
type Chart struct {
	ID      string
	Title   string
	Targets []Target // ascending ArrivalTime
}

// Duration returns the arrival time of the last target.
func (c *Chart) Duration() float64 {
	if c == nil || len(c.Targets) == 0 {
		return 0
	}
	return c.Targets[len(c.Targets)-1].ArrivalTime
}

// Fingerprint identifies the playable content of a chart: two charts with the
// same targets share a fingerprint whatever their id or title.
func (c *Chart) Fingerprint() string {
	h := sha256.New()
	var buf []byte
	for _, t := range c.Targets {
		buf = buf[:0]
		buf = append(buf, t.ID...)
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, t.ArrivalTime, 'g', -1, 64)
		buf = append(buf, '|')
		buf = strconv.AppendInt(buf, int64(t.Lane), 10)
		buf = append(buf, '|')
		buf = strconv.AppendInt(buf, int64(t.Layer), 10)
		buf = append(buf, '|')
		buf = append(buf, t.Hand.String()...)
		buf = append(buf, '|')
		buf = append(buf, t.Direction.String()...)
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
