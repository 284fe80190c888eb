package tracking

import "gonum.org/v1/gonum/spatial/r3"

// Projection maps a normalised image point (0..1 on both axes, y pointing
// down) into the world space the judge works in.
type Projection struct {
	HalfWidth     float64 // world x spans ±HalfWidth
	Height        float64 // world y span covered by the image
	YOffset       float64 // world y of the image's bottom edge
	DepthSpan     float64 // world z swing between image top and bottom
	JudgmentDepth float64 // world z of the image's vertical centre
	MirrorX       bool    // flip horizontally for selfie-view cameras
}

// DefaultProjection covers the four lanes and three layers of the default
// playfield with a little margin.
func DefaultProjection() Projection {
	return Projection{
		HalfWidth: 2.5,
		Height:    2.4,
		YOffset:   0.2,
		DepthSpan: 0.6,
	}
}

// Project converts a normalised point into world coordinates. It is a pure
// function of its input.
func (p Projection) Project(nx, ny float64) r3.Vec {
	x := (nx - 0.5) * 2 * p.HalfWidth
	if p.MirrorX {
		x = -x
	}
	return r3.Vec{
		X: x,
		Y: (1-ny)*p.Height + p.YOffset,
		Z: p.JudgmentDepth + (ny-0.5)*p.DepthSpan,
	}
}
