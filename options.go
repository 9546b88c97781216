package ringscan

import (
	"time"

	"github.com/dendrolab/ringscan/internal/sampler"
)

// Option configures an Engine.
//
// Example:
//
//	eng, err := ringscan.New(host,
//	    ringscan.WithRenderer(pipeline),
//	    ringscan.WithTileWaitTimeout(5*time.Second))
type Option func(*engineOptions)

type engineOptions struct {
	renderer Renderer
	sampler  []sampler.Option
}

// WithRenderer sets the pipeline that SetFilterPasses drives.
func WithRenderer(r Renderer) Option {
	return func(o *engineOptions) {
		o.renderer = r
	}
}

// WithCanvasLimits sets the largest canvas a capture may use before it is
// split into sub-segments.
func WithCanvasLimits(l CanvasLimits) Option {
	return func(o *engineOptions) {
		o.sampler = append(o.sampler, sampler.WithLimits(l))
	}
}

// WithMaxSubdivisions bounds the sub-segments tried before a capture fails
// with CaptureAreaTooLarge.
func WithMaxSubdivisions(n int) Option {
	return func(o *engineOptions) {
		o.sampler = append(o.sampler, sampler.WithMaxSubdivisions(n))
	}
}

// WithTileWaitTimeout bounds the wait for one tile during a capture.
func WithTileWaitTimeout(d time.Duration) Option {
	return func(o *engineOptions) {
		o.sampler = append(o.sampler, sampler.WithTileWaitTimeout(d))
	}
}
