package sampler

import (
	"time"

	"github.com/dendrolab/ringscan/internal/raster"
)

// Defaults for Sampler options.
const (
	DefaultMaxSubdivisions = 32
	DefaultMargin          = 4
	DefaultTileWaitTimeout = 20 * time.Second
)

// Option configures a Sampler.
type Option func(*options)

type options struct {
	limits          raster.Limits
	maxSubdivisions int
	margin          int
	tileWait        time.Duration
}

func defaultOptions() options {
	return options{
		limits:          raster.DefaultLimits(),
		maxSubdivisions: DefaultMaxSubdivisions,
		margin:          DefaultMargin,
		tileWait:        DefaultTileWaitTimeout,
	}
}

// WithLimits sets the canvas size limits that drive subdivision.
func WithLimits(l raster.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithMaxSubdivisions bounds the number of sub-segments tried before a
// capture is reported as too large.
func WithMaxSubdivisions(n int) Option {
	return func(o *options) {
		o.maxSubdivisions = max(n, 1)
	}
}

// WithMargin sets the blank border kept around the capture on the canvas.
func WithMargin(px int) Option {
	return func(o *options) {
		o.margin = max(px, 0)
	}
}

// WithTileWaitTimeout bounds the wait for a single tile to load.
func WithTileWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.tileWait = d
	}
}
