package viewer

import (
	"time"

	"github.com/dendrolab/ringscan/internal/geom"
)

// Defaults for Viewer options.
const (
	DefaultMaxZoom      = 18
	DefaultCapacity     = 512
	DefaultPrefetch     = 1
	DefaultFetchTimeout = 15 * time.Second
)

// Option configures a Viewer.
type Option func(*options)

type options struct {
	crs          geom.CRS
	tileSize     int
	minZoom      int
	maxZoom      int
	capacity     int
	prefetch     int
	css          string
	fetchTimeout time.Duration
}

func defaultOptions() options {
	return options{
		crs:          geom.WebMercator{TileSize: geom.DefaultTileSize},
		tileSize:     geom.DefaultTileSize,
		maxZoom:      DefaultMaxZoom,
		capacity:     DefaultCapacity,
		prefetch:     DefaultPrefetch,
		fetchTimeout: DefaultFetchTimeout,
	}
}

// WithCRS sets the projection between geographic and pixel coordinates.
func WithCRS(crs geom.CRS) Option {
	return func(o *options) {
		o.crs = crs
	}
}

// WithTileSize sets the tile edge length in pixels. Rendered tiles of any
// other size are rescaled to it.
func WithTileSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.tileSize = px
		}
	}
}

// WithZoomRange sets the zoom levels the pyramid provides.
func WithZoomRange(minZoom, maxZoom int) Option {
	return func(o *options) {
		o.minZoom = max(minZoom, 0)
		o.maxZoom = max(maxZoom, o.minZoom)
	}
}

// WithCapacity bounds the number of resident tiles. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = max(n, 0)
	}
}

// WithPrefetch sets how many rings of neighbours RequestViewCenter loads
// around the centre tile.
func WithPrefetch(rings int) Option {
	return func(o *options) {
		o.prefetch = max(rings, 0)
	}
}

// WithFilterAdjustments sets the CSS filter the viewer displays tiles with.
func WithFilterAdjustments(css string) Option {
	return func(o *options) {
		o.css = css
	}
}

// WithFetchTimeout bounds a single tile fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fetchTimeout = d
	}
}
