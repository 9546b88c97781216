package ringscan

import (
	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/detect"
	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/placement"
	"github.com/dendrolab/ringscan/internal/raster"
	"github.com/dendrolab/ringscan/internal/sampler"
	"github.com/dendrolab/ringscan/internal/tile"
)

// Geometry and tiles.
type (
	// LatLng is a geographic position.
	LatLng = geom.LatLng
	// Point is a position in pixel space at some zoom level.
	Point = geom.Point
	// TileCoord addresses a tile of the pyramid.
	TileCoord = tile.Coord
)

// Host is the viewer the engine samples from. It reports tile residency,
// loads tiles on request and notifies load results through OnTileEvent.
type Host = sampler.Host

// TileEvent reports a finished tile load. Err is set when the load failed.
type TileEvent = sampler.TileEvent

// SampleBuffer is a captured band: Height rows of Width RGB pixels,
// starting at the western anchor.
type SampleBuffer = raster.SampleBuffer

// CanvasLimits bound the sampling canvas.
type CanvasLimits = raster.Limits

// FilterPass is one enhancement pass: a kernel name and a strength in [0, 1].
type FilterPass = convolve.FilterPass

// Detection.
type (
	// AlgorithmKind selects a boundary detection algorithm.
	AlgorithmKind = detect.Kind
	// Settings tunes boundary detection.
	Settings = detect.Settings
)

// Detection algorithms.
const (
	Classification = detect.KindClassification
	Derivative     = detect.KindDerivative
)

// DefaultSettings returns the default detection settings.
func DefaultSettings() Settings { return detect.DefaultSettings() }

// Placement.
type (
	// Direction is the measurement direction preference.
	Direction = placement.Direction
	// PointSink receives committed boundary points.
	PointSink = placement.PointSink
	// PointSinkFunc adapts a function to PointSink.
	PointSinkFunc = placement.SinkFunc
)

// Directions.
const (
	Forward  = placement.Forward
	Backward = placement.Backward
)

// Renderer is the enhancement pipeline the host draws tiles with.
// SetPasses replaces the pass list and re-renders resident tiles; Err
// reports a configuration failure that disables the pipeline.
type Renderer interface {
	SetPasses(passes []FilterPass) error
	Passes() []FilterPass
	Err() error
}

var _ Renderer = (*convolve.Pipeline)(nil)
