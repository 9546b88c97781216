package ringscan

import (
	"context"
	"errors"

	"github.com/dendrolab/ringscan/internal/detect"
	"github.com/dendrolab/ringscan/internal/placement"
	"github.com/dendrolab/ringscan/internal/sampler"
)

// Engine samples bands from a host, finds ring boundaries in them and maps
// the boundaries back to geographic points.
type Engine struct {
	host     Host
	renderer Renderer
	sampler  *sampler.Sampler
}

// New creates an engine over host.
func New(host Host, opts ...Option) (*Engine, error) {
	if host == nil {
		return nil, errors.New("ringscan: nil host")
	}
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		host:     host,
		renderer: o.renderer,
		sampler:  sampler.New(host, o.sampler...),
	}, nil
}

// SetFilterPasses replaces the enhancement passes. Resident tiles are
// re-rendered by the renderer.
func (e *Engine) SetFilterPasses(passes []FilterPass) error {
	if e.renderer == nil {
		return classify(ErrNoRenderer)
	}
	if err := e.renderer.Err(); err != nil {
		return classify(err)
	}
	return classify(e.renderer.SetPasses(passes))
}

// FilterPasses returns the active passes.
func (e *Engine) FilterPasses() []FilterPass {
	if e.renderer == nil {
		return nil
	}
	return e.renderer.Passes()
}

// SampleRegion captures the band of bandHeight pixels centred on the
// segment a1-a2 at zoom. The buffer is bandHeight x floor(length) and starts
// at the western anchor whichever order the anchors come in.
//
// css is the CSS filter baked into the capture. An empty string uses the
// host's current adjustments; "none" captures without any.
//
// A newer SampleRegion call supersedes one still waiting for tiles, which
// then returns ErrSuperseded.
func (e *Engine) SampleRegion(ctx context.Context, a1, a2 LatLng, bandHeight, zoom int, css string) (*SampleBuffer, error) {
	if css == "" {
		css = e.host.FilterAdjustments()
	}
	res, err := e.sampler.Sample(ctx, sampler.Request{
		A:          a1,
		B:          a2,
		BandHeight: bandHeight,
		Zoom:       zoom,
		CSS:        css,
	})
	if err != nil {
		return nil, classify(err)
	}
	return res.Buffer, nil
}

// DetectBoundaries returns the column offsets of ring boundaries in buf.
// With Annual set and no zoom levels in s, the host's current and maximum
// zoom levels scale the annual skip.
func (e *Engine) DetectBoundaries(buf *SampleBuffer, kind AlgorithmKind, s Settings) ([]int, error) {
	if s.Annual && s.Zoom == 0 && s.MaxZoom == 0 {
		s.Zoom, s.MaxZoom = e.host.CurrentZoom(), e.host.MaxZoom()
	}
	offsets, err := detect.Detect(buf, kind, s)
	return offsets, classify(err)
}

// MapToCoordinates places offsets along the segment a1-a2 at zoom, measured
// from the western anchor. Backward reverses the order.
func (e *Engine) MapToCoordinates(offsets []int, a1, a2 LatLng, dir Direction, zoom int) ([]LatLng, error) {
	points, err := placement.Map(offsets, a1, a2, dir, e.host, zoom)
	return points, classify(err)
}

// Commit maps offsets like MapToCoordinates and inserts the points into
// sink in order, stopping at the first error. It returns the number of
// points inserted.
func (e *Engine) Commit(offsets []int, a1, a2 LatLng, dir Direction, zoom int, sink PointSink) (int, error) {
	points, err := e.MapToCoordinates(offsets, a1, a2, dir, zoom)
	if err != nil {
		return 0, err
	}
	return placement.Commit(sink, points)
}
