package sampler

import (
	"image"

	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/raster"
	"github.com/dendrolab/ringscan/internal/tile"
)

// scan is the resumable walk over one sub-segment. All of its progress lives
// in the struct, so advance can return at a missing tile and be called again
// later to continue from exactly the same line and step.
type scan struct {
	host     Host
	g        geom.DetectionGeometry
	zoom     int
	tileSize int
	offsets  []float64 // scan line offsets along the normal

	t0     float64 // start of the sub-segment along the segment
	width  int     // columns captured from this sub-segment
	xf     geom.Affine
	canvas *raster.Canvas
	margin int

	line   int
	step   int
	clean  bool // no tile was missing since the current pass began
	passes int
	steps  int // steps walked on this sub-segment, over all passes
	placed map[tile.Coord]bool
}

func newScan(host Host, g geom.DetectionGeometry, zoom int, canvas *raster.Canvas, margin int) *scan {
	ts := host.TileSize()
	return &scan{
		host:     host,
		g:        g,
		zoom:     zoom,
		tileSize: ts,
		offsets:  g.LineOffsets(ts),
		canvas:   canvas,
		margin:   margin,
	}
}

// reset prepares the walk of the sub-segment [t0, t0+width).
func (s *scan) reset(t0 float64, width int) {
	s.t0 = t0
	s.width = width
	s.xf = s.g.CanvasTransform(t0, s.margin)
	s.line, s.step = 0, 0
	s.clean = true
	s.passes = 1
	s.steps = 0
	s.placed = make(map[tile.Coord]bool)
	s.canvas.Clear()
}

// advance composites resident tiles from the current position onwards.
// It returns a missing tile, leaving the position on the step that needs
// it, or done once a whole pass over every line found nothing missing.
func (s *scan) advance() (missing tile.Coord, done bool) {
	for {
		for s.line < len(s.offsets) {
			off := s.offsets[s.line]
			for s.step <= s.width {
				c := tile.At(s.g.At(s.t0+float64(s.step), off), s.zoom, s.tileSize)
				if c.Valid() && !s.placed[c] {
					img, ok := s.residentImage(c)
					if !ok {
						s.clean = false
						return c, false
					}
					s.canvas.DrawTransformed(img, c.Origin(s.tileSize), s.xf)
					s.placed[c] = true
				}
				s.step++
				s.steps++
			}
			s.line++
			s.step = 0
		}
		if s.clean {
			return tile.Coord{}, true
		}
		// Something was missing during this pass; verify with a fresh one.
		s.line, s.step = 0, 0
		s.clean = true
		s.passes++
	}
}

func (s *scan) residentImage(c tile.Coord) (*image.RGBA, bool) {
	if !s.host.IsTileResident(c) {
		return nil, false
	}
	return s.host.TileImage(c)
}

// capture extracts the band of the finished sub-segment.
func (s *scan) capture() *raster.SampleBuffer {
	m := s.margin
	return s.canvas.Extract(image.Rect(m, m, m+s.width, m+int(s.g.Height)))
}
