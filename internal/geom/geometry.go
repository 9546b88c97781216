package geom

import (
	"errors"
	"math"
)

// ErrDegenerate is returned for a zero-length segment or a non-positive band height.
var ErrDegenerate = errors.New("geom: degenerate sampling geometry")

// DetectionGeometry is the oriented sampling rectangle around a measurement
// segment, in pixel space at the sampling zoom. It is derived from the
// anchors and band height and is never stored.
type DetectionGeometry struct {
	Start, End Point
	Unit       Point   // direction from Start to End
	Normal     Point   // Unit rotated a quarter turn; rows grow along it
	Length     float64 // |End - Start| in pixels
	Height     float64 // band height in pixels
	Angle      float64 // atan2 of Unit, radians

	// Corners are start-top, end-top, end-bottom, start-bottom.
	Corners [4]Point
}

// WestFirst orders two pixel positions so the westmost comes first.
// Ties on x fall back to the northmost. swapped reports whether the order changed.
func WestFirst(a, b Point) (west, east Point, swapped bool) {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		return b, a, true
	}
	return a, b, false
}

// NewDetectionGeometry builds the sampling rectangle from start to end with
// the given band height. The caller decides the anchor order.
func NewDetectionGeometry(start, end Point, height float64) (DetectionGeometry, error) {
	d := end.Sub(start)
	length := d.Length()
	if length < 1 || height <= 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return DetectionGeometry{}, ErrDegenerate
	}

	unit := d.Mul(1 / length)
	normal := unit.Perp()
	half := normal.Mul(height / 2)

	return DetectionGeometry{
		Start:  start,
		End:    end,
		Unit:   unit,
		Normal: normal,
		Length: length,
		Height: height,
		Angle:  math.Atan2(unit.Y, unit.X),
		Corners: [4]Point{
			start.Sub(half),
			end.Sub(half),
			end.Add(half),
			start.Add(half),
		},
	}, nil
}

// Width is the number of whole pixel columns along the segment.
func (g DetectionGeometry) Width() int {
	return int(math.Floor(g.Length))
}

// At returns the point t pixels along the segment and offset pixels along the normal.
func (g DetectionGeometry) At(t, offset float64) Point {
	return g.Start.Add(g.Unit.Mul(t)).Add(g.Normal.Mul(offset))
}

// LineOffsets returns the normal offsets of the scan lines: centre, top and
// bottom, followed by interior lines spaced at most tileSize/2 apart when the
// band is taller than that.
func (g DetectionGeometry) LineOffsets(tileSize int) []float64 {
	half := g.Height / 2
	offsets := []float64{0, -half, half}

	spacing := float64(tileSize) / 2
	if spacing <= 0 || g.Height <= spacing {
		return offsets
	}
	n := int(math.Ceil(g.Height / spacing))
	step := g.Height / float64(n)
	for i := 1; i < n; i++ {
		off := -half + float64(i)*step
		if math.Abs(off) < 1e-9 {
			continue
		}
		offsets = append(offsets, off)
	}
	return offsets
}

// CanvasTransform maps image pixels into the axis-aligned canvas of the
// sub-segment starting t0 pixels along the segment. The sub-segment's
// top-left sample lands at (margin, margin).
func (g DetectionGeometry) CanvasTransform(t0 float64, margin int) Affine {
	origin := g.At(t0, 0)
	m := float64(margin)
	return Translate(m, m+g.Height/2).
		Multiply(Rotate(-g.Angle)).
		Multiply(Translate(-origin.X, -origin.Y))
}
