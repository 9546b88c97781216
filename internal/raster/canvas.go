// Package raster holds the sampling canvas and the SampleBuffer it produces.
package raster

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/dendrolab/ringscan/internal/geom"
)

// ErrCanvasTooLarge is returned when a canvas would exceed the surface limits.
var ErrCanvasTooLarge = errors.New("raster: canvas exceeds surface limits")

// Default surface limits.
const (
	DefaultMaxDimension = 8192
	DefaultMaxArea      = 8192 * 4096
)

// Limits bounds the size of a sampling canvas.
type Limits struct {
	MaxDimension int // largest width or height
	MaxArea      int // largest width*height
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxDimension: DefaultMaxDimension, MaxArea: DefaultMaxArea}
}

// Allows reports whether a width x height canvas fits inside l.
// Zero fields are unlimited.
func (l Limits) Allows(width, height int) bool {
	if l.MaxDimension > 0 && (width > l.MaxDimension || height > l.MaxDimension) {
		return false
	}
	if l.MaxArea > 0 && width*height > l.MaxArea {
		return false
	}
	return true
}

// Canvas is an RGBA surface that tiles are composited onto.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas allocates a transparent canvas. It fails with ErrCanvasTooLarge
// when the size is outside lim, and rejects non-positive sizes.
func NewCanvas(width, height int, lim Limits) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid canvas size %dx%d", width, height)
	}
	if !lim.Allows(width, height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasTooLarge, width, height)
	}
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// Width returns the canvas width.
func (c *Canvas) Width() int { return c.img.Rect.Dx() }

// Height returns the canvas height.
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Clear resets every pixel to transparent.
func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

// DrawTransformed composites src, whose top-left corner sits at origin in
// global pixel space, onto the canvas. m maps global pixels to canvas pixels.
func (c *Canvas) DrawTransformed(src image.Image, origin geom.Point, m geom.Affine) {
	s2d := m.Multiply(geom.Translate(origin.X, origin.Y))
	if s2d.B == 0 && s2d.D == 0 && s2d.A == 1 && s2d.E == 1 &&
		s2d.C == float64(int(s2d.C)) && s2d.F == float64(int(s2d.F)) {
		// Pure integer translation: copy without resampling.
		dp := image.Pt(int(s2d.C), int(s2d.F))
		r := src.Bounds()
		draw.Draw(c.img, image.Rectangle{Min: dp, Max: dp.Add(r.Size())}, src, r.Min, draw.Over)
		return
	}
	draw.BiLinear.Transform(c.img, s2d.Aff3(), src, src.Bounds(), draw.Over, nil)
}

// Extract copies the rectangle r of the canvas into a new SampleBuffer.
// Parts of r outside the canvas read as black.
func (c *Canvas) Extract(r image.Rectangle) *SampleBuffer {
	return FromImage(c.img, r)
}
