package raster

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
)

// ErrHeightMismatch is returned when concatenating buffers of different heights.
var ErrHeightMismatch = errors.New("raster: sample heights differ")

// SampleBuffer is a height x width grid of RGB triples, row-major.
// Column x is x pixels along the sampled segment; row y is y pixels across it.
type SampleBuffer struct {
	Width  int
	Height int
	Pix    []uint8 // 3 bytes per pixel
}

// NewSampleBuffer allocates a black buffer.
func NewSampleBuffer(width, height int) *SampleBuffer {
	return &SampleBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

func (b *SampleBuffer) offset(x, y int) int {
	return (y*b.Width + x) * 3
}

// At returns the RGB triple at column x, row y.
func (b *SampleBuffer) At(x, y int) (r, g, bl uint8) {
	i := b.offset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Set stores an RGB triple at column x, row y.
func (b *SampleBuffer) Set(x, y int, r, g, bl uint8) {
	i := b.offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = r, g, bl
}

// Luminance returns (R+G+B)/3 at column x, row y.
func (b *SampleBuffer) Luminance(x, y int) float64 {
	i := b.offset(x, y)
	return (float64(b.Pix[i]) + float64(b.Pix[i+1]) + float64(b.Pix[i+2])) / 3
}

// Row returns the luminance of every column in row y, reusing the backing
// array of dst when it is large enough.
func (b *SampleBuffer) Row(dst []float64, y int) []float64 {
	dst = dst[:0]
	for x := 0; x < b.Width; x++ {
		dst = append(dst, b.Luminance(x, y))
	}
	return dst
}

// FromImage copies the rectangle r of img into a new buffer, dropping alpha.
// Pixels of r outside img read as black.
func FromImage(img *image.RGBA, r image.Rectangle) *SampleBuffer {
	buf := NewSampleBuffer(r.Dx(), r.Dy())
	for y := 0; y < buf.Height; y++ {
		sy := r.Min.Y + y
		for x := 0; x < buf.Width; x++ {
			sx := r.Min.X + x
			if !(image.Point{sx, sy}).In(img.Rect) {
				continue
			}
			i := img.PixOffset(sx, sy)
			buf.Set(x, y, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		}
	}
	return buf
}

// ConcatColumns joins buffers left to right. All parts must share a height.
func ConcatColumns(parts ...*SampleBuffer) (*SampleBuffer, error) {
	if len(parts) == 0 {
		return nil, errors.New("raster: nothing to concatenate")
	}
	height := parts[0].Height
	width := 0
	for i, p := range parts {
		if p.Height != height {
			return nil, fmt.Errorf("%w: part %d has %d rows, want %d", ErrHeightMismatch, i, p.Height, height)
		}
		width += p.Width
	}

	out := NewSampleBuffer(width, height)
	for y := 0; y < height; y++ {
		dst := out.Pix[out.offset(0, y):]
		for _, p := range parts {
			row := p.Pix[p.offset(0, y) : p.offset(0, y)+p.Width*3]
			dst = dst[copy(dst, row):]
		}
	}
	return out, nil
}

// ToRGBA converts the buffer to an opaque image.
func (b *SampleBuffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+3, j+4 {
		img.Pix[j] = b.Pix[i]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// EncodePNG writes the buffer as a PNG image.
func (b *SampleBuffer) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.ToRGBA())
}
