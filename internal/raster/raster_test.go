package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"reflect"
	"testing"

	"github.com/dendrolab/ringscan/internal/geom"
)

func TestNewCanvasLimits(t *testing.T) {
	lim := Limits{MaxDimension: 100, MaxArea: 5000}
	tests := []struct {
		name    string
		w, h    int
		wantErr error
	}{
		{"fits", 100, 50, nil},
		{"too wide", 101, 10, ErrCanvasTooLarge},
		{"too tall", 10, 101, ErrCanvasTooLarge},
		{"too much area", 80, 80, ErrCanvasTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCanvas(tt.w, tt.h, lim)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewCanvas err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (c.Width() != tt.w || c.Height() != tt.h) {
				t.Errorf("size = %dx%d, want %dx%d", c.Width(), c.Height(), tt.w, tt.h)
			}
		})
	}

	if _, err := NewCanvas(0, 10, lim); err == nil {
		t.Error("NewCanvas(0, 10) succeeded, want error")
	}
	if !(Limits{}).Allows(1<<20, 1<<20) {
		t.Error("zero Limits should allow any size")
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDrawTransformedTranslation(t *testing.T) {
	c, err := NewCanvas(20, 20, DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	src := solid(4, 4, color.RGBA{200, 100, 50, 255})
	// Tile at global (100, 100), canvas shifted so it lands at (5, 6).
	c.DrawTransformed(src, geom.Pt(100, 100), geom.Translate(-95, -94))

	buf := c.Extract(image.Rect(0, 0, 20, 20))
	if r, g, b := buf.At(5, 6); r != 200 || g != 100 || b != 50 {
		t.Errorf("At(5,6) = (%d,%d,%d), want (200,100,50)", r, g, b)
	}
	if r, g, b := buf.At(8, 9); r != 200 || g != 100 || b != 50 {
		t.Errorf("At(8,9) = (%d,%d,%d), want (200,100,50)", r, g, b)
	}
	if r, _, _ := buf.At(9, 9); r != 0 {
		t.Errorf("At(9,9) red = %d, want 0", r)
	}
	if r, _, _ := buf.At(4, 6); r != 0 {
		t.Errorf("At(4,6) red = %d, want 0", r)
	}
}

func TestDrawTransformedRotation(t *testing.T) {
	c, err := NewCanvas(64, 64, DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	src := solid(64, 64, color.RGBA{90, 90, 90, 255})
	// Rotate a quarter turn around the canvas centre; a uniform tile that
	// covers the canvas must still cover its interior.
	m := geom.Translate(32, 32).Multiply(geom.Rotate(math.Pi / 2)).Multiply(geom.Translate(-32, -32))
	c.DrawTransformed(src, geom.Pt(0, 0), m)

	buf := c.Extract(image.Rect(0, 0, 64, 64))
	if r, _, _ := buf.At(32, 32); r != 90 {
		t.Errorf("centre red = %d, want 90", r)
	}
	if r, _, _ := buf.At(10, 50); r != 90 {
		t.Errorf("interior red = %d, want 90", r)
	}
}

func TestExtractOutsideIsBlack(t *testing.T) {
	c, _ := NewCanvas(4, 4, DefaultLimits())
	c.DrawTransformed(solid(4, 4, color.RGBA{255, 255, 255, 255}), geom.Pt(0, 0), geom.Identity())
	buf := c.Extract(image.Rect(2, 2, 6, 6))
	if buf.Width != 4 || buf.Height != 4 {
		t.Fatalf("size = %dx%d, want 4x4", buf.Width, buf.Height)
	}
	if r, _, _ := buf.At(0, 0); r != 255 {
		t.Errorf("inside red = %d, want 255", r)
	}
	if r, _, _ := buf.At(3, 3); r != 0 {
		t.Errorf("outside red = %d, want 0", r)
	}

	c.Clear()
	if r, _, _ := c.Extract(image.Rect(0, 0, 1, 1)).At(0, 0); r != 0 {
		t.Errorf("after Clear red = %d, want 0", r)
	}
}

func TestLuminance(t *testing.T) {
	buf := NewSampleBuffer(2, 1)
	buf.Set(0, 0, 30, 60, 90)
	buf.Set(1, 0, 255, 255, 255)
	if got := buf.Luminance(0, 0); got != 60 {
		t.Errorf("Luminance(0,0) = %v, want 60", got)
	}
	row := buf.Row(nil, 0)
	if len(row) != 2 || row[1] != 255 {
		t.Errorf("Row = %v, want [60 255]", row)
	}
}

func TestRowReusesDestination(t *testing.T) {
	buf := NewSampleBuffer(3, 2)
	buf.Set(2, 0, 90, 90, 90)
	buf.Set(0, 1, 30, 30, 30)

	dst := make([]float64, buf.Width)
	first := buf.Row(dst, 0)
	if want := []float64{0, 0, 90}; !reflect.DeepEqual(first, want) {
		t.Errorf("Row(dst, 0) = %v, want %v", first, want)
	}
	second := buf.Row(first, 1)
	if want := []float64{30, 0, 0}; !reflect.DeepEqual(second, want) {
		t.Errorf("Row(first, 1) = %v, want %v", second, want)
	}
	if &second[0] != &dst[0] {
		t.Error("Row allocated although dst had capacity")
	}
}

func TestConcatColumns(t *testing.T) {
	a := NewSampleBuffer(2, 2)
	b := NewSampleBuffer(3, 2)
	a.Set(1, 1, 1, 2, 3)
	b.Set(0, 0, 4, 5, 6)
	b.Set(2, 1, 7, 8, 9)

	out, err := ConcatColumns(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 5 || out.Height != 2 {
		t.Fatalf("size = %dx%d, want 5x2", out.Width, out.Height)
	}
	tests := []struct {
		x, y    int
		r, g, b uint8
	}{
		{1, 1, 1, 2, 3},
		{2, 0, 4, 5, 6},
		{4, 1, 7, 8, 9},
		{0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		r, g, bl := out.At(tt.x, tt.y)
		if r != tt.r || g != tt.g || bl != tt.b {
			t.Errorf("At(%d,%d) = (%d,%d,%d), want (%d,%d,%d)", tt.x, tt.y, r, g, bl, tt.r, tt.g, tt.b)
		}
	}

	if _, err := ConcatColumns(a, NewSampleBuffer(1, 3)); !errors.Is(err, ErrHeightMismatch) {
		t.Errorf("ConcatColumns mismatched err = %v, want %v", err, ErrHeightMismatch)
	}
	if _, err := ConcatColumns(); err == nil {
		t.Error("ConcatColumns() succeeded, want error")
	}
}

func TestEncodePNG(t *testing.T) {
	buf := NewSampleBuffer(3, 2)
	buf.Set(2, 1, 10, 20, 30)
	var out bytes.Buffer
	if err := buf.EncodePNG(&out); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, a := img.At(2, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 || a>>8 != 255 {
		t.Errorf("decoded = (%d,%d,%d,%d), want (10,20,30,255)", r>>8, g>>8, b>>8, a>>8)
	}
}
