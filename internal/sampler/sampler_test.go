package sampler

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/raster"
	"github.com/dendrolab/ringscan/internal/tile"
)

func sample(t *testing.T, s *Sampler, req Request) *Result {
	t.Helper()
	res, err := s.Sample(context.Background(), req)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	return res
}

func horizontal() Request {
	return Request{A: at(20, 40), B: at(120.7, 40), BandHeight: 10, Zoom: testZoom}
}

func TestSampleHorizontalContent(t *testing.T) {
	h := newFakeHost(loadEager)
	res := sample(t, New(h), horizontal())
	buf := res.Buffer
	if buf.Width != 100 || buf.Height != 10 {
		t.Fatalf("size = %dx%d, want 100x10", buf.Width, buf.Height)
	}
	if res.Subdivisions != 1 {
		t.Errorf("Subdivisions = %d, want 1", res.Subdivisions)
	}
	// Row 0 is the top edge of the band, 5 px above the segment.
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			want := h.pixel(20+x, 35+y)
			r, g, b := buf.At(x, y)
			if r != want.R || g != want.G || b != want.B {
				t.Fatalf("At(%d,%d) = (%d,%d,%d), want (%d,%d,%d)", x, y, r, g, b, want.R, want.G, want.B)
			}
		}
	}
}

func TestSampleSwapInvariance(t *testing.T) {
	h := newFakeHost(loadEager)
	s := New(h)
	fwd := sample(t, s, horizontal())
	req := horizontal()
	req.A, req.B = req.B, req.A
	rev := sample(t, s, req)

	if fwd.Swapped || !rev.Swapped {
		t.Errorf("Swapped = %v, %v, want false, true", fwd.Swapped, rev.Swapped)
	}
	if !bytes.Equal(fwd.Buffer.Pix, rev.Buffer.Pix) {
		t.Error("buffer depends on anchor order")
	}
}

func TestSampleDiagonalDimensions(t *testing.T) {
	h := newFakeHost(loadEager)
	h.pixel = func(int, int) color.RGBA { return color.RGBA{77, 77, 77, 255} }
	tests := []struct {
		name   string
		ax, ay float64
		bx, by float64
		height int
		wantW  int
	}{
		{"down right", 30, 30, 130, 103, 12, 123},
		{"up right", 40, 300, 200, 120, 20, 240},
		{"vertical", 250, 100, 250, 180.5, 9, 80},
		{"tall band", 100, 200, 300, 210, 60, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := sample(t, New(h), Request{A: at(tt.ax, tt.ay), B: at(tt.bx, tt.by), BandHeight: tt.height, Zoom: testZoom})
			buf := res.Buffer
			if buf.Width != tt.wantW || buf.Height != tt.height {
				t.Fatalf("size = %dx%d, want %dx%d", buf.Width, buf.Height, tt.wantW, tt.height)
			}
			for y := 2; y < buf.Height-2; y++ {
				for x := 2; x < buf.Width-2; x++ {
					if r, _, _ := buf.At(x, y); r != 77 {
						t.Fatalf("At(%d,%d) red = %d, want 77", x, y, r)
					}
				}
			}
		})
	}
}

func TestSampleSubdivisionMatchesSingleCapture(t *testing.T) {
	h := newFakeHost(loadEager)
	single := sample(t, New(h), horizontal())

	// 100 columns plus 2*4 margin only fit a 40 px canvas in 4 parts.
	split := sample(t, New(h, WithLimits(raster.Limits{MaxDimension: 40})), horizontal())
	if split.Subdivisions != 4 {
		t.Errorf("Subdivisions = %d, want 4", split.Subdivisions)
	}
	if split.Buffer.Width != single.Buffer.Width || split.Buffer.Height != single.Buffer.Height {
		t.Fatalf("split size = %dx%d, want %dx%d",
			split.Buffer.Width, split.Buffer.Height, single.Buffer.Width, single.Buffer.Height)
	}
	if !bytes.Equal(split.Buffer.Pix, single.Buffer.Pix) {
		t.Error("subdivided capture differs from single capture")
	}

	// Uneven split: 100 columns in parts of 34 leaves a short last part.
	uneven := sample(t, New(h, WithLimits(raster.Limits{MaxDimension: 42})), horizontal())
	if uneven.Subdivisions != 3 || uneven.Buffer.Width != 100 {
		t.Errorf("uneven split = %d parts, width %d, want 3 parts, width 100", uneven.Subdivisions, uneven.Buffer.Width)
	}
	if !bytes.Equal(uneven.Buffer.Pix, single.Buffer.Pix) {
		t.Error("uneven subdivided capture differs from single capture")
	}
}

func TestSampleCaptureTooLarge(t *testing.T) {
	h := newFakeHost(loadEager)
	s := New(h, WithLimits(raster.Limits{MaxDimension: 12}), WithMaxSubdivisions(8))
	_, err := s.Sample(context.Background(), horizontal())
	if !errors.Is(err, ErrCaptureAreaTooLarge) {
		t.Errorf("Sample err = %v, want %v", err, ErrCaptureAreaTooLarge)
	}
	if got := len(h.requestLog()); got != 0 {
		t.Errorf("%d tiles requested for a rejected capture", got)
	}
}

func TestSampleDegenerate(t *testing.T) {
	h := newFakeHost(loadEager)
	s := New(h)
	p := at(100, 100)
	tests := []struct {
		name string
		req  Request
	}{
		{"identical anchors", Request{A: p, B: p, BandHeight: 20, Zoom: testZoom}},
		{"sub-pixel segment", Request{A: p, B: at(100.5, 100), BandHeight: 20, Zoom: testZoom}},
		{"zero height", Request{A: p, B: at(200, 100), BandHeight: 0, Zoom: testZoom}},
		{"negative height", Request{A: p, B: at(200, 100), BandHeight: -3, Zoom: testZoom}},
		{"zoom too deep", Request{A: p, B: at(200, 100), BandHeight: 5, Zoom: testZoom + 1}},
		{"bad filter", Request{A: p, B: at(200, 100), BandHeight: 5, Zoom: testZoom, CSS: "brightness(x)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Sample(context.Background(), tt.req)
			if !errors.Is(err, ErrDegenerateInput) {
				t.Errorf("Sample err = %v, want %v", err, ErrDegenerateInput)
			}
			if res != nil {
				t.Error("Sample returned a result with an error")
			}
		})
	}
}

func TestSampleLoadsMissingTiles(t *testing.T) {
	eager := sample(t, New(newFakeHost(loadEager)), horizontal())

	for _, mode := range []loadMode{loadAsync, loadSync} {
		h := newFakeHost(mode)
		res := sample(t, New(h), horizontal())
		if !bytes.Equal(res.Buffer.Pix, eager.Buffer.Pix) {
			t.Errorf("mode %d: capture differs from eager capture", mode)
		}

		reqs := h.requestLog()
		if res.Waits != len(reqs) {
			t.Errorf("mode %d: Waits = %d, requests = %d", mode, res.Waits, len(reqs))
		}
		seen := map[tile.Coord]bool{}
		for _, c := range reqs {
			if seen[c] {
				t.Errorf("mode %d: tile %v requested twice", mode, c)
			}
			seen[c] = true
		}
		// Rows 35..45 stay in tile row 2; columns 20..120 cross tiles 1..7.
		if res.TilesPlaced != 7 || len(reqs) != 7 {
			t.Errorf("mode %d: placed %d, requested %d, want 7 each", mode, res.TilesPlaced, len(reqs))
		}
	}
}

func TestSampleTallBandLoadsInteriorTiles(t *testing.T) {
	h := newFakeHost(loadAsync)
	h.pixel = func(int, int) color.RGBA { return color.RGBA{200, 200, 200, 255} }
	res := sample(t, New(h), Request{A: at(40, 200), B: at(200, 200), BandHeight: 100, Zoom: testZoom})
	buf := res.Buffer
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			if r, _, _ := buf.At(x, y); r != 200 {
				t.Fatalf("At(%d,%d) red = %d, want 200 (tile never placed)", x, y, r)
			}
		}
	}
}

func TestSampleFailedTile(t *testing.T) {
	h := newFakeHost(loadAsync)
	errNet := errors.New("connection reset")
	h.failing[tile.Coord{X: 3, Y: 2, Z: testZoom}] = errNet

	_, err := New(h).Sample(context.Background(), horizontal())
	if !errors.Is(err, ErrResourceUnavailable) || !errors.Is(err, errNet) {
		t.Errorf("Sample err = %v, want ResourceUnavailable wrapping %v", err, errNet)
	}
}

func TestSampleTileTimeout(t *testing.T) {
	h := newFakeHost(loadAsync)
	h.silent[tile.Coord{X: 2, Y: 2, Z: testZoom}] = true

	start := time.Now()
	_, err := New(h, WithTileWaitTimeout(50*time.Millisecond)).Sample(context.Background(), horizontal())
	if !errors.Is(err, ErrResourceUnavailable) || !errors.Is(err, ErrTileTimeout) {
		t.Errorf("Sample err = %v, want ResourceUnavailable wrapping %v", err, ErrTileTimeout)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout took far longer than configured")
	}
}

func TestSampleSuperseded(t *testing.T) {
	h := newFakeHost(loadAsync)
	stuck := tile.Coord{X: 1, Y: 2, Z: testZoom}
	h.silent[stuck] = true
	s := New(h)

	first := make(chan error, 1)
	go func() {
		_, err := s.Sample(context.Background(), horizontal())
		first <- err
	}()
	for c := range h.requested {
		if c == stuck {
			break
		}
	}

	// A newer session elsewhere supersedes the waiting one.
	res, err := s.Sample(context.Background(), Request{A: at(300, 300), B: at(340, 300), BandHeight: 4, Zoom: testZoom})
	if err != nil {
		t.Fatalf("second Sample: %v", err)
	}
	if res.Buffer.Width != 40 {
		t.Errorf("second width = %d, want 40", res.Buffer.Width)
	}

	select {
	case err := <-first:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("first Sample err = %v, want %v", err, ErrSuperseded)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first session did not stop")
	}
}

func TestSampleContextCancel(t *testing.T) {
	h := newFakeHost(loadAsync)
	h.silent[tile.Coord{X: 1, Y: 2, Z: testZoom}] = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := New(h).Sample(ctx, horizontal())
		done <- err
	}()
	<-h.requested
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Sample err = %v, want %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Sample ignored cancellation")
	}
}

func TestSampleAppliesFilter(t *testing.T) {
	h := newFakeHost(loadEager)
	plain := sample(t, New(h), horizontal())
	req := horizontal()
	req.CSS = "invert(100%)"
	inv := sample(t, New(h), req)
	for i := range plain.Buffer.Pix {
		if inv.Buffer.Pix[i] != 255-plain.Buffer.Pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, inv.Buffer.Pix[i], 255-plain.Buffer.Pix[i])
		}
	}
}

func TestScanResumesAtInterruptedStep(t *testing.T) {
	h := newFakeHost(loadAsync)
	g, err := geom.NewDetectionGeometry(geom.Pt(20, 40), geom.Pt(120.7, 40), 10)
	if err != nil {
		t.Fatal(err)
	}
	canvas, err := raster.NewCanvas(100+2*DefaultMargin, 10+2*DefaultMargin, raster.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	n := 1 << testZoom
	missing := tile.Coord{X: 5, Y: 2, Z: testZoom} // x in [80,96)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if c := (tile.Coord{X: x, Y: y, Z: testZoom}); c != missing {
				h.markResident(c)
			}
		}
	}

	sc := newScan(h, g, testZoom, canvas, DefaultMargin)
	sc.reset(0, g.Width())
	perLine := sc.width + 1

	c, done := sc.advance()
	if done || c != missing {
		t.Fatalf("advance() = %v, %v, want %v, false", c, done, missing)
	}
	// Segment x = 20 + step reaches tile column 5 at step 60 on the centre line.
	if sc.line != 0 || sc.step != 60 {
		t.Fatalf("suspended at line %d step %d, want line 0 step 60", sc.line, sc.step)
	}
	if sc.steps != 60 {
		t.Errorf("steps before suspension = %d, want 60", sc.steps)
	}

	seen := len(h.lookupLog())
	h.markResident(missing)
	if _, done := sc.advance(); !done {
		t.Fatal("advance() after load did not finish")
	}
	if first := h.lookupLog()[seen]; first != missing {
		t.Errorf("first lookup after resuming = %v, want %v", first, missing)
	}
	// One interrupted pass plus the verifying pass, each walking every
	// step of every line exactly once.
	if sc.passes != 2 {
		t.Errorf("passes = %d, want 2", sc.passes)
	}
	if want := sc.passes * len(sc.offsets) * perLine; sc.steps != want {
		t.Errorf("steps = %d, want %d", sc.steps, want)
	}
}

func TestSamplePinsAwaitedTiles(t *testing.T) {
	h := newPinningHost(loadAsync)
	res := sample(t, New(h), horizontal())
	if h.pins != res.Waits {
		t.Errorf("pins = %d, want one per wait (%d)", h.pins, res.Waits)
	}
	if n := h.stillPinned(); n != 0 {
		t.Errorf("%d tiles still pinned after the capture", n)
	}
}

func TestSampleUnpinsOnFailure(t *testing.T) {
	h := newPinningHost(loadAsync)
	h.failing[tile.Coord{X: 3, Y: 2, Z: testZoom}] = errors.New("connection reset")
	if _, err := New(h).Sample(context.Background(), horizontal()); !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("Sample error = %v, want %v", err, ErrResourceUnavailable)
	}
	if n := h.stillPinned(); n != 0 {
		t.Errorf("%d tiles still pinned after the failure", n)
	}
}
