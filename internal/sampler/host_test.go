package sampler

import (
	"image"
	"image/color"
	"sync"

	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/tile"
)

const (
	testTileSize = 16
	testZoom     = 5 // 32x32 tiles, 512 px world
)

type loadMode int

const (
	loadEager loadMode = iota // every tile is resident from the start
	loadAsync                 // requested tiles load on another goroutine
	loadSync                  // requested tiles load inside RequestViewCenter
)

// fakeHost is an in-memory viewer over a synthetic pyramid.
type fakeHost struct {
	mu       sync.Mutex
	mode     loadMode
	resident map[tile.Coord]bool
	failing  map[tile.Coord]error
	silent   map[tile.Coord]bool
	requests []tile.Coord
	lookups  []tile.Coord
	subs     map[int]func(TileEvent)
	nextSub  int
	css      string

	// pixel returns the colour of a global pixel.
	pixel func(x, y int) color.RGBA

	// requested is signalled after every RequestViewCenter call.
	requested chan tile.Coord
}

func newFakeHost(mode loadMode) *fakeHost {
	return &fakeHost{
		mode:     mode,
		resident: make(map[tile.Coord]bool),
		failing:  make(map[tile.Coord]error),
		silent:   make(map[tile.Coord]bool),
		subs:     make(map[int]func(TileEvent)),
		pixel: func(x, y int) color.RGBA {
			return color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255}
		},
		requested: make(chan tile.Coord, 1024),
	}
}

func (h *fakeHost) MinZoom() int     { return 0 }
func (h *fakeHost) MaxZoom() int     { return testZoom }
func (h *fakeHost) CurrentZoom() int { return testZoom }
func (h *fakeHost) TileSize() int    { return testTileSize }

func (h *fakeHost) Project(ll geom.LatLng, zoom int) geom.Point {
	return geom.Simple{}.Project(ll, zoom)
}

func (h *fakeHost) Unproject(p geom.Point, zoom int) geom.LatLng {
	return geom.Simple{}.Unproject(p, zoom)
}

func (h *fakeHost) FilterAdjustments() string { return h.css }

func (h *fakeHost) IsTileResident(c tile.Coord) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lookups = append(h.lookups, c)
	return h.isResidentLocked(c)
}

func (h *fakeHost) isResidentLocked(c tile.Coord) bool {
	return h.mode == loadEager || h.resident[c]
}

func (h *fakeHost) TileImage(c tile.Coord) (*image.RGBA, bool) {
	h.mu.Lock()
	ok := h.isResidentLocked(c)
	h.mu.Unlock()
	if !ok {
		return nil, false
	}
	img := image.NewRGBA(image.Rect(0, 0, testTileSize, testTileSize))
	for y := 0; y < testTileSize; y++ {
		for x := 0; x < testTileSize; x++ {
			img.SetRGBA(x, y, h.pixel(c.X*testTileSize+x, c.Y*testTileSize+y))
		}
	}
	return img, true
}

func (h *fakeHost) OnTileEvent(fn func(TileEvent)) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *fakeHost) RequestViewCenter(ll geom.LatLng, zoom int) {
	c := tile.At(h.Project(ll, zoom), zoom, testTileSize)
	h.mu.Lock()
	h.requests = append(h.requests, c)
	failErr, fails := h.failing[c]
	silent := h.silent[c]
	mode := h.mode
	h.mu.Unlock()
	h.requested <- c

	if silent {
		return
	}
	load := func() {
		ev := TileEvent{Coord: c, Err: failErr}
		h.mu.Lock()
		if !fails {
			h.resident[c] = true
		}
		subs := make([]func(TileEvent), 0, len(h.subs))
		for _, fn := range h.subs {
			subs = append(subs, fn)
		}
		h.mu.Unlock()
		for _, fn := range subs {
			fn(ev)
		}
	}
	if mode == loadSync {
		load()
		return
	}
	go load()
}

func (h *fakeHost) markResident(cs ...tile.Coord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range cs {
		h.resident[c] = true
	}
}

// lookupLog returns the tiles passed to IsTileResident so far.
func (h *fakeHost) lookupLog() []tile.Coord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]tile.Coord(nil), h.lookups...)
}

// pinningHost is a fakeHost that also implements Pinner.
type pinningHost struct {
	*fakeHost

	pinMu  sync.Mutex
	pins   int
	pinned map[tile.Coord]int
}

func newPinningHost(mode loadMode) *pinningHost {
	return &pinningHost{fakeHost: newFakeHost(mode), pinned: make(map[tile.Coord]int)}
}

func (h *pinningHost) PinTile(c tile.Coord) {
	h.pinMu.Lock()
	defer h.pinMu.Unlock()
	h.pins++
	h.pinned[c]++
}

func (h *pinningHost) UnpinTile(c tile.Coord) {
	h.pinMu.Lock()
	defer h.pinMu.Unlock()
	if h.pinned[c]--; h.pinned[c] <= 0 {
		delete(h.pinned, c)
	}
}

// stillPinned returns the number of tiles pinned and not yet unpinned.
func (h *pinningHost) stillPinned() int {
	h.pinMu.Lock()
	defer h.pinMu.Unlock()
	return len(h.pinned)
}

func (h *fakeHost) requestLog() []tile.Coord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]tile.Coord(nil), h.requests...)
}

// at converts a global pixel position at testZoom to a LatLng.
func at(x, y float64) geom.LatLng {
	return geom.Simple{}.Unproject(geom.Pt(x, y), testZoom)
}
