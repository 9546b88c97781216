// Package viewer is a headless tile viewer: it loads tiles through a
// tilesource.Source, enhances them with a convolve.Pipeline and keeps the
// results in a resident store. It implements sampler.Host.
package viewer

import (
	"context"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/logging"
	"github.com/dendrolab/ringscan/internal/sampler"
	"github.com/dendrolab/ringscan/internal/tile"
	"github.com/dendrolab/ringscan/internal/tilesource"
)

// Viewer loads and holds enhanced tiles.
type Viewer struct {
	opts     options
	source   *tilesource.Source
	pipeline *convolve.Pipeline
	store    *tile.Store

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	mu      sync.Mutex
	subs    map[int]func(sampler.TileEvent)
	nextSub int
	zoom    int
	css     string
}

var (
	_ sampler.Host   = (*Viewer)(nil)
	_ sampler.Pinner = (*Viewer)(nil)
)

// New creates a viewer. The pipeline's sink is taken over so tiles
// re-rendered after a pass change replace the resident pixels.
func New(src *tilesource.Source, pipe *convolve.Pipeline, opts ...Option) *Viewer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &Viewer{
		opts:     o,
		source:   src,
		pipeline: pipe,
		store:    tile.NewStore(o.capacity),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]func(sampler.TileEvent)),
		zoom:     o.maxZoom,
		css:      o.css,
	}
	pipe.SetSink(v.rerendered)
	return v
}

// MinZoom implements sampler.Host.
func (v *Viewer) MinZoom() int { return v.opts.minZoom }

// MaxZoom implements sampler.Host.
func (v *Viewer) MaxZoom() int { return v.opts.maxZoom }

// CurrentZoom implements sampler.Host.
func (v *Viewer) CurrentZoom() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// TileSize implements sampler.Host.
func (v *Viewer) TileSize() int { return v.opts.tileSize }

// Project implements sampler.Host.
func (v *Viewer) Project(ll geom.LatLng, zoom int) geom.Point {
	return v.opts.crs.Project(ll, zoom)
}

// Unproject implements sampler.Host.
func (v *Viewer) Unproject(p geom.Point, zoom int) geom.LatLng {
	return v.opts.crs.Unproject(p, zoom)
}

// CRS returns the viewer's projection.
func (v *Viewer) CRS() geom.CRS { return v.opts.crs }

// FilterAdjustments implements sampler.Host.
func (v *Viewer) FilterAdjustments() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.css
}

// SetFilterAdjustments replaces the displayed CSS filter.
func (v *Viewer) SetFilterAdjustments(css string) {
	v.mu.Lock()
	v.css = css
	v.mu.Unlock()
}

// IsTileResident implements sampler.Host.
func (v *Viewer) IsTileResident(c tile.Coord) bool {
	return v.store.State(c) == tile.Resident
}

// TileImage implements sampler.Host.
func (v *Viewer) TileImage(c tile.Coord) (*image.RGBA, bool) {
	return v.store.Image(c)
}

// TileState returns the load state of c.
func (v *Viewer) TileState(c tile.Coord) tile.State {
	return v.store.State(c)
}

// PinTile implements sampler.Pinner. A pinned tile is never evicted, and
// pinning a tile before it loads protects it from the moment it arrives.
func (v *Viewer) PinTile(c tile.Coord) { v.store.Pin(c) }

// UnpinTile implements sampler.Pinner.
func (v *Viewer) UnpinTile(c tile.Coord) { v.store.Unpin(c) }

// Resident returns the number of resident tiles.
func (v *Viewer) Resident() int { return v.store.Len() }

// OnTileEvent implements sampler.Host.
func (v *Viewer) OnTileEvent(fn func(sampler.TileEvent)) (unsubscribe func()) {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

func (v *Viewer) emit(e sampler.TileEvent) {
	v.mu.Lock()
	subs := make([]func(sampler.TileEvent), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}

// RequestViewCenter implements sampler.Host. It moves the view and starts
// loading the centre tile and the configured rings of neighbours.
func (v *Viewer) RequestViewCenter(ll geom.LatLng, zoom int) {
	v.mu.Lock()
	v.zoom = zoom
	v.mu.Unlock()

	c := tile.At(v.Project(ll, zoom), zoom, v.opts.tileSize)
	r := v.opts.prefetch
	v.Load(c)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx != 0 || dy != 0 {
				v.Load(tile.Coord{X: c.X + dx, Y: c.Y + dy, Z: c.Z})
			}
		}
	}
}

// Load starts loading c in the background unless it is invalid, loading or
// resident. A failed tile is retried.
func (v *Viewer) Load(c tile.Coord) {
	if !c.Valid() || v.ctx.Err() != nil {
		return
	}
	prev := v.store.Err(c)
	if !v.store.BeginLoad(c) {
		return
	}
	if prev != nil {
		logging.Logger().Debug("viewer: retrying failed tile", "tile", c, "err", prev)
	}
	v.loads.Add(1)
	go func() {
		defer v.loads.Done()
		v.load(c)
	}()
}

func (v *Viewer) load(c tile.Coord) {
	log := logging.Logger()
	ctx, cancel := context.WithTimeout(v.ctx, v.opts.fetchTimeout)
	defer cancel()

	layers, err := v.source.Fetch(ctx, c)
	if err != nil {
		v.fail(c, err)
		return
	}
	t := convolve.NewTile(c, v.opts.tileSize, v.opts.crs)
	img, err := v.pipeline.Render(t, layers)
	if err != nil {
		v.fail(c, err)
		return
	}
	v.pipeline.Register(t, layers)
	for _, old := range v.store.SetResident(c, v.fit(img)) {
		v.pipeline.Unregister(old)
		log.Debug("viewer: tile evicted", "tile", old)
	}
	log.Debug("viewer: tile loaded", "tile", c)
	v.emit(sampler.TileEvent{Coord: c})
}

func (v *Viewer) fail(c tile.Coord, err error) {
	logging.Logger().Warn("viewer: tile failed", "tile", c, "err", err)
	v.store.SetFailed(c, err)
	v.emit(sampler.TileEvent{Coord: c, Err: err})
}

// rerendered receives tiles the pipeline rendered again after a change.
func (v *Viewer) rerendered(t convolve.Tile, img *image.RGBA) {
	if !v.IsTileResident(t.Coord) {
		return
	}
	for _, old := range v.store.SetResident(t.Coord, v.fit(img)) {
		v.pipeline.Unregister(old)
	}
}

// fit rescales img to the tile size.
func (v *Viewer) fit(img *image.RGBA) *image.RGBA {
	ts := v.opts.tileSize
	if img.Rect.Dx() == ts && img.Rect.Dy() == ts {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, ts, ts))
	draw.CatmullRom.Scale(out, out.Rect, img, img.Rect, draw.Src, nil)
	return out
}

// Wait blocks until every load started so far has finished.
func (v *Viewer) Wait() {
	v.loads.Wait()
}

// Close cancels outstanding loads and waits for them.
func (v *Viewer) Close() {
	v.cancel()
	v.loads.Wait()
}
