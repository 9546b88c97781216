// Package convolve runs chains of 3x3 kernel passes over tile pixels.
//
// A Pipeline owns a backend and a small pool of off-screen targets. Each
// render composites the tile's layer textures, stores them bottom row first
// in target 0, and runs every pass with a non-zero strength from one target
// into the next, wrapping around the pool. A final identity pass flips the
// rows back and writes the visible surface.
package convolve

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/dendrolab/ringscan/internal/kernel"
	"github.com/dendrolab/ringscan/internal/logging"
	"github.com/dendrolab/ringscan/internal/tile"
)

// MaxTextures is the largest number of layer textures a tile may have.
const MaxTextures = 8

var (
	// ErrNoTextures is returned by Render when a tile has no layers.
	ErrNoTextures = errors.New("convolve: no textures")

	// ErrTooManyTextures is returned by Render for more than MaxTextures layers.
	ErrTooManyTextures = errors.New("convolve: too many textures")
)

// Sink receives the output of re-renders triggered by SetPasses or Configure.
type Sink func(t Tile, img *image.RGBA)

type registered struct {
	tile     Tile
	textures []*image.RGBA
}

// Pipeline renders tiles through the active filter passes.
//
// Render calls are serialized; Pipeline is safe for concurrent use.
type Pipeline struct {
	mu       sync.Mutex
	backend  Backend
	poolSize int
	passes   []FilterPass
	err      error

	tilesMu sync.Mutex
	tiles   map[tile.Coord]registered
	sink    Sink
}

// New creates a pipeline. Backend initialization failures fall back to the
// CPU backend and are logged, never returned.
func New(opts ...Option) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := o.backend
	if b == nil {
		var err error
		b, err = newBackend(o.backendName, o.workers)
		if err != nil {
			logging.Logger().Warn("convolve: backend unavailable", "err", err)
		}
	} else if err := b.Init(); err != nil {
		logging.Logger().Warn("convolve: backend init failed, using CPU", "backend", b.Name(), "err", err)
		b.Close()
		b = newCPUBackend(o.workers)
	}
	logging.Logger().Info("convolve: pipeline ready", "backend", b.Name(), "targets", o.poolSize)

	return &Pipeline{
		backend:  b,
		poolSize: o.poolSize,
		tiles:    make(map[tile.Coord]registered),
	}
}

// Backend returns the name of the backend in use.
func (p *Pipeline) Backend() string {
	return p.backend.Name()
}

// Configure compiles uniformDecls followed by program and installs the
// result. On failure the pipeline is disabled and the *ConfigError is
// returned; it stays retrievable through Err until the next successful
// Configure. A successful Configure re-renders every registered tile.
func (p *Pipeline) Configure(program, uniformDecls string) error {
	words, err := Compile(program, uniformDecls)
	if err == nil {
		err = p.install(words)
	}

	p.mu.Lock()
	p.err = err
	p.mu.Unlock()

	if err != nil {
		logging.Logger().Error("convolve: pipeline disabled", "err", err)
		return err
	}
	return p.RenderAll()
}

func (p *Pipeline) install(words []uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.backend.SetProgram(words)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrFallbackToCPU):
		logging.Logger().Debug("convolve: backend keeps built-in program", "backend", p.backend.Name())
		return nil
	default:
		return &ConfigError{Stage: "link", Err: err}
	}
}

// Err returns the configuration error that disabled the pipeline, or nil.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Passes returns a copy of the active pass list.
func (p *Pipeline) Passes() []FilterPass {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]FilterPass(nil), p.passes...)
}

// SetPasses validates and installs a new pass list, then re-renders every
// registered tile through the sink.
func (p *Pipeline) SetPasses(passes []FilterPass) error {
	if err := ValidatePasses(passes); err != nil {
		return err
	}
	p.mu.Lock()
	p.passes = append([]FilterPass(nil), passes...)
	p.mu.Unlock()
	logging.Logger().Debug("convolve: passes set", "passes", len(passes), "active", len(active(passes)))
	return p.RenderAll()
}

// SetSink sets the receiver of re-rendered tiles.
func (p *Pipeline) SetSink(s Sink) {
	p.tilesMu.Lock()
	p.sink = s
	p.tilesMu.Unlock()
}

// Register records a resident tile so later pass changes re-render it.
func (p *Pipeline) Register(t Tile, textures []*image.RGBA) {
	p.tilesMu.Lock()
	p.tiles[t.Coord] = registered{tile: t, textures: textures}
	p.tilesMu.Unlock()
}

// Unregister forgets a tile, typically after eviction.
func (p *Pipeline) Unregister(c tile.Coord) {
	p.tilesMu.Lock()
	delete(p.tiles, c)
	p.tilesMu.Unlock()
}

// RenderAll re-renders every registered tile and hands each result to the
// sink. Errors are joined; a failing tile does not stop the others.
func (p *Pipeline) RenderAll() error {
	p.tilesMu.Lock()
	sink := p.sink
	work := make([]registered, 0, len(p.tiles))
	for _, r := range p.tiles {
		work = append(work, r)
	}
	p.tilesMu.Unlock()

	var errs []error
	for _, r := range work {
		img, err := p.Render(r.tile, r.textures)
		if err != nil {
			errs = append(errs, fmt.Errorf("tile %v: %w", r.tile.Coord, err))
			continue
		}
		if sink != nil {
			sink(r.tile, img)
		}
	}
	return errors.Join(errs...)
}

// Render produces the enhanced pixels of t from its layer textures.
// Layer 0 is at the bottom. Identical textures and passes always produce
// identical output.
func (p *Pipeline) Render(t Tile, textures []*image.RGBA) (*image.RGBA, error) {
	if len(textures) == 0 {
		return nil, ErrNoTextures
	}
	if len(textures) > MaxTextures {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTextures, len(textures), MaxTextures)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}

	input := composite(textures)
	w, h := input.Rect.Dx(), input.Rect.Dy()
	job := &Job{
		Width:   w,
		Height:  h,
		Targets: p.poolSize,
		Input:   bottomUp(input),
		Steps:   schedule(p.passes, p.poolSize),
		Bounds:  boundsOf(t),
	}
	if err := p.backend.Execute(job); err != nil {
		return nil, fmt.Errorf("convolve: %s: %w", p.backend.Name(), err)
	}
	logging.Logger().Debug("convolve: rendered", "tile", t.Coord, "steps", len(job.Steps))

	return &image.RGBA{
		Pix:    job.Output,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

// Close releases the backend.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backend.Close()
}

// schedule maps the active passes onto the target pool. Target 0 holds the
// input; each pass writes the target after its input, wrapping around.
func schedule(passes []FilterPass, poolSize int) []Step {
	run := active(passes)
	steps := make([]Step, 0, len(run)+1)
	cur := 0
	for _, fp := range run {
		k := kernel.Get(fp.Kernel)
		next := (cur + 1) % poolSize
		steps = append(steps, Step{
			Src: cur,
			Dst: next,
			Params: PassParams{
				Kernel:   k.FlipRows(),
				Weight:   kernel.Weight(k),
				Strength: fp.Strength,
			},
		})
		cur = next
	}
	return append(steps, Step{
		Src: cur,
		Dst: Surface,
		Params: PassParams{
			Kernel:   kernel.Get(kernel.Normal),
			Weight:   1,
			Strength: 1,
			FlipY:    true,
		},
	})
}

// composite stacks the layers source-over into one image the size of layer 0.
func composite(textures []*image.RGBA) *image.RGBA {
	base := textures[0].Rect
	out := image.NewRGBA(image.Rect(0, 0, base.Dx(), base.Dy()))
	for _, tex := range textures {
		if tex.Rect.Size() == out.Rect.Size() {
			draw.Draw(out, out.Rect, tex, tex.Rect.Min, draw.Over)
			continue
		}
		draw.ApproxBiLinear.Scale(out, out.Rect, tex, tex.Rect, draw.Over, nil)
	}
	return out
}

// bottomUp returns img's pixels with the last row first.
func bottomUp(img *image.RGBA) []uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(out[(h-1-y)*w*4:], src)
	}
	return out
}
