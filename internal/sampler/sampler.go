// Package sampler captures an axis-aligned pixel band along an arbitrary
// segment of a tiled image.
//
// The band is walked tile by tile. Tiles that are not resident are requested
// from the host and the walk suspends until the host reports them loaded,
// then resumes at the step it stopped on. Bands too large for one canvas are
// split into sub-segments whose captures are joined column-wise.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dendrolab/ringscan/internal/cssfilter"
	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/logging"
	"github.com/dendrolab/ringscan/internal/raster"
	"github.com/dendrolab/ringscan/internal/tile"
)

var (
	// ErrDegenerateInput is returned for a zero-length segment, a
	// non-positive band height, a zoom outside the pyramid or an
	// unparseable filter value.
	ErrDegenerateInput = errors.New("sampler: degenerate input")

	// ErrCaptureAreaTooLarge is returned when no subdivision fits the
	// canvas limits.
	ErrCaptureAreaTooLarge = errors.New("sampler: capture area too large")

	// ErrResourceUnavailable is returned when a required tile fails to load.
	ErrResourceUnavailable = errors.New("sampler: tile unavailable")

	// ErrTileTimeout is wrapped in ErrResourceUnavailable when a tile
	// neither loads nor fails in time.
	ErrTileTimeout = errors.New("sampler: timed out waiting for tile")

	// ErrSuperseded is returned by a session abandoned for a newer one.
	ErrSuperseded = errors.New("sampler: superseded by a newer session")
)

// Request describes one capture.
type Request struct {
	A, B       geom.LatLng
	BandHeight int
	Zoom       int
	CSS        string // CSS filter applied to the captured pixels
}

// Result is a finished capture.
type Result struct {
	Buffer       *raster.SampleBuffer
	Geometry     geom.DetectionGeometry
	Swapped      bool // B was west of A, so the buffer starts at B
	Subdivisions int
	TilesPlaced  int
	Waits        int
}

// Sampler captures bands from a host. Each Sample call is a session; a new
// session supersedes any session still waiting for tiles.
type Sampler struct {
	host Host
	opts options

	epoch  atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a sampler over host.
func New(host Host, opts ...Option) *Sampler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Sampler{host: host, opts: o}
}

// session is the state of one Sample call.
type session struct {
	ctx    context.Context
	epoch  uint64
	mb     *mailbox
	waits  int
	pins   Pinner
	pinned map[tile.Coord]bool
}

func (s *session) pin(c tile.Coord) {
	if s.pins == nil || s.pinned[c] {
		return
	}
	s.pins.PinTile(c)
	s.pinned[c] = true
}

// release unpins the pinned tiles that have been composited.
func (s *session) release(placed map[tile.Coord]bool) {
	for c := range s.pinned {
		if placed[c] {
			s.pins.UnpinTile(c)
			delete(s.pinned, c)
		}
	}
}

func (s *session) releaseAll() {
	for c := range s.pinned {
		s.pins.UnpinTile(c)
	}
	clear(s.pinned)
}

func (s *Sampler) begin(ctx context.Context) (*session, func()) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	ep := s.epoch.Add(1)
	s.mu.Unlock()

	sess := &session{ctx: sctx, epoch: ep, mb: newMailbox()}
	if p, ok := s.host.(Pinner); ok {
		sess.pins = p
		sess.pinned = make(map[tile.Coord]bool)
	}
	unsubscribe := s.host.OnTileEvent(sess.mb.push)
	return sess, func() {
		unsubscribe()
		cancel()
		sess.releaseAll()
	}
}

func (s *Sampler) current(sess *session) bool {
	return s.epoch.Load() == sess.epoch
}

// Sample captures the band described by req. The buffer always starts at
// the western anchor and is BandHeight rows by floor(segment length) columns.
func (s *Sampler) Sample(ctx context.Context, req Request) (*Result, error) {
	log := logging.Logger()

	adjust, err := cssfilter.Parse(req.CSS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerateInput, err)
	}
	if req.Zoom < s.host.MinZoom() || req.Zoom > s.host.MaxZoom() {
		return nil, fmt.Errorf("%w: zoom %d outside [%d, %d]", ErrDegenerateInput, req.Zoom, s.host.MinZoom(), s.host.MaxZoom())
	}
	if req.BandHeight <= 0 {
		return nil, fmt.Errorf("%w: band height %d", ErrDegenerateInput, req.BandHeight)
	}
	pa := s.host.Project(req.A, req.Zoom)
	pb := s.host.Project(req.B, req.Zoom)
	start, end, swapped := geom.WestFirst(pa, pb)
	g, err := geom.NewDetectionGeometry(start, end, float64(req.BandHeight))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerateInput, err)
	}

	width := g.Width()
	subLen, canvas, err := s.plan(width, req.BandHeight)
	if err != nil {
		return nil, err
	}
	subs := (width + subLen - 1) / subLen

	sess, finish := s.begin(ctx)
	defer finish()
	log.Debug("sampler: session started",
		"epoch", sess.epoch, "width", width, "height", req.BandHeight,
		"angle", g.Angle, "subdivisions", subs)

	sc := newScan(s.host, g, req.Zoom, canvas, s.opts.margin)
	parts := make([]*raster.SampleBuffer, 0, subs)
	placed := 0
	for i := 0; i < subs; i++ {
		t0 := i * subLen
		sc.reset(float64(t0), min(subLen, width-t0))
		for {
			c, done := sc.advance()
			sess.release(sc.placed)
			if done {
				break
			}
			if err := s.await(sess, c, req.Zoom); err != nil {
				return nil, err
			}
		}
		placed += len(sc.placed)
		parts = append(parts, sc.capture())
		log.Debug("sampler: sub-segment captured",
			"index", i, "tiles", len(sc.placed), "passes", sc.passes, "steps", sc.steps)
	}

	buf, err := raster.ConcatColumns(parts...)
	if err != nil {
		return nil, err
	}
	cssfilter.ApplySample(buf, adjust)

	log.Info("sampler: capture complete",
		"width", buf.Width, "height", buf.Height, "subdivisions", subs, "waits", sess.waits)
	return &Result{
		Buffer:       buf,
		Geometry:     g,
		Swapped:      swapped,
		Subdivisions: subs,
		TilesPlaced:  placed,
		Waits:        sess.waits,
	}, nil
}

// plan finds the smallest subdivision whose canvas fits the limits.
func (s *Sampler) plan(width, height int) (int, *raster.Canvas, error) {
	m := s.opts.margin
	var lastErr error
	for n := 1; n <= s.opts.maxSubdivisions; n++ {
		subLen := int(math.Ceil(float64(width) / float64(n)))
		canvas, err := raster.NewCanvas(subLen+2*m, height+2*m, s.opts.limits)
		if err == nil {
			return subLen, canvas, nil
		}
		if !errors.Is(err, raster.ErrCanvasTooLarge) {
			return 0, nil, err
		}
		lastErr = err
		if subLen == 1 {
			break
		}
	}
	return 0, nil, fmt.Errorf("%w: %dx%d after %d subdivisions: %w",
		ErrCaptureAreaTooLarge, width, height, s.opts.maxSubdivisions, lastErr)
}

// await requests c and blocks until it is resident, it fails, the wait
// times out, or the session ends.
func (s *Sampler) await(sess *session, c tile.Coord, zoom int) error {
	sess.waits++
	ts := s.host.TileSize()
	logging.Logger().Debug("sampler: waiting for tile", "tile", c, "epoch", sess.epoch)
	sess.pin(c)
	s.host.RequestViewCenter(s.host.Unproject(c.Center(ts), zoom), zoom)

	timer := time.NewTimer(s.opts.tileWait)
	defer timer.Stop()
	for {
		loaded := false
		for _, e := range sess.mb.drain() {
			if e.Coord != c {
				continue
			}
			if e.Err != nil {
				return fmt.Errorf("%w: %v: %w", ErrResourceUnavailable, c, e.Err)
			}
			loaded = true
		}
		if !s.current(sess) {
			logging.Logger().Warn("sampler: dropping stale resumption", "epoch", sess.epoch, "tile", c)
			return ErrSuperseded
		}
		if loaded || s.host.IsTileResident(c) {
			return nil
		}

		select {
		case <-sess.ctx.Done():
			if !s.current(sess) {
				logging.Logger().Warn("sampler: dropping stale resumption", "epoch", sess.epoch, "tile", c)
				return ErrSuperseded
			}
			return sess.ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w: %v: %w", ErrResourceUnavailable, c, ErrTileTimeout)
		case <-sess.mb.notify:
		}
	}
}
