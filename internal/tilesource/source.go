// Package tilesource fetches the raster layers of a tile.
//
// A Source holds up to MaxLayers fetchers. Fetch runs them concurrently and
// resolves once all layers are in, or fails as soon as any one fails. There
// is no retry at this level.
package tilesource

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/dendrolab/ringscan/internal/logging"
	"github.com/dendrolab/ringscan/internal/tile"
)

// MaxLayers is the largest number of layers a Source may combine.
const MaxLayers = 8

var (
	// ErrResourceUnavailable wraps every layer failure returned by Fetch.
	ErrResourceUnavailable = errors.New("tilesource: resource unavailable")

	// ErrNotFound is returned by fetchers when a layer has no data for a tile.
	ErrNotFound = errors.New("tilesource: tile not found")

	// ErrTooManyLayers is returned by New for more than MaxLayers fetchers.
	ErrTooManyLayers = errors.New("tilesource: too many layers")

	// ErrInvalidCoord is returned for coordinates outside the pyramid.
	ErrInvalidCoord = errors.New("tilesource: invalid tile coordinate")
)

// Fetcher produces the pixels of one layer of a tile.
type Fetcher interface {
	Fetch(ctx context.Context, c tile.Coord) (*image.RGBA, error)
}

// FuncFetcher adapts a function to the Fetcher interface.
type FuncFetcher func(ctx context.Context, c tile.Coord) (*image.RGBA, error)

// Fetch calls f.
func (f FuncFetcher) Fetch(ctx context.Context, c tile.Coord) (*image.RGBA, error) {
	return f(ctx, c)
}

// Source combines the layers of a tile.
type Source struct {
	layers []Fetcher
}

// New creates a source over the given layers, bottom layer first.
func New(layers ...Fetcher) (*Source, error) {
	if len(layers) == 0 {
		return nil, errors.New("tilesource: no layers")
	}
	if len(layers) > MaxLayers {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyLayers, len(layers), MaxLayers)
	}
	return &Source{layers: append([]Fetcher(nil), layers...)}, nil
}

// Layers returns the number of layers.
func (s *Source) Layers() int { return len(s.layers) }

// Fetch resolves every layer of c concurrently. The first failure cancels
// the remaining fetches and the whole call fails with ErrResourceUnavailable.
func (s *Source) Fetch(ctx context.Context, c tile.Coord) ([]*image.RGBA, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCoord, c)
	}

	out := make([]*image.RGBA, len(s.layers))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range s.layers {
		g.Go(func() error {
			img, err := f.Fetch(gctx, c)
			if err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			if img == nil {
				return fmt.Errorf("layer %d: no image", i)
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Logger().Debug("tilesource: fetch failed", "tile", c, "err", err)
		return nil, fmt.Errorf("%w: tile %v: %w", ErrResourceUnavailable, c, err)
	}
	return out, nil
}
