package sampler

import (
	"image"

	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/tile"
)

// TileEvent reports the end of a tile load. Err is nil when the tile became
// resident and non-nil when the load failed.
type TileEvent struct {
	Coord tile.Coord
	Err   error
}

// Host is the viewer the sampler pulls tiles from.
type Host interface {
	// MinZoom and MaxZoom bound the zoom levels of the tile pyramid.
	MinZoom() int
	MaxZoom() int

	// CurrentZoom is the zoom level the viewer is displaying.
	CurrentZoom() int

	// Project and Unproject convert between geographic coordinates and
	// global pixel positions at a zoom level.
	Project(ll geom.LatLng, zoom int) geom.Point
	Unproject(p geom.Point, zoom int) geom.LatLng

	// TileSize is the edge length of a tile in pixels.
	TileSize() int

	// IsTileResident reports whether the rendered pixels of c are available.
	IsTileResident(c tile.Coord) bool

	// TileImage returns the rendered pixels of a resident tile.
	TileImage(c tile.Coord) (*image.RGBA, bool)

	// OnTileEvent registers fn for tile load completions and failures.
	// fn may be called from any goroutine, including from inside
	// RequestViewCenter. The returned function removes the registration.
	OnTileEvent(fn func(TileEvent)) (unsubscribe func())

	// RequestViewCenter recentres the view, which loads the tiles around ll.
	RequestViewCenter(ll geom.LatLng, zoom int)

	// FilterAdjustments returns the CSS filter the viewer applies on top of
	// the rendered tiles.
	FilterAdjustments() string
}

// Pinner is implemented by hosts that can keep a tile resident on request.
// The sampler pins each tile it waits for and unpins it once the tile is
// composited, so neighbours loading around it cannot evict it in between.
type Pinner interface {
	PinTile(c tile.Coord)
	UnpinTile(c tile.Coord)
}
