package convolve

import (
	"image"

	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/tile"
)

// GeoBounds is a tile's extent in geographic coordinates.
type GeoBounds struct {
	SouthWest geom.LatLng
	NorthEast geom.LatLng
}

// Tile is the unit the pipeline renders.
type Tile struct {
	Coord       tile.Coord
	PixelBounds image.Rectangle // global pixel space at Coord.Z
	GeoBounds   GeoBounds
}

// NewTile describes c with its pixel and geographic bounds under crs.
func NewTile(c tile.Coord, tileSize int, crs geom.CRS) Tile {
	px := c.PixelBounds(tileSize)
	sw := crs.Unproject(geom.Pt(float64(px.Min.X), float64(px.Max.Y)), c.Z)
	ne := crs.Unproject(geom.Pt(float64(px.Max.X), float64(px.Min.Y)), c.Z)
	return Tile{
		Coord:       c,
		PixelBounds: px,
		GeoBounds:   GeoBounds{SouthWest: sw, NorthEast: ne},
	}
}
