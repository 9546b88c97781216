// Package tile identifies pyramid tiles and tracks which of them are resident.
package tile

import (
	"fmt"
	"image"
	"math"

	"github.com/dendrolab/ringscan/internal/geom"
)

// Coord identifies a pyramid tile. Z is the zoom level.
type Coord struct {
	X, Y, Z int
}

// Valid reports whether c names a tile of the pyramid: the root (0,0,0), or
// x and y inside the 2^z grid for z > 0.
func (c Coord) Valid() bool {
	if c.Z == 0 {
		return c.X == 0 && c.Y == 0
	}
	if c.Z < 0 || c.X < 0 || c.Y < 0 || c.Z > 30 {
		return false
	}
	n := 1 << c.Z
	return c.X < n && c.Y < n
}

func (c Coord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// At returns the tile containing pixel p at zoom z.
func At(p geom.Point, z, tileSize int) Coord {
	ts := float64(tileSize)
	return Coord{
		X: int(math.Floor(p.X / ts)),
		Y: int(math.Floor(p.Y / ts)),
		Z: z,
	}
}

// Origin returns the pixel position of the tile's top-left corner.
func (c Coord) Origin(tileSize int) geom.Point {
	return geom.Pt(float64(c.X*tileSize), float64(c.Y*tileSize))
}

// Center returns the pixel position of the tile's centre.
func (c Coord) Center(tileSize int) geom.Point {
	half := float64(tileSize) / 2
	return c.Origin(tileSize).Add(geom.Pt(half, half))
}

// PixelBounds returns the tile's rectangle in global pixel space.
func (c Coord) PixelBounds(tileSize int) image.Rectangle {
	return image.Rect(c.X*tileSize, c.Y*tileSize, (c.X+1)*tileSize, (c.Y+1)*tileSize)
}
