package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// DefaultTileSize is the edge length of a pyramid tile in pixels.
const DefaultTileSize = 256

// earthHalfCircumference is half the Web Mercator world width in metres.
const earthHalfCircumference = math.Pi * 6378137

// CRS converts between geographic and pixel coordinates at a zoom level.
type CRS interface {
	Project(ll LatLng, zoom int) Point
	Unproject(p Point, zoom int) LatLng
}

// WebMercator is the spherical Mercator CRS of slippy-map tile pyramids.
// Projection goes through orb's WGS84 <-> Mercator conversion.
type WebMercator struct {
	TileSize int
}

func (c WebMercator) worldSize(zoom int) float64 {
	size := c.TileSize
	if size <= 0 {
		size = DefaultTileSize
	}
	return float64(size) * math.Exp2(float64(zoom))
}

// Project returns the pixel position of ll at zoom.
func (c WebMercator) Project(ll LatLng, zoom int) Point {
	m := project.WGS84.ToMercator(orb.Point{ll.Lng, ll.Lat})
	world := c.worldSize(zoom)
	return Point{
		X: (m[0] + earthHalfCircumference) / (2 * earthHalfCircumference) * world,
		Y: (earthHalfCircumference - m[1]) / (2 * earthHalfCircumference) * world,
	}
}

// Unproject returns the geographic position of pixel p at zoom.
func (c WebMercator) Unproject(p Point, zoom int) LatLng {
	world := c.worldSize(zoom)
	m := orb.Point{
		p.X/world*(2*earthHalfCircumference) - earthHalfCircumference,
		earthHalfCircumference - p.Y/world*(2*earthHalfCircumference),
	}
	g := project.Mercator.ToWGS84(m)
	return LatLng{Lat: g[1], Lng: g[0]}
}

// Simple is the flat CRS used for plain image pyramids: one unit of
// longitude is one pixel at zoom 0 and latitude grows upwards.
type Simple struct{}

// Project returns the pixel position of ll at zoom.
func (Simple) Project(ll LatLng, zoom int) Point {
	s := math.Exp2(float64(zoom))
	return Point{X: ll.Lng * s, Y: -ll.Lat * s}
}

// Unproject returns the geographic position of pixel p at zoom.
func (Simple) Unproject(p Point, zoom int) LatLng {
	s := math.Exp2(float64(zoom))
	return LatLng{Lat: -p.Y / s, Lng: p.X / s}
}
