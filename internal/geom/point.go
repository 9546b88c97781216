// Package geom holds the pixel-space geometry of the sampler: points,
// affine matrices, map projections and the oriented sampling rectangle.
package geom

import "math"

// Point is a position or vector in pixel space at a given zoom level.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns p scaled by s.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Length returns the Euclidean length of the vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Normalize returns a unit vector in the same direction, or the zero vector.
func (p Point) Normalize() Point {
	l := p.Length()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Perp returns p rotated a quarter turn: (-y, x).
// In screen space (y down) this points to the right of the direction of travel.
func (p Point) Perp() Point {
	return Point{X: -p.Y, Y: p.X}
}

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat, Lng float64
}

// LL is a convenience function to create a LatLng.
func LL(lat, lng float64) LatLng {
	return LatLng{Lat: lat, Lng: lng}
}
