// Package placement turns boundary column offsets back into geographic points
// along the measured segment.
package placement

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/logging"
)

// ErrDegenerate is returned when both anchors project to the same pixel.
var ErrDegenerate = errors.New("placement: anchors coincide")

// Direction is the host's measurement direction preference.
type Direction int

const (
	// Forward emits points from the western anchor eastwards.
	Forward Direction = iota
	// Backward emits the same points in reverse order.
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "forward" or "backward", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "":
		return Forward, nil
	case "backward":
		return Backward, nil
	}
	return Forward, fmt.Errorf("placement: unknown direction %q", s)
}

// ToCoordinates places each offset at base + offset*unit in pixel space at
// zoom and unprojects it.
func ToCoordinates(offsets []int, base, unit geom.Point, crs geom.CRS, zoom int) []geom.LatLng {
	out := make([]geom.LatLng, len(offsets))
	for i, off := range offsets {
		out[i] = crs.Unproject(base.Add(unit.Mul(float64(off))), zoom)
	}
	return out
}

// Map places offsets measured from the western of the two anchors towards
// the other one. The anchors may be given in either order. With Backward
// the offsets are reversed first.
func Map(offsets []int, a1, a2 geom.LatLng, dir Direction, crs geom.CRS, zoom int) ([]geom.LatLng, error) {
	base, other, _ := geom.WestFirst(crs.Project(a1, zoom), crs.Project(a2, zoom))
	d := other.Sub(base)
	if d.Length() == 0 {
		return nil, ErrDegenerate
	}
	if dir == Backward {
		offsets = slices.Clone(offsets)
		slices.Reverse(offsets)
	}
	return ToCoordinates(offsets, base, d.Normalize(), crs, zoom), nil
}

// PointSink receives committed points.
type PointSink interface {
	InsertPoint(ll geom.LatLng) error
}

// SinkFunc adapts a function to PointSink.
type SinkFunc func(ll geom.LatLng) error

// InsertPoint implements PointSink.
func (f SinkFunc) InsertPoint(ll geom.LatLng) error { return f(ll) }

// Commit inserts points in order and stops at the first error. It returns
// the number of points inserted.
func Commit(sink PointSink, points []geom.LatLng) (int, error) {
	for i, p := range points {
		if err := sink.InsertPoint(p); err != nil {
			return i, fmt.Errorf("placement: point %d of %d: %w", i+1, len(points), err)
		}
	}
	logging.Logger().Debug("placement: points committed", "count", len(points))
	return len(points), nil
}
