// Package spatial handles the polygonal detection rings associated with
// candidate market areas. Shapes are used for reporting the designated market
// area of a location, not for any pixel-level computation.
package spatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusKm = 6371.01

// AreaShape is one detection ring polygon, indexed by the weekday it was
// detected on and its strictness ranks.
type AreaShape struct {
	Weekday       int
	Strictness    int
	SubStrictness int
	Location      string
	Ring          []s2.LatLng
}

// Loop builds the s2 loop of the ring, normalized so it encloses the smaller
// of the two areas the ring divides the sphere into.
func (a AreaShape) Loop() *s2.Loop {
	pts := make([]s2.Point, 0, len(a.Ring))
	for _, ll := range a.Ring {
		pts = append(pts, s2.PointFromLatLng(ll))
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop
}

// Centroid returns the ring's centroid as a lat/lng pair.
func (a AreaShape) Centroid() s2.LatLng {
	if len(a.Ring) == 0 {
		return s2.LatLng{Lat: s1.Angle(math.NaN()), Lng: s1.Angle(math.NaN())}
	}
	return s2.LatLngFromPoint(s2.Point{Vector: a.Loop().Centroid().Normalize()})
}

// AreaKm2 returns the surface area enclosed by the ring in square kilometers.
func (a AreaShape) AreaKm2() float64 {
	if len(a.Ring) < 3 {
		return 0
	}
	return a.Loop().Area() * earthRadiusKm * earthRadiusKm
}

// Contains reports whether the ring encloses the given point.
func (a AreaShape) Contains(ll s2.LatLng) bool {
	if len(a.Ring) < 3 {
		return false
	}
	return a.Loop().ContainsPoint(s2.PointFromLatLng(ll))
}

// Filter returns the shapes matching a (weekday, strictness, sub-strictness)
// triple, e.g. the full ring of a designated market area.
func Filter(shapes []AreaShape, weekday, strictness, subStrictness int) []AreaShape {
	var out []AreaShape
	for _, s := range shapes {
		if s.Weekday == weekday && s.Strictness == strictness && s.SubStrictness == subStrictness {
			out = append(out, s)
		}
	}
	return out
}
