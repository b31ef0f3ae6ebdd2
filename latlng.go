package s2cell

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
)

// LatLng is a latitude/longitude pair. Values outside [-90,90] x [-180,180]
// are accepted and wrap through the trigonometric conversion to Point.
type LatLng struct {
	Lat, Lng s1.Angle
}

// LatLngFromDegrees returns a LatLng for the given coordinates in degrees.
func LatLngFromDegrees(lat, lng float64) LatLng {
	return LatLng{Lat: s1.Angle(lat) * s1.Degree, Lng: s1.Angle(lng) * s1.Degree}
}

// PointFromLatLng returns the unit point for ll.
func PointFromLatLng(ll LatLng) Point {
	phi := ll.Lat.Radians()
	theta := ll.Lng.Radians()
	cosphi := math.Cos(phi)
	return Point{Vector: rawVector(math.Cos(theta)*cosphi, math.Sin(theta)*cosphi, math.Sin(phi))}
}

// LatLngFromPoint returns the latitude and longitude of p. p does not need
// to be unit length.
func LatLngFromPoint(p Point) LatLng {
	return LatLng{
		Lat: s1.Angle(math.Atan2(p.Z, math.Sqrt(p.X*p.X+p.Y*p.Y))) * s1.Radian,
		Lng: s1.Angle(math.Atan2(p.Y, p.X)) * s1.Radian,
	}
}

// IsValid reports whether ll is within the normal latitude/longitude range.
func (ll LatLng) IsValid() bool {
	return math.Abs(ll.Lat.Radians()) <= math.Pi/2 && math.Abs(ll.Lng.Radians()) <= math.Pi
}

// Distance returns the angle between ll and other along the sphere.
func (ll LatLng) Distance(other LatLng) s1.Angle {
	return PointFromLatLng(ll).Distance(PointFromLatLng(other))
}

func (ll LatLng) String() string {
	return fmt.Sprintf("[%f, %f]", ll.Lat.Degrees(), ll.Lng.Degrees())
}
