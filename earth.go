package s2cell

import "github.com/golang/geo/s1"

// EarthRadiusMeters is the mean radius of the Earth in a spherical model.
const EarthRadiusMeters = 1000 * 6371

// EarthAngle converts a distance along the Earth's surface to an angle.
func EarthAngle(meters float64) s1.Angle {
	return s1.Angle(meters / EarthRadiusMeters)
}

// EarthDistance converts an angle to a distance along the Earth's surface.
func EarthDistance(angle s1.Angle) float64 {
	return angle.Radians() * EarthRadiusMeters
}

// EarthArea converts an area on the unit sphere to square meters.
func EarthArea(steradians float64) float64 {
	return steradians * EarthRadiusMeters * EarthRadiusMeters
}

// CapFromCenterMeters returns the cap of all points within meters of ll.
func CapFromCenterMeters(ll LatLng, meters float64) Cap {
	return CapFromCenterAngle(PointFromLatLng(ll), EarthAngle(meters))
}
