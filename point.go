package s2cell

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// Point is a direction on the unit sphere. Points produced by this package
// are unit length; points supplied by callers do not need to be.
type Point struct {
	r3.Vector
}

// PointFromCoords returns the normalized point for (x, y, z). The zero vector
// yields the zero Point, which every projection rejects.
func PointFromCoords(x, y, z float64) Point {
	return Point{r3.Vector{X: x, Y: y, Z: z}.Normalize()}
}

// isDegenerate reports whether p cannot be projected onto the cube.
func (p Point) isDegenerate() bool {
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return true
		}
	}
	return p.X == 0 && p.Y == 0 && p.Z == 0
}

// Distance returns the angle between p and op.
func (p Point) Distance(op Point) s1.Angle {
	return p.Vector.Angle(op.Vector)
}

// ApproxEqual reports whether p and op are within a small angle of each other.
func (p Point) ApproxEqual(op Point) bool {
	return p.Vector.Angle(op.Vector) <= s1.Angle(1e-15)
}

// chordAngleBetween returns the chord angle between two unit points.
func chordAngleBetween(a, b Point) s1.ChordAngle {
	return s1.ChordAngle(math.Min(4.0, a.Sub(b.Vector).Norm2()))
}
