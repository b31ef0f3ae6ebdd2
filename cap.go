package s2cell

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
)

const (
	emptyHeight = -1.0
	zeroHeight  = 0.0
	fullHeight  = 2.0

	roundUp = 1.0 + 1.0/(1<<52)
)

var centerPoint = PointFromCoords(1, 0, 0)

// Cap is a disc-shaped region of the sphere: all points within an angle of
// a center point. It is closed, so it contains its boundary.
//
// The cap is stored as its center and the height of the cutting plane
// measured from the center, h = 1 - cos(r). Heights below zero mean empty
// and a height of 2 means the whole sphere.
type Cap struct {
	center Point
	height float64
}

// CapFromPoint returns a cap containing only p.
func CapFromPoint(p Point) Cap {
	return CapFromCenterHeight(p, zeroHeight)
}

// CapFromCenterAngle returns the cap of the given angular radius.
func CapFromCenterAngle(center Point, angle s1.Angle) Cap {
	return CapFromCenterHeight(center, radiusToHeight(angle))
}

// CapFromCenterChordAngle returns the cap whose boundary is the given chord
// angle away from center.
func CapFromCenterChordAngle(center Point, r s1.ChordAngle) Cap {
	switch {
	case r < 0:
		return CapFromCenterHeight(center, emptyHeight)
	case r >= s1.StraightChordAngle:
		return CapFromCenterHeight(center, fullHeight)
	}
	return CapFromCenterHeight(center, 0.5*float64(r))
}

// CapFromCenterHeight returns a cap with the given center and height. The
// center is normalized.
func CapFromCenterHeight(center Point, height float64) Cap {
	return Cap{center: Point{center.Normalize()}, height: math.Min(height, fullHeight)}
}

// EmptyCap returns a cap containing no points.
func EmptyCap() Cap {
	return CapFromCenterHeight(centerPoint, emptyHeight)
}

// FullCap returns a cap containing every point.
func FullCap() Cap {
	return CapFromCenterHeight(centerPoint, fullHeight)
}

func (c Cap) IsEmpty() bool { return c.height < zeroHeight }
func (c Cap) IsFull() bool  { return c.height >= fullHeight }
func (c Cap) Center() Point { return c.center }

// Height returns the distance from the center to the cutting plane.
func (c Cap) Height() float64 { return c.height }

// Radius returns the angular radius of c, or a negative angle when c is
// empty.
func (c Cap) Radius() s1.Angle {
	if c.IsEmpty() {
		return s1.Angle(emptyHeight)
	}
	// h = 2 sin^2(r/2) is far more accurate than acos(1-h) for small caps
	return s1.Angle(2 * math.Asin(math.Sqrt(0.5*c.height)))
}

// Area returns the area of c on the unit sphere.
func (c Cap) Area() float64 {
	return 2 * math.Pi * math.Max(zeroHeight, c.height)
}

// ContainsPoint reports whether p lies in c.
func (c Cap) ContainsPoint(p Point) bool {
	return c.center.Sub(p.Vector).Norm2() <= 2*c.height
}

// Contains reports whether c contains other.
func (c Cap) Contains(other Cap) bool {
	if c.IsFull() || other.IsEmpty() {
		return true
	}
	return c.Radius() >= c.center.Distance(other.center)+other.Radius()
}

// Complement returns the cap covering everything outside the interior of c.
func (c Cap) Complement() Cap {
	height := emptyHeight
	if !c.IsFull() {
		height = fullHeight - math.Max(c.height, zeroHeight)
	}
	return CapFromCenterHeight(Point{c.center.Mul(-1)}, height)
}

// AddPoint returns the smallest cap with the same center as c that also
// contains p. An empty cap becomes the point cap at p.
func (c Cap) AddPoint(p Point) Cap {
	if c.IsEmpty() {
		return CapFromPoint(p)
	}
	// round up so that the result really contains p
	c.height = math.Min(fullHeight, math.Max(c.height, roundUp*0.5*float64(chordAngleBetween(c.center, p))))
	return c
}

// AddCap returns the smallest cap with the same center as c that also
// contains other.
func (c Cap) AddCap(other Cap) Cap {
	if c.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return c
	}
	r := c.center.Distance(other.center) + other.Radius()
	c.height = math.Min(fullHeight, math.Max(c.height, roundUp*radiusToHeight(r)))
	return c
}

// CapBound returns c itself.
func (c Cap) CapBound() Cap {
	return c
}

// ContainsCell reports whether every point of cell lies in c.
func (c Cap) ContainsCell(cell Cell) bool {
	var vertices [4]Point
	for k := range 4 {
		vertices[k] = cell.Vertex(k)
		if !c.ContainsPoint(vertices[k]) {
			return false
		}
	}
	// all vertices are inside, so only the complement can still cut in
	return !c.Complement().intersects(cell, vertices)
}

// MayIntersect reports whether c and cell share any point. The test is
// exact up to rounding.
func (c Cap) MayIntersect(cell Cell) bool {
	var vertices [4]Point
	for k := range 4 {
		vertices[k] = cell.Vertex(k)
		if c.ContainsPoint(vertices[k]) {
			return true
		}
	}
	return c.intersects(cell, vertices)
}

// intersects reports whether c intersects the interior of cell, given that
// none of the cell's vertices lie in c.
func (c Cap) intersects(cell Cell, vertices [4]Point) bool {
	// A hemisphere or more has a convex complement, so with no vertex
	// inside nothing of the cell is.
	if c.height >= 1 || c.IsEmpty() {
		return false
	}
	if cell.ContainsPoint(c.center) {
		return true
	}
	// Only an edge interior can reach into the cap now.
	sin2Angle := c.height * (2 - c.height)
	for k := range 4 {
		edge := cell.Edge(k).Vector
		dot := c.center.Dot(edge)
		if dot > 0 {
			// the opposite edge is the one to test
			continue
		}
		if dot*dot > sin2Angle*edge.Norm2() {
			return false
		}
		// the great circle crosses the cap; check that the closest
		// point lies between the edge endpoints
		dir := edge.Cross(c.center.Vector)
		if dir.Dot(vertices[k].Vector) < 0 && dir.Dot(vertices[(k+1)&3].Vector) > 0 {
			return true
		}
	}
	return false
}

// CellUnionBound returns a small set of cells whose union covers c: the
// cells sharing the vertex closest to the center at the deepest level
// where c spans at most one vertex, or all six faces for large caps.
func (c Cap) CellUnionBound() []CellID {
	level := MinWidthMetric.MaxLevel(c.Radius().Radians()) - 1
	if level < 0 {
		ids := make([]CellID, NumFaces)
		for f := range ids {
			ids[f] = CellID(uint64(f)<<posBits + lsbForLevel(0)) //nolint:gosec
		}
		return ids
	}
	return cellIDFromPoint(c.center).vertexNeighbors(level)
}

// CacheKey identifies c for the memoizing coverer.
func (c Cap) CacheKey() string {
	return buildRegionKey("cap",
		math.Float64bits(c.center.X),
		math.Float64bits(c.center.Y),
		math.Float64bits(c.center.Z),
		math.Float64bits(c.height),
	)
}

func (c Cap) String() string {
	return fmt.Sprintf("[Center=%v, Radius=%f]", c.center.Vector, c.Radius().Degrees())
}

func radiusToHeight(r s1.Angle) float64 {
	if r.Radians() < 0 {
		return emptyHeight
	}
	if r.Radians() >= math.Pi {
		return fullHeight
	}
	d := math.Sin(0.5 * r.Radians())
	return 2 * d * d
}
