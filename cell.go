package s2cell

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

const dblEpsilon = 2.220446049250313e-16

// Cell is the decoded geometry of a CellID. Building one costs a decode,
// so keep Cells around rather than re-creating them in hot loops.
type Cell struct {
	face        int8
	level       int8
	orientation int8
	id          CellID
	uv          r2.Rect
}

// CellFromCellID decodes id into a Cell.
func CellFromCellID(id CellID) (Cell, error) {
	if !id.IsValid() {
		return Cell{}, invalidCellID("cell", id)
	}
	return cellFromCellID(id), nil
}

func cellFromCellID(id CellID) Cell {
	f, i, j, o := id.faceIJOrientation()
	level := id.level()
	return Cell{
		face:        int8(f),     //nolint:gosec
		level:       int8(level), //nolint:gosec
		orientation: int8(o),     //nolint:gosec
		id:          id,
		uv:          ijLevelToBoundUV(i, j, level),
	}
}

// ijLevelToBoundUV returns the (u,v) bound of the level cell containing
// the leaf (i,j).
func ijLevelToBoundUV(i, j, level int) r2.Rect {
	size := sizeIJ(level)
	iLo := i & -size
	jLo := j & -size
	return r2.Rect{
		X: r1.Interval{Lo: STToUV(ijToSTMin(iLo)), Hi: STToUV(ijToSTMin(iLo + size))},
		Y: r1.Interval{Lo: STToUV(ijToSTMin(jLo)), Hi: STToUV(ijToSTMin(jLo + size))},
	}
}

func (c Cell) ID() CellID       { return c.id }
func (c Cell) Face() int        { return int(c.face) }
func (c Cell) Level() int       { return int(c.level) }
func (c Cell) Orientation() int { return int(c.orientation) }
func (c Cell) IsLeaf() bool     { return c.level == MaxLevel }

// BoundUV returns the bounds of c in (u,v) space of its face.
func (c Cell) BoundUV() r2.Rect {
	return c.uv
}

// Vertex returns vertex k of c, counter-clockwise starting at the (u,v)
// minimum corner.
func (c Cell) Vertex(k int) Point {
	v := c.uv.Vertices()[k&3]
	return Point{faceUVToXYZ(int(c.face), v.X, v.Y).Normalize()}
}

// Edge returns the inward facing unit normal of the great circle through
// edge k, which runs from Vertex(k) to Vertex(k+1).
func (c Cell) Edge(k int) Point {
	f := int(c.face)
	switch k & 3 {
	case 0:
		return Point{vNorm(f, c.uv.Y.Lo).Normalize()}
	case 1:
		return Point{uNorm(f, c.uv.X.Hi).Normalize()}
	case 2:
		return Point{vNorm(f, c.uv.Y.Hi).Mul(-1).Normalize()}
	default:
		return Point{uNorm(f, c.uv.X.Lo).Mul(-1).Normalize()}
	}
}

// Center returns the center of c.
func (c Cell) Center() Point {
	return c.id.point()
}

// ApproxArea returns the area of c on the unit sphere, accurate to about
// 0.1% for cells of level 5 and deeper.
func (c Cell) ApproxArea() float64 {
	if c.level < 2 {
		return AvgAreaMetric.Value(int(c.level))
	}
	// half the cross product of the diagonals is the flat projected area
	flat := 0.5 * c.Vertex(2).Sub(c.Vertex(0).Vector).
		Cross(c.Vertex(3).Sub(c.Vertex(1).Vector)).Norm()
	// treat the cell as a spherical cap over a disc of the same flat area
	return flat * 2 / (1 + math.Sqrt(1-math.Min(flat/math.Pi, 1)))
}

// ContainsPoint reports whether p lies in c. Points on the boundary shared
// by two cells are contained by both.
func (c Cell) ContainsPoint(p Point) bool {
	u, v, ok := faceXYZToUV(int(c.face), p.Vector)
	if !ok {
		return false
	}
	// allow for the error of the (u,v) to (s,t) round trip
	return c.uv.ExpandedByMargin(dblEpsilon).ContainsPoint(r2.Point{X: u, Y: v})
}

// MayIntersect reports whether other shares any leaf cell with c.
func (c Cell) MayIntersect(other Cell) bool {
	return c.id.intersects(other.id)
}

// ContainsCell reports whether other is c or one of its descendants.
func (c Cell) ContainsCell(other Cell) bool {
	return c.id.contains(other.id)
}

// CapBound returns a cap around the (u,v) center of c that contains all
// four vertices.
func (c Cell) CapBound() Cap {
	ctr := c.uv.Center()
	bound := CapFromPoint(Point{faceUVToXYZ(int(c.face), ctr.X, ctr.Y).Normalize()})
	for k := range 4 {
		bound = bound.AddPoint(c.Vertex(k))
	}
	return bound
}

// CacheKey identifies c for the memoizing coverer.
func (c Cell) CacheKey() string {
	return buildRegionKey("cell", uint64(c.id))
}
