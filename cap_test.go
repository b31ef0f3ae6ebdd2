package s2cell

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapBasics(t *testing.T) {
	t.Parallel()

	empty := EmptyCap()
	full := FullCap()
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.IsFull())
	assert.True(t, full.IsFull())
	assert.Equal(t, 0.0, empty.Area())
	assert.InDelta(t, 4*math.Pi, full.Area(), 1e-15)
	assert.True(t, full.Contains(empty))
	assert.True(t, empty.Contains(empty))
	assert.False(t, empty.Contains(full))
	assert.True(t, full.Complement().IsEmpty())
	assert.True(t, empty.Complement().IsFull())

	p := PointFromCoords(0, 0, 1)
	pc := CapFromPoint(p)
	assert.False(t, pc.IsEmpty())
	assert.True(t, pc.ContainsPoint(p))
	assert.Equal(t, 0.0, pc.Radius().Radians())

	hemi := CapFromCenterHeight(p, 1)
	assert.InDelta(t, math.Pi/2, hemi.Radius().Radians(), 1e-15)
	assert.InDelta(t, 2*math.Pi, hemi.Area(), 1e-15)
	assert.True(t, hemi.ContainsPoint(PointFromCoords(1, 0, 0)))
	assert.False(t, hemi.ContainsPoint(PointFromCoords(0, 0, -1)))
}

func TestCapFromCenterAngle(t *testing.T) {
	t.Parallel()

	center := PointFromLatLng(LatLngFromDegrees(10, 20))
	for _, deg := range []float64{1e-9, 0.1, 10, 90, 179} {
		c := CapFromCenterAngle(center, s1.Angle(deg)*s1.Degree)
		assert.InDelta(t, deg, c.Radius().Degrees(), 1e-9*math.Max(1, deg))

		inside := PointFromLatLng(LatLngFromDegrees(10+0.999*deg, 20))
		if deg < 80 {
			assert.True(t, c.ContainsPoint(inside), "radius %g", deg)
		}
	}
	assert.True(t, CapFromCenterAngle(center, s1.Angle(-1)).IsEmpty())
	assert.True(t, CapFromCenterAngle(center, math.Pi*s1.Radian).IsFull())

	// chord angles describe the same caps
	byChord := CapFromCenterChordAngle(center, s1.ChordAngleFromAngle(30*s1.Degree))
	assert.InDelta(t, 30, byChord.Radius().Degrees(), 1e-12)
}

func TestCapComplement(t *testing.T) {
	t.Parallel()

	c := CapFromCenterAngle(PointFromCoords(1, 0, 0), 40*s1.Degree)
	comp := c.Complement()
	assert.InDelta(t, 140, comp.Radius().Degrees(), 1e-12)
	assert.True(t, comp.ContainsPoint(PointFromCoords(-1, 0, 0)))
	assert.InDelta(t, 4*math.Pi, c.Area()+comp.Area(), 1e-12)
}

func TestCapAddPointAndCap(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(31, 32)) //nolint:gosec
	for range 200 {
		c := CapFromPoint(PointFromCoords(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()))
		var pts []Point
		for range 5 {
			p := PointFromCoords(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
			pts = append(pts, p)
			c = c.AddPoint(p)
		}
		for _, p := range pts {
			require.True(t, c.ContainsPoint(p))
		}

		other := CapFromCenterAngle(PointFromCoords(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()), s1.Angle(rng.Float64()))
		grown := c.AddCap(other)
		require.GreaterOrEqual(t, grown.Height(), c.Height())
		for k := range 8 {
			p := boundaryPoint(other, float64(k)*math.Pi/4, 0.999)
			require.True(t, grown.ContainsPoint(p), "%v must contain %v", grown, other)
		}
	}

	p := PointFromCoords(0, 1, 0)
	assert.True(t, EmptyCap().AddPoint(p).ContainsPoint(p))
	assert.Equal(t, FullCap(), EmptyCap().AddCap(FullCap()))
}

func TestCapCellRelations(t *testing.T) {
	t.Parallel()

	c := CapFromCenterMeters(LatLngFromDegrees(48.8566, 2.3522), 10000)
	leaf, err := CellIDFromLatLng(LatLngFromDegrees(48.8566, 2.3522))
	require.NoError(t, err)

	// a small cell at the center is inside, a large one intersects only
	small := cellFromCellID(leaf.parent(16))
	large := cellFromCellID(leaf.parent(4))
	assert.True(t, c.ContainsCell(small))
	assert.True(t, c.MayIntersect(small))
	assert.False(t, c.ContainsCell(large))
	assert.True(t, c.MayIntersect(large))

	// a cell on the other side of the planet is unrelated
	far, err := CellIDFromLatLng(LatLngFromDegrees(-48.8566, -177.6478))
	require.NoError(t, err)
	farCell := cellFromCellID(far.parent(8))
	assert.False(t, c.MayIntersect(farCell))
	assert.False(t, c.ContainsCell(farCell))

	// an edge crossing with no vertex inside: a thin cap centered on the
	// midpoint of a cell edge
	cell := cellFromCellID(leaf.parent(10))
	mid := Point{cell.Vertex(0).Add(cell.Vertex(1).Vector).Normalize()}
	thin := CapFromCenterAngle(mid, s1.Angle(1e-7))
	assert.True(t, thin.MayIntersect(cell))
	assert.False(t, thin.ContainsCell(cell))
}

func TestCapCellUnionBound(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(33, 34)) //nolint:gosec
	for range 200 {
		center := PointFromCoords(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
		c := CapFromCenterAngle(center, s1.Angle(math.Pow(10, -6*rng.Float64())))
		cu := CellUnion(c.CellUnionBound())
		require.NotEmpty(t, cu)
		require.LessOrEqual(t, len(cu), NumFaces)

		// points on the boundary of the cap are covered
		for k := range 8 {
			theta := float64(k) * math.Pi / 4
			p := boundaryPoint(c, theta, 0.999)
			covered := false
			for _, id := range cu {
				if cellFromCellID(id).ContainsPoint(p) {
					covered = true
					break
				}
			}
			require.True(t, covered, "cap %v point %d not covered by %v", c, k, cu)
		}
	}
	assert.Len(t, FullCap().CellUnionBound(), NumFaces)
}

// boundaryPoint returns the point at frac of the radius of c in direction
// theta around its center.
func boundaryPoint(c Cap, theta, frac float64) Point {
	center := c.Center().Vector
	ortho := center.Ortho()
	other := center.Cross(ortho)
	dir := ortho.Mul(math.Cos(theta)).Add(other.Mul(math.Sin(theta)))
	r := frac * c.Radius().Radians()
	return Point{center.Mul(math.Cos(r)).Add(dir.Mul(math.Sin(r))).Normalize()}
}

func TestCapCacheKey(t *testing.T) {
	t.Parallel()

	a := CapFromCenterMeters(LatLngFromDegrees(1, 2), 300)
	b := CapFromCenterMeters(LatLngFromDegrees(1, 2), 300)
	c := CapFromCenterMeters(LatLngFromDegrees(1, 2), 301)
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}
