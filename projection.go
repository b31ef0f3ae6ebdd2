package s2cell

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

const (
	// NumFaces is the number of cube faces.
	NumFaces = 6
	// MaxLevel is the level of leaf cells.
	MaxLevel = 30
	// MaxSize is the number of leaf cells along one edge of a face.
	MaxSize = 1 << MaxLevel

	// maxSiTi is the upper bound of the discrete cell-space coordinates.
	// At this scale every cell edge and center is an integer.
	maxSiTi = 1 << (MaxLevel + 1)
)

func rawVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// STToUV applies the quadratic area-equalizing warp, mapping s in [0,1]
// to u in [-1,1].
func STToUV(s float64) float64 {
	if s >= 0.5 {
		return (1 / 3.) * (4*s*s - 1)
	}
	return (1 / 3.) * (1 - 4*(1-s)*(1-s))
}

// UVToST is the inverse of STToUV.
func UVToST(u float64) float64 {
	if u >= 0 {
		return 0.5 * math.Sqrt(1+3*u)
	}
	return 1 - 0.5*math.Sqrt(1-3*u)
}

// STToIJ scales s into [0, 2^level) and truncates. Values outside [0,1]
// are clamped to the nearest valid index, and level to [0, MaxLevel].
func STToIJ(s float64, level int) int {
	size := 1 << clampInt(level, 0, MaxLevel)
	return clampInt(int(math.Floor(float64(size)*s)), 0, size-1)
}

// IJToSTMin returns the minimum s value of the cell with index i at level.
// Levels outside [0, MaxLevel] are clamped.
func IJToSTMin(i, level int) float64 {
	return float64(i) / float64(int(1)<<clampInt(level, 0, MaxLevel))
}

func stToIJ(s float64) int {
	return clampInt(int(math.Floor(MaxSize*s)), 0, MaxSize-1)
}

func ijToSTMin(i int) float64 {
	return float64(i) / MaxSize
}

func siTiToST(si uint64) float64 {
	return float64(si) / maxSiTi
}

// largestAxis returns the axis with the largest absolute component.
// Ties go to the later axis, so Z wins over Y and Y over X.
func largestAxis(v r3.Vector) int {
	a := v.Abs()
	if a.X > a.Y {
		if a.X > a.Z {
			return 0
		}
		return 2
	}
	if a.Y > a.Z {
		return 1
	}
	return 2
}

func face(v r3.Vector) int {
	f := largestAxis(v)
	switch f {
	case 0:
		if v.X < 0 {
			f += 3
		}
	case 1:
		if v.Y < 0 {
			f += 3
		}
	default:
		if v.Z < 0 {
			f += 3
		}
	}
	return f
}

// validFaceXYZToUV projects v onto the given face. v must lie in the
// hemisphere around the face normal.
func validFaceXYZToUV(face int, v r3.Vector) (u, vv float64) {
	switch face {
	case 0:
		return v.Y / v.X, v.Z / v.X
	case 1:
		return -v.X / v.Y, v.Z / v.Y
	case 2:
		return -v.X / v.Z, -v.Y / v.Z
	case 3:
		return v.Z / v.X, v.Y / v.X
	case 4:
		return v.Z / v.Y, -v.X / v.Y
	default:
		return -v.Y / v.Z, -v.X / v.Z
	}
}

func xyzToFaceUV(v r3.Vector) (f int, u, vv float64) {
	f = face(v)
	u, vv = validFaceXYZToUV(f, v)
	return f, u, vv
}

// faceXYZToUV projects v onto face f, reporting false when v is on the far
// side of the face's plane.
func faceXYZToUV(f int, v r3.Vector) (u, vv float64, ok bool) {
	switch f {
	case 0:
		ok = v.X > 0
	case 1:
		ok = v.Y > 0
	case 2:
		ok = v.Z > 0
	case 3:
		ok = v.X < 0
	case 4:
		ok = v.Y < 0
	default:
		ok = v.Z < 0
	}
	if !ok {
		return 0, 0, false
	}
	u, vv = validFaceXYZToUV(f, v)
	return u, vv, true
}

func faceUVToXYZ(face int, u, v float64) r3.Vector {
	switch face {
	case 0:
		return rawVector(1, u, v)
	case 1:
		return rawVector(-u, 1, v)
	case 2:
		return rawVector(-u, -v, 1)
	case 3:
		return rawVector(-1, -v, -u)
	case 4:
		return rawVector(v, -1, -u)
	default:
		return rawVector(v, u, -1)
	}
}

// PointToFaceUV returns the cube face containing p and the face-local (u,v)
// coordinates of p. The projection only depends on the direction of p.
func PointToFaceUV(p Point) (face int, u, v float64, err error) {
	if p.isDegenerate() {
		return 0, 0, 0, fmt.Errorf("projecting %v: %w", p.Vector, ErrInvalidGeometry)
	}
	face, u, v = xyzToFaceUV(p.Vector)
	return face, u, v, nil
}

// FaceUVToPoint returns the unit point for (face, u, v).
func FaceUVToPoint(face int, u, v float64) (Point, error) {
	if face < 0 || face >= NumFaces {
		return Point{}, fmt.Errorf("face %d: %w", face, ErrInvalidGeometry)
	}
	return Point{faceUVToXYZ(face, u, v).Normalize()}, nil
}

// uNorm returns the normal of the plane through the origin and the line of
// constant u on face. Its dot product is positive for points with smaller u.
// It is not unit length.
func uNorm(face int, u float64) r3.Vector {
	switch face {
	case 0:
		return rawVector(u, -1, 0)
	case 1:
		return rawVector(1, u, 0)
	case 2:
		return rawVector(1, 0, u)
	case 3:
		return rawVector(-u, 0, 1)
	case 4:
		return rawVector(0, -u, 1)
	default:
		return rawVector(0, -1, -u)
	}
}

// vNorm is the counterpart of uNorm for lines of constant v, positive for
// points with larger v.
func vNorm(face int, v float64) r3.Vector {
	switch face {
	case 0:
		return rawVector(-v, 0, 1)
	case 1:
		return rawVector(0, -v, 1)
	case 2:
		return rawVector(0, -1, -v)
	case 3:
		return rawVector(v, -1, 0)
	case 4:
		return rawVector(1, v, 0)
	default:
		return rawVector(1, 0, v)
	}
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
