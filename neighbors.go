package s2cell

import (
	"fmt"
	"math"
	"sync"
)

// Edge directions in (i,j) space of a face.
const (
	edgeDown = iota
	edgeRight
	edgeUp
	edgeLeft
)

// faceEdge describes where the leaf cells just across one edge of a face
// land on the adjacent face.
type faceEdge struct {
	face int
	// alongI is set when the coordinate running along the edge becomes i
	// on the adjacent face.
	alongI bool
	// flip maps the along-edge coordinate c to MaxSize-1-c.
	flip bool
	// fixed is the perpendicular coordinate on the adjacent face, which is
	// always 0 or MaxSize-1.
	fixed int
}

// faceEdges is the per-face adjacency table, indexed by face and edge
// direction. It is derived once from the cube geometry.
var faceEdges = sync.OnceValue(buildFaceEdges)

func buildFaceEdges() *[NumFaces][4]faceEdge {
	var t [NumFaces][4]faceEdge
	const c1, c2 = MaxSize / 3, 2 * MaxSize / 3
	step := func(f, d, c int) (int, int, int) {
		var i, j int
		switch d {
		case edgeDown:
			i, j = c, -1
		case edgeRight:
			i, j = MaxSize, c
		case edgeUp:
			i, j = c, MaxSize
		default:
			i, j = -1, c
		}
		face, ni, nj, _ := cellIDFromFaceIJWrap(f, i, j).faceIJOrientation()
		return face, ni, nj
	}
	for f := range NumFaces {
		for d := range 4 {
			nf, i1, j1 := step(f, d, c1)
			_, i2, j2 := step(f, d, c2)
			e := faceEdge{face: nf}
			if i1 != i2 {
				e.alongI = true
				e.flip = i2 < i1
				e.fixed = j1
			} else {
				e.flip = j2 < j1
				e.fixed = i1
			}
			t[f][d] = e
		}
	}
	return &t
}

// cross returns the leaf cell on the far side of edge d of face f, at
// along-edge coordinate c.
func (e faceEdge) cross(c int) CellID {
	if e.flip {
		c = MaxSize - 1 - c
	}
	if e.alongI {
		return cellIDFromFaceIJ(e.face, c, e.fixed)
	}
	return cellIDFromFaceIJ(e.face, e.fixed, c)
}

// cellIDFromFaceIJWrap returns the leaf cell for (i,j) where the
// coordinates may lie just outside the face. Such coordinates are wrapped
// onto the adjacent face by reprojecting through (x,y,z).
func cellIDFromFaceIJWrap(f, i, j int) CellID {
	// one leaf beyond the boundary is enough, and keeps the maths small
	i = clampInt(i, -1, MaxSize)
	j = clampInt(j, -1, MaxSize)

	// Any projection works for the wrap, so use the linear one. (u,v) are
	// clamped to just outside [-1,1] so that dividing by the new face axis
	// cannot move the other coordinate into a different leaf.
	const scale = 1.0 / MaxSize
	limit := math.Nextafter(1, 2)
	u := math.Max(-limit, math.Min(limit, scale*float64((i<<1)+1-MaxSize)))
	v := math.Max(-limit, math.Min(limit, scale*float64((j<<1)+1-MaxSize)))

	nf, nu, nv := xyzToFaceUV(faceUVToXYZ(f, u, v))
	return cellIDFromFaceIJ(nf, stToIJ(0.5*(nu+1)), stToIJ(0.5*(nv+1)))
}

func cellIDFromFaceIJSame(f, i, j int, sameFace bool) CellID {
	if sameFace {
		return cellIDFromFaceIJ(f, i, j)
	}
	return cellIDFromFaceIJWrap(f, i, j)
}

// EdgeNeighbors returns the four cells at the same level that share an edge
// with ci, in the order down, right, up, left relative to the (i,j) axes of
// ci's face. Neighbors across a cube edge come from the face adjacency table.
func (ci CellID) EdgeNeighbors() ([4]CellID, error) {
	if !ci.IsValid() {
		return [4]CellID{}, invalidCellID("edge neighbors", ci)
	}
	return ci.edgeNeighbors(), nil
}

func (ci CellID) edgeNeighbors() [4]CellID {
	f, i, j, level := ci.faceIJ()
	size := sizeIJ(level)
	edges := &faceEdges()[f]
	var out [4]CellID
	for d := range out {
		var ni, nj, along int
		switch d {
		case edgeDown:
			ni, nj, along = i, j-size, i
		case edgeRight:
			ni, nj, along = i+size, j, j
		case edgeUp:
			ni, nj, along = i, j+size, i
		default:
			ni, nj, along = i-size, j, j
		}
		if ni >= 0 && ni < MaxSize && nj >= 0 && nj < MaxSize {
			out[d] = cellIDFromFaceIJ(f, ni, nj).parent(level)
			continue
		}
		out[d] = edges[d].cross(along).parent(level)
	}
	return out
}

// edgeNeighborsWrap computes the same cells as edgeNeighbors by
// reprojecting through (x,y,z) instead of using the adjacency table. It is
// kept as the reference the table is tested against.
func (ci CellID) edgeNeighborsWrap() [4]CellID {
	level := ci.level()
	size := sizeIJ(level)
	f, i, j, _ := ci.faceIJOrientation()
	return [4]CellID{
		cellIDFromFaceIJWrap(f, i, j-size).parent(level),
		cellIDFromFaceIJWrap(f, i+size, j).parent(level),
		cellIDFromFaceIJWrap(f, i, j+size).parent(level),
		cellIDFromFaceIJWrap(f, i-size, j).parent(level),
	}
}

// VertexNeighbors returns the cells at level that share the vertex of their
// level closest to the center of ci. There are 4 such cells, or 3 when the
// vertex is a cube corner. level must be coarser than the level of ci.
func (ci CellID) VertexNeighbors(level int) ([]CellID, error) {
	if !ci.IsValid() {
		return nil, invalidCellID("vertex neighbors", ci)
	}
	if level < 0 || level >= ci.level() {
		return nil, fmt.Errorf("vertex neighbors at level %d of a level %d cell: %w", level, ci.level(), ErrInvalidCellID)
	}
	return ci.vertexNeighbors(level), nil
}

func (ci CellID) vertexNeighbors(level int) []CellID {
	halfSize := sizeIJ(level + 1)
	size := halfSize << 1
	f, i, j, _ := ci.faceIJOrientation()

	var isame, jsame bool
	var ioffset, joffset int
	if i&halfSize != 0 {
		ioffset = size
		isame = i+size < MaxSize
	} else {
		ioffset = -size
		isame = i-size >= 0
	}
	if j&halfSize != 0 {
		joffset = size
		jsame = j+size < MaxSize
	} else {
		joffset = -size
		jsame = j-size >= 0
	}

	out := make([]CellID, 0, 4)
	out = append(out,
		ci.parent(level),
		cellIDFromFaceIJSame(f, i+ioffset, j, isame).parent(level),
		cellIDFromFaceIJSame(f, i, j+joffset, jsame).parent(level),
	)
	if isame || jsame {
		out = append(out, cellIDFromFaceIJSame(f, i+ioffset, j+joffset, isame && jsame).parent(level))
	}
	return out
}
