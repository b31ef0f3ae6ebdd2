package s2cell

import (
	"fmt"
	"slices"
	"sort"
)

// CellUnion is a set of cell ids. A normalized union is sorted, has no
// member contained in another and no four siblings standing in for their
// parent. Normalize is the usual way to build one; the set operations
// below expect normalized operands and return normalized results.
type CellUnion []CellID

// Normalize returns the normalized union of ids. The input is not
// modified. Invalid ids are rejected.
func Normalize(ids []CellID) (CellUnion, error) {
	for _, id := range ids {
		if !id.IsValid() {
			return nil, invalidCellID("normalize", id)
		}
	}
	return normalize(slices.Clone(ids)), nil
}

// normalize sorts ids in place and reuses its storage for the result.
func normalize(ids []CellID) CellUnion {
	slices.Sort(ids)
	out := ids[:0]
	for _, id := range ids {
		// Sorted order means only the last accepted cell can contain id.
		if len(out) > 0 && out[len(out)-1].contains(id) {
			continue
		}
		// id can only contain a trailing run of accepted cells.
		k := len(out) - 1
		for k >= 0 && id.contains(out[k]) {
			k--
		}
		out = out[:k+1]
		// merging may cascade into earlier cells
		for len(out) >= 3 && areSiblings(out[len(out)-3], out[len(out)-2], out[len(out)-1], id) {
			out = out[:len(out)-3]
			id = id.immediateParent()
		}
		out = append(out, id)
	}
	return out
}

// areSiblings reports whether a, b, c and d are the four children of one
// parent, in any order.
func areSiblings(a, b, c, d CellID) bool {
	// necessary but not sufficient
	if a^b^c != d {
		return false
	}
	// mask out the child position bits and compare the rest
	mask := lsb(uint64(d)) << 1
	mask = ^(mask + mask<<1)
	dm := uint64(d) & mask
	return uint64(a)&mask == dm &&
		uint64(b)&mask == dm &&
		uint64(c)&mask == dm &&
		!d.IsFace()
}

// IsValid reports whether cu holds valid ids in strictly increasing,
// non-overlapping order.
func (cu CellUnion) IsValid() bool {
	for i, id := range cu {
		if !id.IsValid() {
			return false
		}
		if i > 0 && cu[i-1].rangeMax() >= id.rangeMin() {
			return false
		}
	}
	return true
}

// IsNormalized reports whether cu is valid and has no mergeable siblings.
func (cu CellUnion) IsNormalized() bool {
	if !cu.IsValid() {
		return false
	}
	for i := 3; i < len(cu); i++ {
		if areSiblings(cu[i-3], cu[i-2], cu[i-1], cu[i]) {
			return false
		}
	}
	return true
}

// Denormalize replaces every cell by its descendants at the smallest level
// that is at least minLevel and is minLevel plus a multiple of levelMod.
// Cells already satisfying that are kept.
func (cu CellUnion) Denormalize(minLevel, levelMod int) (CellUnion, error) {
	if minLevel < 0 || minLevel > MaxLevel {
		return nil, fmt.Errorf("min level %d: %w", minLevel, ErrInvalidOptions)
	}
	if levelMod < 1 || levelMod > 3 {
		return nil, fmt.Errorf("level mod %d: %w", levelMod, ErrInvalidOptions)
	}
	if !cu.IsValid() {
		return nil, fmt.Errorf("denormalize: %w", ErrInvalidCellID)
	}
	return cu.denormalize(minLevel, levelMod), nil
}

func (cu CellUnion) denormalize(minLevel, levelMod int) CellUnion {
	out := make(CellUnion, 0, len(cu))
	for _, id := range cu {
		level := id.level()
		newLevel := max(level, minLevel)
		if levelMod > 1 {
			newLevel += (MaxLevel - (newLevel - minLevel)) % levelMod
			newLevel = min(newLevel, MaxLevel)
		}
		if newLevel == level {
			out = append(out, id)
			continue
		}
		end := id.childEndAtLevel(newLevel)
		for c := id.childBeginAtLevel(newLevel); c != end; c = c.Next() {
			out = append(out, c)
		}
	}
	return out
}

// ContainsCellID reports whether id lies entirely within cu.
func (cu CellUnion) ContainsCellID(id CellID) bool {
	if !id.IsValid() {
		return false
	}
	i := sort.Search(len(cu), func(i int) bool { return cu[i] >= id })
	if i < len(cu) && cu[i].rangeMin() <= id {
		return true
	}
	return i > 0 && cu[i-1].rangeMax() >= id
}

// IntersectsCellID reports whether id shares any leaf cell with cu.
func (cu CellUnion) IntersectsCellID(id CellID) bool {
	if !id.IsValid() {
		return false
	}
	i := sort.Search(len(cu), func(i int) bool { return cu[i] >= id })
	if i < len(cu) && cu[i].rangeMin() <= id.rangeMax() {
		return true
	}
	return i > 0 && cu[i-1].rangeMax() >= id.rangeMin()
}

// Contains reports whether every cell of other lies within cu.
func (cu CellUnion) Contains(other CellUnion) bool {
	for _, id := range other {
		if !cu.ContainsCellID(id) {
			return false
		}
	}
	return true
}

// Intersects reports whether cu and other share any leaf cell.
func (cu CellUnion) Intersects(other CellUnion) bool {
	for _, id := range other {
		if cu.IntersectsCellID(id) {
			return true
		}
	}
	return false
}

// Union returns the cells covered by cu or other.
func (cu CellUnion) Union(other CellUnion) CellUnion {
	ids := make([]CellID, 0, len(cu)+len(other))
	ids = append(ids, cu...)
	ids = append(ids, other...)
	return normalize(ids)
}

// Intersection returns the cells covered by both cu and other. Both unions
// are walked once in order.
func (cu CellUnion) Intersection(other CellUnion) CellUnion {
	var out []CellID
	i, j := 0, 0
	for i < len(cu) && j < len(other) {
		a, b := cu[i], other[j]
		aMin, bMin := a.rangeMin(), b.rangeMin()
		switch {
		case aMin > bMin:
			// b contains a, or b ends before a starts
			if a <= b.rangeMax() {
				out = append(out, a)
				i++
			} else {
				j++
			}
		case bMin > aMin:
			if b <= a.rangeMax() {
				out = append(out, b)
				j++
			} else {
				i++
			}
		default:
			// same first leaf, so the smaller one is contained
			if a < b {
				out = append(out, a)
				i++
			} else {
				out = append(out, b)
				j++
			}
		}
	}
	return normalize(out)
}

// Difference returns the cells covered by cu but not by other. Cells of cu
// that straddle the boundary of other are split into children until each
// piece is either inside or outside other.
func (cu CellUnion) Difference(other CellUnion) CellUnion {
	var out CellUnion
	for _, id := range cu {
		out = out.appendDifference(id, other)
	}
	return out
}

func (cu CellUnion) appendDifference(id CellID, other CellUnion) CellUnion {
	if !other.IntersectsCellID(id) {
		return append(cu, id)
	}
	if other.ContainsCellID(id) {
		return cu
	}
	for _, c := range id.children() {
		cu = cu.appendDifference(c, other)
	}
	return cu
}

// LeafCellsCovered returns the number of leaf cells in cu.
func (cu CellUnion) LeafCellsCovered() uint64 {
	var n uint64
	for _, id := range cu {
		n += 1 << (2 * (MaxLevel - id.level()))
	}
	return n
}

// ApproxArea returns the area of cu on the unit sphere.
func (cu CellUnion) ApproxArea() float64 {
	var area float64
	for _, id := range cu {
		area += cellFromCellID(id).ApproxArea()
	}
	return area
}

// ContainsPoint reports whether p lies in a cell of cu.
func (cu CellUnion) ContainsPoint(p Point) bool {
	if p.isDegenerate() {
		return false
	}
	return cu.ContainsCellID(cellIDFromPoint(p))
}

// MayIntersect reports whether cell shares a leaf cell with cu.
func (cu CellUnion) MayIntersect(cell Cell) bool {
	return cu.IntersectsCellID(cell.id)
}

// ContainsCell reports whether cell lies within cu.
func (cu CellUnion) ContainsCell(cell Cell) bool {
	return cu.ContainsCellID(cell.id)
}

// CapBound returns a cap around the area-weighted centroid of cu that
// contains the bounding caps of all its cells.
func (cu CellUnion) CapBound() Cap {
	if len(cu) == 0 {
		return EmptyCap()
	}
	var centroid Point
	for _, id := range cu {
		area := AvgAreaMetric.Value(id.level())
		centroid = Point{centroid.Add(id.point().Mul(area))}
	}
	if centroid == (Point{}) {
		centroid = centerPoint
	} else {
		centroid = Point{centroid.Normalize()}
	}
	// Bounding only the vertices is not enough, the union may span more
	// than a hemisphere.
	bound := CapFromPoint(centroid)
	for _, id := range cu {
		bound = bound.AddCap(cellFromCellID(id).CapBound())
	}
	return bound
}

// Tokens returns the tokens of the cells in cu.
func (cu CellUnion) Tokens() []string {
	out := make([]string, len(cu))
	for i, id := range cu {
		out[i] = id.ToToken()
	}
	return out
}
