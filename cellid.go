package s2cell

import (
	"fmt"
	"math/bits"
	"strings"
)

// CellID identifies a cell in the hierarchical decomposition of the sphere.
//
// The top 3 bits select the face, the next 2*k bits select one of the four
// children at each of the levels 1..k, and the following bit is set to mark
// level k. All lower bits are zero. Leaf cells therefore have bit 0 set and
// face cells have bit 60 set.
//
// Ids compare as plain unsigned integers, and that order is the order in
// which the space-filling curve visits the cells.
type CellID uint64

const (
	faceBits = 3
	posBits  = 2*MaxLevel + 1

	// validLSBMask has a bit at each position a level marker may occupy.
	validLSBMask = 0x1555555555555555
)

// SentinelCellID is larger than every valid cell id. It is useful as an
// end marker in ordered stores.
const SentinelCellID = CellID(^uint64(0))

func lsb(id uint64) uint64 {
	return id & (^id + 1)
}

func lsbForLevel(level int) uint64 {
	return 1 << (2 * (MaxLevel - level))
}

// sizeIJ returns the edge length of a cell at level in leaf cells.
func sizeIJ(level int) int {
	return 1 << (MaxLevel - level)
}

// CellIDFromFace returns the level 0 cell of face.
func CellIDFromFace(face int) (CellID, error) {
	if face < 0 || face >= NumFaces {
		return 0, fmt.Errorf("face %d: %w", face, ErrInvalidCellID)
	}
	return CellID(uint64(face)<<posBits + lsbForLevel(0)), nil //nolint:gosec
}

// CellIDFromFacePosLevel returns the cell at level containing the curve
// position pos on face.
func CellIDFromFacePosLevel(face int, pos uint64, level int) (CellID, error) {
	if face < 0 || face >= NumFaces {
		return 0, fmt.Errorf("face %d: %w", face, ErrInvalidCellID)
	}
	if pos >= 1<<posBits {
		return 0, fmt.Errorf("position 0x%x exceeds %d bits: %w", pos, posBits, ErrInvalidCellID)
	}
	if level < 0 || level > MaxLevel {
		return 0, fmt.Errorf("level %d: %w", level, ErrInvalidCellID)
	}
	leaf := CellID(uint64(face)<<posBits + pos | 1) //nolint:gosec
	return leaf.parent(level), nil
}

// CellIDFromFaceIJ returns the leaf cell with the given coordinates.
func CellIDFromFaceIJ(face, i, j int) (CellID, error) {
	return CellIDFromFaceIJLevel(face, i, j, MaxLevel)
}

// CellIDFromFaceIJLevel returns the cell at level containing the leaf cell
// (i,j) on face.
func CellIDFromFaceIJLevel(face, i, j, level int) (CellID, error) {
	if face < 0 || face >= NumFaces {
		return 0, fmt.Errorf("face %d: %w", face, ErrInvalidCellID)
	}
	if i < 0 || i >= MaxSize || j < 0 || j >= MaxSize {
		return 0, fmt.Errorf("leaf coordinates (%d, %d) outside of face: %w", i, j, ErrInvalidCellID)
	}
	if level < 0 || level > MaxLevel {
		return 0, fmt.Errorf("level %d: %w", level, ErrInvalidCellID)
	}
	return cellIDFromFaceIJ(face, i, j).parent(level), nil
}

func cellIDFromFaceIJ(face, i, j int) CellID {
	return CellID(fastEncodeFaceIJ(face, i, j))
}

// CellIDFromPoint returns the leaf cell containing p.
func CellIDFromPoint(p Point) (CellID, error) {
	f, u, v, err := PointToFaceUV(p)
	if err != nil {
		return 0, err
	}
	return cellIDFromFaceIJ(f, stToIJ(UVToST(u)), stToIJ(UVToST(v))), nil
}

// CellIDFromLatLng returns the leaf cell containing ll.
func CellIDFromLatLng(ll LatLng) (CellID, error) {
	return CellIDFromPoint(PointFromLatLng(ll))
}

// cellIDFromPoint is CellIDFromPoint for points already known to be valid.
func cellIDFromPoint(p Point) CellID {
	f, u, v := xyzToFaceUV(p.Vector)
	return cellIDFromFaceIJ(f, stToIJ(UVToST(u)), stToIJ(UVToST(v)))
}

// IsValid reports whether ci has a face in [0,6) and a level marker at one
// of the 31 admissible positions.
func (ci CellID) IsValid() bool {
	return ci.Face() < NumFaces && lsb(uint64(ci))&validLSBMask != 0
}

// Face returns the cube face of ci.
func (ci CellID) Face() int {
	return int(uint64(ci) >> posBits) //nolint:gosec
}

// Pos returns the position of ci along the curve over its face.
func (ci CellID) Pos() uint64 {
	return uint64(ci) & (^uint64(0) >> faceBits)
}

// Level returns the subdivision level of ci, or -1 if ci is not valid.
func (ci CellID) Level() int {
	if !ci.IsValid() {
		return -1
	}
	return ci.level()
}

func (ci CellID) level() int {
	return MaxLevel - bits.TrailingZeros64(uint64(ci))>>1
}

// IsLeaf reports whether ci is a valid leaf cell.
func (ci CellID) IsLeaf() bool {
	return ci.IsValid() && uint64(ci)&1 != 0
}

// IsFace reports whether ci is a valid level 0 cell.
func (ci CellID) IsFace() bool {
	return ci.IsValid() && uint64(ci)&(lsbForLevel(0)-1) == 0
}

// LSB returns the level marker bit of ci.
func (ci CellID) LSB() uint64 {
	return lsb(uint64(ci))
}

// Parent returns the ancestor of ci at level. Asking for a level deeper
// than ci is an error.
func (ci CellID) Parent(level int) (CellID, error) {
	if !ci.IsValid() {
		return 0, invalidCellID("parent", ci)
	}
	if level < 0 || level > ci.level() {
		return 0, fmt.Errorf("parent at level %d of a level %d cell: %w", level, ci.level(), ErrInvalidCellID)
	}
	return ci.parent(level), nil
}

func (ci CellID) parent(level int) CellID {
	l := lsbForLevel(level)
	return CellID(uint64(ci)&^(l-1)&^l | l)
}

// ImmediateParent returns the parent of ci one level up.
func (ci CellID) ImmediateParent() (CellID, error) {
	if !ci.IsValid() || ci.IsFace() {
		return 0, invalidCellID("immediate parent", ci)
	}
	return ci.immediateParent(), nil
}

func (ci CellID) immediateParent() CellID {
	l := lsb(uint64(ci)) << 2
	return CellID(uint64(ci)&^(l-1)&^l | l)
}

// Child returns the k-th child of ci in curve order.
func (ci CellID) Child(k int) (CellID, error) {
	if !ci.IsValid() || ci.IsLeaf() {
		return 0, invalidCellID("child", ci)
	}
	if k < 0 || k > 3 {
		return 0, fmt.Errorf("child index %d: %w", k, ErrInvalidCellID)
	}
	return ci.child(k), nil
}

func (ci CellID) child(k int) CellID {
	l := lsb(uint64(ci))
	return CellID(uint64(ci) - l + uint64(2*k+1)*(l>>2)) //nolint:gosec
}

// Children returns the four children of ci. They are contiguous, strictly
// increasing and together span exactly the range of ci.
func (ci CellID) Children() ([4]CellID, error) {
	if !ci.IsValid() || ci.IsLeaf() {
		return [4]CellID{}, invalidCellID("children", ci)
	}
	return ci.children(), nil
}

func (ci CellID) children() [4]CellID {
	var ch [4]CellID
	for k := range ch {
		ch[k] = ci.child(k)
	}
	return ch
}

// ChildBegin returns the first child of ci.
func (ci CellID) ChildBegin() (CellID, error) {
	if !ci.IsValid() || ci.IsLeaf() {
		return 0, invalidCellID("child begin", ci)
	}
	l := lsb(uint64(ci))
	return CellID(uint64(ci) - l + l>>2), nil
}

// ChildEnd returns the cell following the last child of ci. Like Next it
// is an iteration bound and may be invalid.
func (ci CellID) ChildEnd() (CellID, error) {
	if !ci.IsValid() || ci.IsLeaf() {
		return 0, invalidCellID("child end", ci)
	}
	l := lsb(uint64(ci))
	return CellID(uint64(ci) + l + l>>2), nil
}

// ChildBeginAtLevel returns the first descendant of ci at level.
func (ci CellID) ChildBeginAtLevel(level int) (CellID, error) {
	if !ci.IsValid() || level < ci.level() || level > MaxLevel {
		return 0, fmt.Errorf("descendants at level %d of 0x%016x: %w", level, uint64(ci), ErrInvalidCellID)
	}
	return ci.childBeginAtLevel(level), nil
}

// ChildEndAtLevel returns the cell following the last descendant of ci at
// level. The result is only meant as an exclusive iteration bound and may
// not be valid.
func (ci CellID) ChildEndAtLevel(level int) (CellID, error) {
	if !ci.IsValid() || level < ci.level() || level > MaxLevel {
		return 0, fmt.Errorf("descendants at level %d of 0x%016x: %w", level, uint64(ci), ErrInvalidCellID)
	}
	return ci.childEndAtLevel(level), nil
}

func (ci CellID) childBeginAtLevel(level int) CellID {
	return CellID(uint64(ci) - lsb(uint64(ci)) + lsbForLevel(level))
}

func (ci CellID) childEndAtLevel(level int) CellID {
	return CellID(uint64(ci) + lsb(uint64(ci)) + lsbForLevel(level))
}

// Next returns the following cell at the same level. Past the last cell of
// face 5 the result is not valid.
func (ci CellID) Next() CellID {
	return CellID(uint64(ci) + lsb(uint64(ci))<<1)
}

// Prev returns the preceding cell at the same level.
func (ci CellID) Prev() CellID {
	return CellID(uint64(ci) - lsb(uint64(ci))<<1)
}

// ChildPosition returns which child (0..3) of its level-1 ancestor the
// ancestor of ci at level is.
func (ci CellID) ChildPosition(level int) (int, error) {
	if !ci.IsValid() || level < 1 || level > ci.level() {
		return 0, fmt.Errorf("child position at level %d of 0x%016x: %w", level, uint64(ci), ErrInvalidCellID)
	}
	return ci.childPosition(level), nil
}

func (ci CellID) childPosition(level int) int {
	return int(uint64(ci)>>(2*(MaxLevel-level)+1)) & 3 //nolint:gosec
}

// RangeMin returns the first leaf cell contained in ci.
func (ci CellID) RangeMin() (CellID, error) {
	if !ci.IsValid() {
		return 0, invalidCellID("range min", ci)
	}
	return ci.rangeMin(), nil
}

// RangeMax returns the last leaf cell contained in ci.
func (ci CellID) RangeMax() (CellID, error) {
	if !ci.IsValid() {
		return 0, invalidCellID("range max", ci)
	}
	return ci.rangeMax(), nil
}

func (ci CellID) rangeMin() CellID {
	return CellID(uint64(ci) - (lsb(uint64(ci)) - 1))
}

func (ci CellID) rangeMax() CellID {
	return CellID(uint64(ci) + (lsb(uint64(ci)) - 1))
}

// Contains reports whether other is ci or one of its descendants. It is
// false when either id is invalid.
func (ci CellID) Contains(other CellID) bool {
	if !ci.IsValid() || !other.IsValid() {
		return false
	}
	return ci.contains(other)
}

func (ci CellID) contains(other CellID) bool {
	return ci.rangeMin() <= other.rangeMin() && other.rangeMax() <= ci.rangeMax()
}

// Intersects reports whether ci and other share any leaf cell, i.e. one
// of them contains the other.
func (ci CellID) Intersects(other CellID) bool {
	if !ci.IsValid() || !other.IsValid() {
		return false
	}
	return ci.intersects(other)
}

func (ci CellID) intersects(other CellID) bool {
	return other.rangeMin() <= ci.rangeMax() && other.rangeMax() >= ci.rangeMin()
}

// CommonAncestorLevel returns the level of the deepest cell containing both
// ci and other. It reports false when they are on different faces.
func (ci CellID) CommonAncestorLevel(other CellID) (int, bool) {
	diff := uint64(ci ^ other)
	diff = max(diff, lsb(uint64(ci)), lsb(uint64(other)))
	msb := bits.Len64(diff) - 1
	if msb > 60 {
		return 0, false
	}
	return (60 - msb) >> 1, true
}

// FaceIJ decodes ci into its face, the (i,j) of its minimum corner in leaf
// cell units, and its level.
func (ci CellID) FaceIJ() (face, i, j, level int, err error) {
	if !ci.IsValid() {
		return 0, 0, 0, 0, invalidCellID("decode", ci)
	}
	face, i, j, level = ci.faceIJ()
	return face, i, j, level, nil
}

func (ci CellID) faceIJ() (face, i, j, level int) {
	face, i, j, _ = fastDecode(uint64(ci))
	level = ci.level()
	mask := ^(sizeIJ(level) - 1)
	return face, i & mask, j & mask, level
}

// faceIJOrientation returns the leaf at the curve position of ci and the
// orientation of ci.
func (ci CellID) faceIJOrientation() (face, i, j, orientation int) {
	return fastDecode(uint64(ci))
}

// centerSiTi returns the center of ci in discrete cell-space coordinates.
func (ci CellID) centerSiTi() (face int, si, ti uint64) {
	face, i, j, level := ci.faceIJ()
	size := uint64(sizeIJ(level))                           //nolint:gosec
	return face, 2*uint64(i) + size, 2*uint64(j) + size //nolint:gosec
}

// Point returns the center of ci on the unit sphere.
func (ci CellID) Point() (Point, error) {
	if !ci.IsValid() {
		return Point{}, invalidCellID("center", ci)
	}
	return ci.point(), nil
}

func (ci CellID) point() Point {
	face, si, ti := ci.centerSiTi()
	return Point{faceUVToXYZ(face, STToUV(siTiToST(si)), STToUV(siTiToST(ti))).Normalize()}
}

// LatLng returns the center of ci as a latitude/longitude pair.
func (ci CellID) LatLng() (LatLng, error) {
	p, err := ci.Point()
	if err != nil {
		return LatLng{}, err
	}
	return LatLngFromPoint(p), nil
}

// String renders ci as its face followed by the child positions from level 1
// down to its level, e.g. "4/0123". It is meant for diagnostics only.
func (ci CellID) String() string {
	if !ci.IsValid() {
		return fmt.Sprintf("Invalid: %016x", uint64(ci))
	}
	var b strings.Builder
	level := ci.level()
	b.Grow(2 + level)
	b.WriteByte('0' + byte(ci.Face())) //nolint:gosec
	b.WriteByte('/')
	for l := 1; l <= level; l++ {
		b.WriteByte('0' + byte(ci.childPosition(l))) //nolint:gosec
	}
	return b.String()
}
