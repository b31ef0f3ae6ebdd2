package s2cell

import "math/bits"

// Orientation of the curve within a cell, as a combination of swapping the
// i and j axes and inverting both of them.
const (
	swapMask   = 0x01
	invertMask = 0x02
)

// ijToPos maps an orientation and a quadrant, packed as i<<1|j, to the
// position at which the curve visits that quadrant.
var ijToPos = [4][4]int{
	{0, 1, 3, 2}, // canonical order
	{0, 3, 1, 2}, // axes swapped
	{2, 3, 1, 0}, // bits inverted
	{2, 1, 3, 0}, // swapped & inverted
}

// posToIJ is the inverse of ijToPos.
var posToIJ = [4][4]int{
	{0, 1, 3, 2}, // canonical order:    (0,0), (0,1), (1,1), (1,0)
	{0, 2, 3, 1}, // axes swapped:       (0,0), (1,0), (1,1), (0,1)
	{3, 2, 0, 1}, // bits inverted:      (1,1), (1,0), (0,0), (0,1)
	{3, 1, 0, 2}, // swapped & inverted: (1,1), (0,1), (0,0), (1,0)
}

// posToOrientation is XORed into the current orientation after descending
// into the quadrant visited at the given position.
var posToOrientation = [4]int{swapMask, 0, 0, invertMask | swapMask}

// encodeFaceIJ interleaves the bits of a leaf (i,j) into the curve position
// one quadrant at a time and returns the leaf cell id. The package uses the
// lookup-table codec in fast_hilbert.go; this one is the reference that
// tests and benchmarks compare it against.
//
// Adjacent faces start with opposite orientations so that the curve runs
// continuously across face boundaries.
func encodeFaceIJ(face, i, j int) uint64 {
	orientation := face & swapMask
	var pos uint64
	for k := MaxLevel - 1; k >= 0; k-- {
		quad := ((i>>k)&1)<<1 | (j>>k)&1
		p := ijToPos[orientation][quad]
		pos = pos<<2 | uint64(p) //nolint:gosec
		orientation ^= posToOrientation[p]
	}
	return uint64(face)<<posBits | pos<<1 | 1 //nolint:gosec
}

// decodeCell runs the automaton backwards over the position bits that
// identify the cell and returns its minimum (i,j) corner, its level and
// the curve orientation inside it. Like encodeFaceIJ it is only the
// reference for the table codec.
func decodeCell(id uint64) (face, i, j, level, orientation int) {
	face = int(id >> posBits) //nolint:gosec
	level = MaxLevel - bits.TrailingZeros64(id)>>1
	orientation = face & swapMask
	for k := range level {
		p := int(id>>(posBits-2-2*k)) & 3 //nolint:gosec
		quad := posToIJ[orientation][p]
		i = i<<1 | quad>>1
		j = j<<1 | quad&1
		orientation ^= posToOrientation[p]
	}
	shift := MaxLevel - level
	return face, i << shift, j << shift, level, orientation
}
