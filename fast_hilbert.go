package s2cell

import "sync"

// lookupBits is the number of bits of i and j consumed per table lookup.
const lookupBits = 4

// curveTables map 4 bits of i, 4 bits of j and 2 orientation bits to 8
// bits of curve position and the new orientation ("iiiijjjjoo" to
// "ppppppppoo"), and back.
type curveTables struct {
	pos [1 << (2*lookupBits + 2)]uint16
	ij  [1 << (2*lookupBits + 2)]uint16
}

// tables is built on first use and never written again.
var tables = sync.OnceValue(buildCurveTables)

func buildCurveTables() *curveTables {
	t := &curveTables{}
	for _, o := range [4]int{0, swapMask, invertMask, swapMask | invertMask} {
		t.initCell(0, 0, 0, o, 0, o)
	}
	return t
}

func (t *curveTables) initCell(level, i, j, origOrientation, pos, orientation int) {
	if level == lookupBits {
		ij := (i << lookupBits) + j
		t.pos[(ij<<2)+origOrientation] = uint16((pos << 2) + orientation) //nolint:gosec
		t.ij[(pos<<2)+origOrientation] = uint16((ij << 2) + orientation)  //nolint:gosec
		return
	}
	level++
	i <<= 1
	j <<= 1
	pos <<= 2
	r := posToIJ[orientation]
	for k := range 4 {
		t.initCell(level, i+(r[k]>>1), j+(r[k]&1), origOrientation, pos+k, orientation^posToOrientation[k])
	}
}

// fastEncodeFaceIJ is encodeFaceIJ processing 4 levels per step.
func fastEncodeFaceIJ(face, i, j int) uint64 {
	t := tables()
	// shifted left by one more bit at the end
	n := uint64(face) << (posBits - 1) //nolint:gosec
	bits := face & swapMask
	const mask = (1 << lookupBits) - 1
	for k := 7; k >= 0; k-- {
		bits += ((i >> (k * lookupBits)) & mask) << (lookupBits + 2)
		bits += ((j >> (k * lookupBits)) & mask) << 2
		bits = int(t.pos[bits])
		n |= uint64(bits>>2) << (k * 2 * lookupBits) //nolint:gosec
		bits &= swapMask | invertMask
	}
	return n*2 + 1
}

// fastDecode returns the face and the (i,j) of the leaf cell at the id's
// curve position, together with the orientation of the cell itself.
// For non-leaf cells that leaf lies next to the cell center.
func fastDecode(id uint64) (face, i, j, orientation int) {
	t := tables()
	face = int(id >> posBits) //nolint:gosec
	orientation = face & swapMask
	// the first step only has 2 levels left after 7 full steps
	nbits := MaxLevel - 7*lookupBits
	for k := 7; k >= 0; k-- {
		orientation += int((id>>(k*2*lookupBits+1))&((1<<(2*nbits))-1)) << 2 //nolint:gosec
		orientation = int(t.ij[orientation])
		i += (orientation >> (lookupBits + 2)) << (k * lookupBits)
		j += ((orientation >> 2) & ((1 << lookupBits) - 1)) << (k * lookupBits)
		orientation &= swapMask | invertMask
		nbits = lookupBits
	}
	// A level-n suffix is "10" followed by 00 pairs. Each 00 pair flips the
	// swap bit, so undo that for an odd number of pairs.
	if lsb(id)&0x1111111111111110 != 0 {
		orientation ^= swapMask
	}
	return face, i, j, orientation
}
