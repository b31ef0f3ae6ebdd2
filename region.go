package s2cell

// Region is the contract a shape must satisfy to be covered. Implementations
// must be consistent: a cell containing a point of the region must
// MayIntersect, and CapBound must contain every point of the region.
type Region interface {
	// ContainsPoint reports whether p lies in the region.
	ContainsPoint(p Point) bool
	// MayIntersect reports false only if cell and the region share no point.
	MayIntersect(cell Cell) bool
	// CapBound returns a cap containing the region.
	CapBound() Cap
}

// CellContainer is implemented by regions that can tell when a cell lies
// entirely inside them. The coverer stops subdividing such cells early;
// regions without it are subdivided down to the maximum level.
type CellContainer interface {
	ContainsCell(cell Cell) bool
}

// Keyer is implemented by regions that can be memoized by CachedCoverer.
// Equal keys must describe equal regions.
type Keyer interface {
	CacheKey() string
}

var (
	_ Region        = Cap{}
	_ Region        = Cell{}
	_ Region        = CellUnion(nil)
	_ CellContainer = Cap{}
	_ CellContainer = Cell{}
	_ CellContainer = CellUnion(nil)
	_ Keyer         = Cap{}
	_ Keyer         = Cell{}
)

func containsCell(r Region, cell Cell) bool {
	if cc, ok := r.(CellContainer); ok {
		return cc.ContainsCell(cell)
	}
	return false
}
