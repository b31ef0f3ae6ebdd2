package s2cell

import (
	"container/heap"
	"sort"
)

// Coverer approximates regions by unions of cells under the limits of its
// CoverOptions. It holds no state between calls and is safe for concurrent
// use.
//
// The algorithm keeps a priority queue of candidate cells, starting from a
// handful of cells around the region's bounding cap. Cells contained in the
// region, or that cannot be subdivided any further, are accepted. The others
// are split into the children that still intersect the region for as long as
// the budget allows, coarsest cells first. Leftover overflow is merged into
// common ancestors at the end.
type Coverer struct {
	opts CoverOptions
}

// NewCoverer returns a Coverer with DefaultCoverOptions modified by opts.
func NewCoverer(opts ...CovererOption) (*Coverer, error) {
	o := DefaultCoverOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Coverer{opts: o}, nil
}

// Options returns the options of c.
func (c *Coverer) Options() CoverOptions {
	return c.opts
}

// Covering returns a sorted union of cells covering region. Every point of
// the region lies in some cell of the result. The result is normalized only
// when MinLevel is 0 and LevelMod is 1; otherwise four siblings stay split
// where their parent's level is not allowed.
func (c *Coverer) Covering(region Region) CellUnion {
	return c.newCovering(false).run(region)
}

// InteriorCovering returns a sorted union of cells contained in region,
// normalized under the same conditions as Covering.
// Regions that cannot report contained cells yield an empty union.
func (c *Coverer) InteriorCovering(region Region) CellUnion {
	return c.newCovering(true).run(region)
}

// FastCovering returns a cheap covering of region built from its bounding
// cap. It is looser than Covering but respects the same options.
func (c *Coverer) FastCovering(region Region) CellUnion {
	cov := c.newCovering(false)
	return cov.normalizeCovering(CellUnion(region.CapBound().CellUnionBound()))
}

// Cover returns the covering of region under opts.
func Cover(region Region, opts CoverOptions) (CellUnion, error) {
	c, err := NewCoverer(WithOptions(opts))
	if err != nil {
		return nil, err
	}
	return c.Covering(region), nil
}

// InteriorCover returns the interior covering of region under opts.
func InteriorCover(region Region, opts CoverOptions) (CellUnion, error) {
	c, err := NewCoverer(WithOptions(opts))
	if err != nil {
		return nil, err
	}
	return c.InteriorCovering(region), nil
}

type candidate struct {
	cell        Cell
	terminal    bool // accepted as is, never expanded
	numChildren int
	children    []*candidate
	priority    int
}

// candidateQueue pops the highest priority first.
type candidateQueue []*candidate

func (q candidateQueue) Len() int           { return len(q) }
func (q candidateQueue) Less(i, j int) bool { return q[i].priority > q[j].priority }
func (q candidateQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *candidateQueue) Push(x any) {
	*q = append(*q, x.(*candidate)) //nolint:forcetypeassert
}

func (q *candidateQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// covering is the state of a single covering computation.
type covering struct {
	CoverOptions
	interior bool
	region   Region
	result   []CellID
	queue    candidateQueue
}

func (c *Coverer) newCovering(interior bool) *covering {
	return &covering{CoverOptions: c.opts, interior: interior}
}

func (cv *covering) run(region Region) CellUnion {
	cv.region = region
	cv.initialCandidates()
	for cv.queue.Len() > 0 && (!cv.interior || len(cv.result) < cv.MaxCells) {
		cand := heap.Pop(&cv.queue).(*candidate) //nolint:forcetypeassert

		// An exterior covering must use all children of a candidate or none.
		// A single child is always fine since it does not grow the result.
		if cv.interior || int(cand.cell.level) < cv.MinLevel || cand.numChildren == 1 ||
			len(cv.result)+cv.queue.Len()+cand.numChildren <= cv.MaxCells {
			for _, child := range cand.children {
				if !cv.interior || len(cv.result) < cv.MaxCells {
					cv.addCandidate(child)
				}
			}
			continue
		}
		cand.terminal = true
		cv.addCandidate(cand)
	}
	cv.queue = nil
	cv.region = nil
	return cv.normalizeCovering(cv.result)
}

// newCandidate returns a candidate for cell, or nil if cell does not
// intersect the region or cannot contribute to an interior covering.
func (cv *covering) newCandidate(cell Cell) *candidate {
	if !cv.region.MayIntersect(cell) {
		return nil
	}
	cand := &candidate{cell: cell}
	level := int(cell.level)
	if level < cv.MinLevel {
		return cand
	}
	if cv.interior {
		if containsCell(cv.region, cell) {
			cand.terminal = true
		} else if level+cv.LevelMod > cv.MaxLevel {
			return nil
		}
		return cand
	}
	if level+cv.LevelMod > cv.MaxLevel || containsCell(cv.region, cell) {
		cand.terminal = true
	}
	return cand
}

// expandChildren adds the descendants of cell numLevels below it as
// children of cand and returns how many of them are terminal.
func (cv *covering) expandChildren(cand *candidate, cell Cell, numLevels int) int {
	numLevels--
	var numTerminals int
	for _, id := range cell.id.children() {
		child := cellFromCellID(id)
		if numLevels > 0 {
			if cv.region.MayIntersect(child) {
				numTerminals += cv.expandChildren(cand, child, numLevels)
			}
			continue
		}
		if c := cv.newCandidate(child); c != nil {
			cand.children = append(cand.children, c)
			cand.numChildren++
			if c.terminal {
				numTerminals++
			}
		}
	}
	return numTerminals
}

func (cv *covering) addCandidate(cand *candidate) {
	if cand == nil {
		return
	}
	if cand.terminal {
		cv.result = append(cv.result, cand.cell.id)
		return
	}

	// step one level at a time below MinLevel so it is not skipped
	level := int(cand.cell.level)
	numLevels := cv.LevelMod
	if level < cv.MinLevel {
		numLevels = 1
	}
	numTerminals := cv.expandChildren(cand, cand.cell, numLevels)
	shift := 2 * cv.LevelMod
	switch {
	case cand.numChildren == 0:
		return
	case !cv.interior && numTerminals == 1<<shift && level >= cv.MinLevel:
		// every child is terminal, so the candidate itself will do
		cand.terminal = true
		cv.addCandidate(cand)
	default:
		// Coarser cells first, then fewer children, then fewer terminal
		// children. Negated so that the queue pops the smallest.
		cand.priority = -(((level<<shift)+cand.numChildren)<<shift + numTerminals)
		heap.Push(&cv.queue, cand)
	}
}

// adjustLevel rounds level down to MinLevel plus a multiple of LevelMod.
func (cv *covering) adjustLevel(level int) int {
	if cv.LevelMod > 1 && level > cv.MinLevel {
		level -= (level - cv.MinLevel) % cv.LevelMod
	}
	return level
}

// adjustCellLevels moves sorted cells up to levels allowed by LevelMod and
// drops the ones that become redundant.
func (cv *covering) adjustCellLevels(cells []CellID) []CellID {
	if cv.LevelMod == 1 {
		return cells
	}
	out := cells[:0]
	for _, id := range cells {
		level := id.level()
		if nl := cv.adjustLevel(level); nl != level {
			id = id.parent(nl)
		}
		if len(out) > 0 && out[len(out)-1].contains(id) {
			continue
		}
		for len(out) > 0 && id.contains(out[len(out)-1]) {
			out = out[:len(out)-1]
		}
		out = append(out, id)
	}
	return out
}

func (cv *covering) initialCandidates() {
	// start from a covering of the bounding cap with at most 4 cells
	seed := &Coverer{opts: CoverOptions{
		MaxCells: min(4, cv.MaxCells),
		MinLevel: 0,
		MaxLevel: cv.MaxLevel,
		LevelMod: 1,
	}}
	cells := cv.adjustCellLevels(seed.FastCovering(cv.region))
	for _, id := range cells {
		cv.addCandidate(cv.newCandidate(cellFromCellID(id)))
	}
}

// normalizeCovering brings cells within the level limits, normalizes them
// and then merges cells until MaxCells is met or MinLevel forbids going
// any coarser.
func (cv *covering) normalizeCovering(cells []CellID) CellUnion {
	if cv.MaxLevel < MaxLevel || cv.LevelMod > 1 {
		for i, id := range cells {
			level := id.level()
			if nl := cv.adjustLevel(min(level, cv.MaxLevel)); nl != level {
				cells[i] = id.parent(nl)
			}
		}
	}
	cu := normalize(cells)
	if cv.MinLevel > 0 || cv.LevelMod > 1 {
		cu = cu.denormalize(cv.MinLevel, cv.LevelMod)
	}
	// merging would leave the region for an interior covering
	if cv.interior {
		return cu
	}

	for len(cu) > cv.MaxCells {
		// the adjacent pair with the deepest common ancestor is the
		// cheapest to merge
		bestIndex, bestLevel := -1, -1
		for i := 0; i+1 < len(cu); i++ {
			level, ok := cu[i].CommonAncestorLevel(cu[i+1])
			if !ok {
				continue
			}
			if level = cv.adjustLevel(level); level > bestLevel {
				bestLevel = level
				bestIndex = i
			}
		}
		if bestLevel < cv.MinLevel {
			break
		}

		id := cu[bestIndex].parent(bestLevel)
		cu = replaceCellsWithAncestor(cu, id)

		// collapse further while complete child sets are present
		for bestLevel > cv.MinLevel {
			bestLevel -= cv.LevelMod
			id = id.parent(bestLevel)
			if !cv.containsAllChildren(cu, id) {
				break
			}
			cu = replaceCellsWithAncestor(cu, id)
		}
	}
	return cu
}

// containsAllChildren reports whether every descendant of id LevelMod
// levels down is present in the sorted cells.
func (cv *covering) containsAllChildren(cells CellUnion, id CellID) bool {
	lo := id.rangeMin()
	pos := sort.Search(len(cells), func(i int) bool { return cells[i] >= lo })
	level := id.level() + cv.LevelMod
	end := id.childEndAtLevel(level)
	for child := id.childBeginAtLevel(level); child != end; child = child.Next() {
		if pos == len(cells) || cells[pos] != child {
			return false
		}
		pos++
	}
	return true
}

// replaceCellsWithAncestor replaces the sorted cells contained in id by id.
func replaceCellsWithAncestor(cells CellUnion, id CellID) CellUnion {
	lo, hi := id.rangeMin(), id.rangeMax()
	begin := sort.Search(len(cells), func(i int) bool { return cells[i] >= lo })
	end := sort.Search(len(cells), func(i int) bool { return cells[i] > hi })
	out := make(CellUnion, 0, len(cells)-(end-begin)+1)
	out = append(out, cells[:begin]...)
	out = append(out, id)
	return append(out, cells[end:]...)
}
