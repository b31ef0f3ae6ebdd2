package s2cell

import (
	"slices"
	"strconv"
	"sync"

	"github.com/brunomvsouza/singleflight"
	"github.com/dgraph-io/ristretto/v2"
)

const (
	DefaultRistrettoNumCounters = 10 * 500 * 1024
	// DefaultRistrettoMaxCost is counted in cells.
	DefaultRistrettoMaxCost     = 1 << 20
	DefaultRistrettoBufferItems = 64
)

// keyBufPool provides pre-allocated buffers for building cache keys.
var keyBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 96) // enough for a cap key with options
		return &buf
	},
}

// Cacher stores coverings by key.
type Cacher interface {
	Get(key string) (CellUnion, bool)
	Set(key string, value CellUnion) bool
	Close()
	Clear()
}

type RistrettoCache struct {
	cache *ristretto.Cache[string, CellUnion]
}

type RistrettoCacheOption = func(rc *ristretto.Config[string, CellUnion])

// WithMaxCost sets the total number of cells the cache may hold.
func WithMaxCost(cells int64) RistrettoCacheOption {
	return func(rc *ristretto.Config[string, CellUnion]) {
		rc.MaxCost = cells
	}
}

func NewRistrettoCache(opts ...RistrettoCacheOption) (*RistrettoCache, error) {
	cfg := &ristretto.Config[string, CellUnion]{
		NumCounters: DefaultRistrettoNumCounters,
		MaxCost:     DefaultRistrettoMaxCost,
		BufferItems: DefaultRistrettoBufferItems,
	}

	for _, o := range opts {
		o(cfg)
	}

	cache, err := ristretto.NewCache(cfg)
	if err != nil {
		return &RistrettoCache{}, err
	}

	return &RistrettoCache{
		cache: cache,
	}, nil
}

func (rc *RistrettoCache) Get(key string) (CellUnion, bool) {
	return rc.cache.Get(key)
}

// Set stores value at a cost of its length, and waits for the write to be
// applied so that an immediate Get sees it.
func (rc *RistrettoCache) Set(key string, value CellUnion) bool {
	ok := rc.cache.Set(key, value, int64(max(1, len(value))))
	rc.cache.Wait()

	return ok
}

func (rc *RistrettoCache) Close() {
	rc.cache.Close()
}

func (rc *RistrettoCache) Clear() {
	rc.cache.Clear()
}

// CachedCoverer memoizes coverings of regions implementing Keyer.
// Concurrent requests for the same covering are computed once.
type CachedCoverer struct {
	cache Cacher
	group singleflight.Group[string, CellUnion]
}

// NewCachedCoverer returns a CachedCoverer backed by cache.
func NewCachedCoverer(cache Cacher) *CachedCoverer {
	return &CachedCoverer{cache: cache}
}

// Covering returns the covering of region under opts. The second result
// reports whether it was served from the cache. The returned union is the
// caller's own copy.
func (cc *CachedCoverer) Covering(opts CoverOptions, region Region) (CellUnion, bool, error) {
	return cc.covering(opts, region, false)
}

// InteriorCovering is Covering for interior coverings.
func (cc *CachedCoverer) InteriorCovering(opts CoverOptions, region Region) (CellUnion, bool, error) {
	return cc.covering(opts, region, true)
}

func (cc *CachedCoverer) covering(opts CoverOptions, region Region, interior bool) (CellUnion, bool, error) {
	c, err := NewCoverer(WithOptions(opts))
	if err != nil {
		return nil, false, err
	}
	compute := c.Covering
	if interior {
		compute = c.InteriorCovering
	}

	k, ok := region.(Keyer)
	if !ok {
		return compute(region), false, nil
	}
	key := buildCoveringKey(k.CacheKey(), opts, interior)
	if cu, ok := cc.cache.Get(key); ok {
		return slices.Clone(cu), true, nil
	}

	cu, err, _ := cc.group.Do(key, func() (CellUnion, error) {
		cu := compute(region)
		// NOTE: ristretto may drop the write, the next call recomputes
		_ = cc.cache.Set(key, cu)
		return cu, nil
	})
	if err != nil {
		return nil, false, err
	}
	// callers of one flight share cu
	return slices.Clone(cu), false, nil
}

// Close releases the cache.
func (cc *CachedCoverer) Close() {
	cc.cache.Close()
}

// buildRegionKey builds a region key from a kind and its numeric fields
// using the shared buffer pool.
func buildRegionKey(kind string, parts ...uint64) string {
	bufPtr, _ := keyBufPool.Get().(*[]byte) //nolint:errcheck
	buf := (*bufPtr)[:0]                    // Reset length but keep capacity
	defer keyBufPool.Put(bufPtr)

	buf = append(buf, kind...)
	for _, p := range parts {
		buf = append(buf, ':')
		buf = strconv.AppendUint(buf, p, 16)
	}

	return string(buf)
}

func buildCoveringKey(regionKey string, opts CoverOptions, interior bool) string {
	bufPtr, _ := keyBufPool.Get().(*[]byte) //nolint:errcheck
	buf := (*bufPtr)[:0]
	defer keyBufPool.Put(bufPtr)

	if interior {
		buf = append(buf, 'i')
	} else {
		buf = append(buf, 'c')
	}
	for _, n := range [4]int{opts.MaxCells, opts.MinLevel, opts.MaxLevel, opts.LevelMod} {
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(n), 10)
	}
	buf = append(buf, '|')
	buf = append(buf, regionKey...)

	return string(buf)
}
