package s2cell

import (
	"context"
	"fmt"
	"io"

	"github.com/segmentio/ksuid"
)

// SourceConfig holds customization options for a UnionSource.
type SourceConfig struct {
	// decompress unpacks compressed ids.
	decompress DecompressFunc
	// normalize runs loaded unions through Normalize.
	normalize bool
}

// SourceConfigOption is a functional option for configuring a UnionSource.
type SourceConfigOption = func(config *SourceConfig)

// WithCustomDecompressFunc sets a custom decompression function.
func WithCustomDecompressFunc(decompressFn DecompressFunc) SourceConfigOption {
	return func(config *SourceConfig) {
		config.decompress = decompressFn
	}
}

// WithNormalize normalizes the loaded union, for blobs written by tools
// that do not guarantee normalized output.
func WithNormalize() SourceConfigOption {
	return func(config *SourceConfig) {
		config.normalize = true
	}
}

// UnionSource is an encoded cell union loaded from a file or an object
// store, ready for membership queries. It is immutable after loading and
// safe for concurrent use.
type UnionSource struct {
	etag   string
	header UnionHeader
	union  CellUnion
}

// NewUnionSource reads the union at uri. See NewRangeReader for the
// supported URIs.
func NewUnionSource(ctx context.Context, uri string, options ...SourceConfigOption) (*UnionSource, error) {
	reader, err := NewRangeReader(ctx, uri)
	if err != nil {
		return nil, err
	}
	if c, ok := reader.(io.Closer); ok {
		defer c.Close() //nolint:errcheck
	}
	return LoadUnionSource(ctx, reader, options...)
}

// LoadUnionSource reads a union through reader.
func LoadUnionSource(ctx context.Context, reader RangeReader, options ...SourceConfigOption) (*UnionSource, error) {
	config := &SourceConfig{
		decompress: Decompress,
	}
	for _, o := range options {
		o(config)
	}

	h, cu, err := readCellUnion(ctx, reader, config.decompress)
	if err != nil {
		return nil, fmt.Errorf("loading cell union: %w", err)
	}
	if config.normalize {
		cu = normalize(cu)
	} else if !cu.IsValid() {
		return nil, fmt.Errorf("loading cell union: ids are not sorted and disjoint: %w", ErrInvalidCellID)
	}

	return &UnionSource{
		etag:   ksuid.New().String(),
		header: h,
		union:  cu,
	}, nil
}

// Etag identifies this load of the union. It changes on every load.
func (s *UnionSource) Etag() string {
	return s.etag
}

// Header returns a copy of the header.
func (s *UnionSource) Header() UnionHeader {
	return s.header
}

// Union returns the loaded union. It must not be modified.
func (s *UnionSource) Union() CellUnion {
	return s.union
}

// ContainsLatLng reports whether ll lies in the union.
func (s *UnionSource) ContainsLatLng(ll LatLng) bool {
	return s.union.ContainsPoint(PointFromLatLng(ll))
}

// ContainsCellID reports whether id lies entirely in the union.
func (s *UnionSource) ContainsCellID(id CellID) bool {
	return s.union.ContainsCellID(id)
}
