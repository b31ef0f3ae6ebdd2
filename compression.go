package s2cell

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the codec applied to the ids of an encoded cell
// union. The zero value is CompressionUnknown.
type Compression uint8

const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGZIP
	CompressionBrotli
	CompressionZstd
)

var compressionNames = map[Compression]string{
	CompressionUnknown: "unknown",
	CompressionNone:    "none",
	CompressionGZIP:    "gzip",
	CompressionBrotli:  "brotli",
	CompressionZstd:    "zstd",
}

func (c Compression) String() string {
	if s, ok := compressionNames[c]; ok {
		return s
	}
	return compressionNames[CompressionUnknown]
}

// MarshalJSON renders c by name, e.g. "gzip".
func (c Compression) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// DecompressFunc wraps r with the decompressor for c. Closing the result
// closes r.
type DecompressFunc = func(r io.ReadCloser, c Compression) (io.ReadCloser, error)

// gzPool recycles gzip readers across payloads.
var gzPool = sync.Pool{New: func() any { return new(gzip.Reader) }}

type readCloser struct {
	io.Reader
	io.Closer
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// newGZIPReadCloser returns a pooled gzip reader over rc. Closing it returns
// the reader to the pool and closes rc.
func newGZIPReadCloser(rc io.ReadCloser) (io.ReadCloser, error) {
	zr, _ := gzPool.Get().(*gzip.Reader) //nolint:errcheck
	if err := zr.Reset(rc); err != nil {
		gzPool.Put(zr)
		_ = rc.Close() //nolint:errcheck
		return nil, err
	}
	return readCloser{
		Reader: zr,
		Closer: closeFunc(func() error {
			cerr := zr.Close()
			gzPool.Put(zr)
			return errors.Join(cerr, rc.Close())
		}),
	}, nil
}

// Decompress is the default DecompressFunc. It handles every Compression
// except CompressionUnknown.
func Decompress(r io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return r, nil
	case CompressionGZIP:
		gr, err := newGZIPReadCloser(r)
		if err != nil {
			return nil, fmt.Errorf("gzip.NewReader: %w", err)
		}
		return gr, nil
	case CompressionBrotli:
		return readCloser{Reader: brotli.NewReader(r), Closer: r}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd.NewReader: %w", err)
		}
		return readCloser{
			Reader: zr,
			Closer: closeFunc(func() error {
				zr.Close()
				return r.Close()
			}),
		}, nil
	default:
		return nil, fmt.Errorf("compression %v: %w", c, ErrUnsupportedEncoding)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressor wraps w with the encoder for c. Closing the result flushes the
// encoder but leaves w open.
func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGZIP:
		return gzip.NewWriter(w), nil
	case CompressionBrotli:
		return brotli.NewWriter(w), nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithZeroFrames(true))
		if err != nil {
			return nil, fmt.Errorf("zstd.NewWriter: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("compression %v: %w", c, ErrUnsupportedEncoding)
	}
}
