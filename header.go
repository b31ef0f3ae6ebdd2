package s2cell

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

const (
	// EncodingVersion writes the ids uncompressed.
	EncodingVersion = 1
	// EncodingVersionCompressed writes the ids through a Compression.
	EncodingVersionCompressed = 2

	headerSizeV1  = 9
	headerSizeV2  = 18
	maxHeaderSize = headerSizeV2

	// maxEncodedCells bounds the count read from untrusted input.
	maxEncodedCells  = 1 << 26
	maxPayloadLength = 8*maxEncodedCells + 1<<16
)

// UnionHeader is the fixed-size prefix of an encoded cell union.
//
// Version 1 is the version byte followed by the little-endian uint64 cell
// count; the ids follow as little-endian uint64s. Version 2 adds a
// compression byte after the version and the byte length of the compressed
// ids after the count.
type UnionHeader struct {
	Version       uint8       `json:"version"`
	Compression   Compression `json:"compression"`
	Count         uint64      `json:"count"`
	PayloadLength uint64      `json:"payload_length"`
}

// Size returns the encoded size of the header.
func (h UnionHeader) Size() uint64 {
	if h.Version == EncodingVersionCompressed {
		return headerSizeV2
	}
	return headerSizeV1
}

func (h UnionHeader) String() string {
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return `{"error": "failed to marshal UnionHeader"}`
	}
	return string(b)
}

// ReadFrom reads the header at the start of the blob behind r.
func (h *UnionHeader) ReadFrom(ctx context.Context, r RangeReader) error {
	b, err := r.ReadRange(ctx, NewRange(0, maxHeaderSize))
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if err := h.deserialize(b); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	return nil
}

func (h *UnionHeader) serialize() []byte {
	d := make([]byte, h.Size())
	d[0] = h.Version
	if h.Version == EncodingVersionCompressed {
		d[1] = byte(h.Compression)
		binary.LittleEndian.PutUint64(d[2:10], h.Count)
		binary.LittleEndian.PutUint64(d[10:18], h.PayloadLength)
		return d
	}
	binary.LittleEndian.PutUint64(d[1:9], h.Count)
	return d
}

// deserialize reads a header from the start of d. d may hold more bytes
// than the header needs.
func (h *UnionHeader) deserialize(d []byte) error {
	if len(d) == 0 {
		return io.ErrUnexpectedEOF
	}
	var out UnionHeader
	switch d[0] {
	case EncodingVersion:
		if len(d) < headerSizeV1 {
			return io.ErrUnexpectedEOF
		}
		out.Version = EncodingVersion
		out.Compression = CompressionNone
		out.Count = binary.LittleEndian.Uint64(d[1:9])
		out.PayloadLength = 8 * out.Count
	case EncodingVersionCompressed:
		if len(d) < headerSizeV2 {
			return io.ErrUnexpectedEOF
		}
		out.Version = EncodingVersionCompressed
		out.Compression = Compression(d[1])
		out.Count = binary.LittleEndian.Uint64(d[2:10])
		out.PayloadLength = binary.LittleEndian.Uint64(d[10:18])
	default:
		return fmt.Errorf("version %d: %w", d[0], ErrUnsupportedEncoding)
	}
	if out.Count > maxEncodedCells {
		return fmt.Errorf("cell count %d exceeds %d: %w", out.Count, maxEncodedCells, ErrUnsupportedEncoding)
	}
	if out.PayloadLength > maxPayloadLength {
		return fmt.Errorf("payload of %d bytes exceeds %d: %w", out.PayloadLength, maxPayloadLength, ErrUnsupportedEncoding)
	}
	if out.Version == EncodingVersion || out.Compression == CompressionNone {
		if out.PayloadLength != 8*out.Count {
			return fmt.Errorf("payload of %d bytes for %d cells: %w", out.PayloadLength, out.Count, ErrUnsupportedEncoding)
		}
	}
	*h = out
	return nil
}

// readHeader reads and decodes a header from r.
func readHeader(r io.Reader) (UnionHeader, error) {
	var h UnionHeader
	d := make([]byte, maxHeaderSize)
	if _, err := io.ReadFull(r, d[:1]); err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	var size int
	switch d[0] {
	case EncodingVersion:
		size = headerSizeV1
	case EncodingVersionCompressed:
		size = headerSizeV2
	default:
		return h, fmt.Errorf("reading header: version %d: %w", d[0], ErrUnsupportedEncoding)
	}
	if _, err := io.ReadFull(r, d[1:size]); err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	if err := h.deserialize(d[:size]); err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	return h, nil
}
