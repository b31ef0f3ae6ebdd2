package s2cell

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode writes cu in the uncompressed version 1 format.
func (cu CellUnion) Encode(w io.Writer) error {
	h := UnionHeader{Version: EncodingVersion, Count: uint64(len(cu))}
	buf := append(h.serialize(), cu.appendIDs(make([]byte, 0, 8*len(cu)))...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("encoding cell union: %w", err)
	}
	return nil
}

// EncodeCompressed writes cu in the version 2 format with the ids passed
// through c.
func (cu CellUnion) EncodeCompressed(w io.Writer, c Compression) error {
	var payload bytes.Buffer
	zw, err := compressor(&payload, c)
	if err != nil {
		return fmt.Errorf("encoding cell union: %w", err)
	}
	if _, err := zw.Write(cu.appendIDs(make([]byte, 0, 8*len(cu)))); err != nil {
		return fmt.Errorf("compressing cell ids: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing cell ids: %w", err)
	}

	h := UnionHeader{
		Version:       EncodingVersionCompressed,
		Compression:   c,
		Count:         uint64(len(cu)),
		PayloadLength: uint64(payload.Len()),
	}
	if _, err := w.Write(h.serialize()); err != nil {
		return fmt.Errorf("encoding cell union: %w", err)
	}
	if _, err := payload.WriteTo(w); err != nil {
		return fmt.Errorf("encoding cell union: %w", err)
	}
	return nil
}

func (cu CellUnion) appendIDs(b []byte) []byte {
	for _, id := range cu {
		b = binary.LittleEndian.AppendUint64(b, uint64(id))
	}
	return b
}

// DecodeCellUnion reads a union written by Encode or EncodeCompressed. It
// fails on an unknown version, a truncated payload or an invalid id.
func DecodeCellUnion(r io.Reader) (CellUnion, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	// the buffer grows with what r delivers, not with what the header claims
	payload, err := io.ReadAll(io.LimitReader(r, int64(h.PayloadLength))) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading %d cell ids: %w", h.Count, err)
	}
	if uint64(len(payload)) < h.PayloadLength {
		return nil, fmt.Errorf("reading %d cell ids: %w", h.Count, io.ErrUnexpectedEOF)
	}
	return decodePayload(h, payload, Decompress)
}

// ReadCellUnion reads an encoded union through r, first the header range
// and then the range holding the ids.
func ReadCellUnion(ctx context.Context, r RangeReader) (CellUnion, error) {
	_, cu, err := readCellUnion(ctx, r, Decompress)
	return cu, err
}

func readCellUnion(ctx context.Context, r RangeReader, decompress DecompressFunc) (UnionHeader, CellUnion, error) {
	var h UnionHeader
	if err := h.ReadFrom(ctx, r); err != nil {
		return h, nil, err
	}
	if h.PayloadLength == 0 {
		if h.Count != 0 {
			return h, nil, fmt.Errorf("empty payload for %d cells: %w", h.Count, io.ErrUnexpectedEOF)
		}
		return h, CellUnion{}, nil
	}
	payload, err := r.ReadRange(ctx, NewRange(h.Size(), h.PayloadLength))
	if err != nil {
		return h, nil, fmt.Errorf("reading %d cell ids: %w", h.Count, err)
	}
	if uint64(len(payload)) < h.PayloadLength {
		return h, nil, fmt.Errorf("reading %d cell ids: %w", h.Count, io.ErrUnexpectedEOF)
	}
	cu, err := decodePayload(h, payload, decompress)
	return h, cu, err
}

func decodePayload(h UnionHeader, payload []byte, decompress DecompressFunc) (CellUnion, error) {
	d := payload
	if h.Compression != CompressionNone {
		rc, err := decompress(io.NopCloser(bytes.NewReader(payload)), h.Compression)
		if err != nil {
			return nil, fmt.Errorf("decompressing cell ids: %w", err)
		}
		// one byte more than expected exposes trailing garbage
		d, err = io.ReadAll(io.LimitReader(rc, int64(8*h.Count)+1)) //nolint:gosec
		cerr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decompressing cell ids: %w", err)
		}
		if cerr != nil {
			return nil, fmt.Errorf("closing decompression reader: %w", cerr)
		}
	}
	if uint64(len(d)) != 8*h.Count {
		return nil, fmt.Errorf("%d bytes of ids for %d cells: %w", len(d), h.Count, io.ErrUnexpectedEOF)
	}

	cu := make(CellUnion, 0, h.Count)
	for off := 0; off+8 <= len(d); off += 8 {
		id := CellID(binary.LittleEndian.Uint64(d[off : off+8]))
		if !id.IsValid() {
			return nil, invalidCellID("decode cell union", id)
		}
		cu = append(cu, id)
	}
	return cu, nil
}
