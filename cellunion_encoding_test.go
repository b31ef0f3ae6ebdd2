package s2cell

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bytesRangeReader []byte

func (b bytesRangeReader) ReadRange(_ context.Context, r Ranger) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Offset() >= uint64(len(b)) {
		return []byte{}, nil
	}
	return b[r.Offset():min(r.Offset()+r.Size(), uint64(len(b)))], nil
}

func TestEncodeV1Layout(t *testing.T) {
	t.Parallel()

	a := mustToken(t, "89c25")
	cu := CellUnion{a}
	var buf bytes.Buffer
	require.NoError(t, cu.Encode(&buf))

	want := []byte{EncodingVersion}
	want = binary.LittleEndian.AppendUint64(want, 1)
	want = binary.LittleEndian.AppendUint64(want, uint64(a))
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	require.NoError(t, CellUnion{}.Encode(&buf))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0}, buf.Bytes())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	cu, err := Normalize([]CellID{
		mustToken(t, "89c25"),
		mustToken(t, "89c2c"),
		mustToken(t, "808fb9f81"),
		mustToken(t, "3"),
	})
	require.NoError(t, err)

	encoders := map[string]func(CellUnion, io.Writer) error{
		"v1":     func(cu CellUnion, w io.Writer) error { return cu.Encode(w) },
		"none":   func(cu CellUnion, w io.Writer) error { return cu.EncodeCompressed(w, CompressionNone) },
		"gzip":   func(cu CellUnion, w io.Writer) error { return cu.EncodeCompressed(w, CompressionGZIP) },
		"brotli": func(cu CellUnion, w io.Writer) error { return cu.EncodeCompressed(w, CompressionBrotli) },
		"zstd":   func(cu CellUnion, w io.Writer) error { return cu.EncodeCompressed(w, CompressionZstd) },
	}
	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, in := range []CellUnion{cu, {}} {
				var buf bytes.Buffer
				require.NoError(t, encode(in, &buf))

				got, err := DecodeCellUnion(bytes.NewReader(buf.Bytes()))
				require.NoError(t, err)
				assert.Equal(t, in, got)

				read, err := ReadCellUnion(t.Context(), bytesRangeReader(buf.Bytes()))
				require.NoError(t, err)
				assert.Equal(t, in, read)
			}
		})
	}
}

func TestEncodeCompressedUnsupported(t *testing.T) {
	t.Parallel()

	err := CellUnion{mustToken(t, "89c25")}.EncodeCompressed(io.Discard, CompressionUnknown)
	require.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestDecodeCellUnionErrors(t *testing.T) {
	t.Parallel()

	a := mustToken(t, "89c25")
	var v1 bytes.Buffer
	require.NoError(t, CellUnion{a, a.Next()}.Encode(&v1))
	var gz bytes.Buffer
	require.NoError(t, CellUnion{a, a.Next()}.EncodeCompressed(&gz, CompressionGZIP))

	withCount := func(b []byte, count uint64) []byte {
		out := bytes.Clone(b)
		binary.LittleEndian.PutUint64(out[2:10], count)
		return out
	}
	invalidID := bytes.Clone(v1.Bytes())
	binary.LittleEndian.PutUint64(invalidID[9:17], 0)
	oversized := UnionHeader{
		Version:       EncodingVersionCompressed,
		Compression:   CompressionGZIP,
		Count:         maxEncodedCells,
		PayloadLength: maxPayloadLength,
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty input", data: nil, wantErr: io.EOF},
		{name: "unknown version", data: append([]byte{7}, v1.Bytes()[1:]...), wantErr: ErrUnsupportedEncoding},
		{name: "truncated ids", data: v1.Bytes()[:20], wantErr: io.ErrUnexpectedEOF},
		{name: "invalid id", data: invalidID, wantErr: ErrInvalidCellID},
		{name: "gzip with wrong count", data: withCount(gz.Bytes(), 3), wantErr: io.ErrUnexpectedEOF},
		{name: "gzip with surplus ids", data: withCount(gz.Bytes(), 1), wantErr: io.ErrUnexpectedEOF},
		{name: "truncated gzip payload", data: gz.Bytes()[:gz.Len()-4], wantErr: io.ErrUnexpectedEOF},
		{name: "payload length beyond input", data: append(oversized.serialize(), 1, 2, 3), wantErr: io.ErrUnexpectedEOF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeCellUnion(bytes.NewReader(tc.data))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("DecodeCellUnion() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// Not parallel, so that the allocation count is ours alone.
func TestDecodeCellUnionAllocatesWhatIsRead(t *testing.T) {
	h := UnionHeader{
		Version:       EncodingVersionCompressed,
		Compression:   CompressionGZIP,
		Count:         maxEncodedCells,
		PayloadLength: maxPayloadLength,
	}
	data := append(h.serialize(), make([]byte, 64)...)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := DecodeCellUnion(bytes.NewReader(data))
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestReadCellUnionErrors(t *testing.T) {
	t.Parallel()

	h := UnionHeader{Version: EncodingVersionCompressed, Compression: CompressionGZIP, Count: 2, PayloadLength: 0}
	_, err := ReadCellUnion(t.Context(), bytesRangeReader(h.serialize()))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	a := mustToken(t, "89c25")
	var v1 bytes.Buffer
	require.NoError(t, CellUnion{a, a.Next()}.Encode(&v1))
	_, err = ReadCellUnion(t.Context(), bytesRangeReader(v1.Bytes()[:12]))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
