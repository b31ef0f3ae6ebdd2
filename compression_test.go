package s2cell

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"testing"
)

func TestDecompress(t *testing.T) {
	tests := []struct {
		name        string
		compression Compression
		input       string
		expectError bool
	}{
		{
			name:        "No compression",
			compression: CompressionNone,
			input:       "test-data",
			expectError: false,
		},
		{
			name:        "GZIP compression",
			compression: CompressionGZIP,
			input:       "test-data",
			expectError: false,
		},
		{
			name:        "Unknown compression",
			compression: CompressionUnknown,
			input:       "test-data",
			expectError: true,
		},
		{
			name:        "Out of range compression",
			compression: Compression(42),
			input:       "test-data",
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			var r io.Reader

			if tc.compression == CompressionGZIP {
				gw := gzip.NewWriter(&buf)
				_, _ = gw.Write([]byte(tc.input))
				_ = gw.Close()
				r = &buf
			} else {
				r = bytes.NewReader([]byte(tc.input))
			}

			dr, err := Decompress(io.NopCloser(r), tc.compression)
			if tc.expectError {
				if !errors.Is(err, ErrUnsupportedEncoding) {
					t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			out, err := io.ReadAll(dr)
			if err != nil {
				t.Fatalf("reading decompressed data: %v", err)
			}
			if err := dr.Close(); err != nil {
				t.Fatalf("closing decompressed reader: %v", err)
			}

			if string(out) != tc.input {
				t.Errorf("got %q, want %q", string(out), tc.input)
			}
		})
	}
}

func TestDecompressCorruptGZIP(t *testing.T) {
	_, err := Decompress(io.NopCloser(bytes.NewReader([]byte("not gzip"))), CompressionGZIP)
	if err == nil {
		t.Fatal("expected an error for a corrupt gzip stream")
	}
}

func TestCompressorRoundTrip(t *testing.T) {
	t.Parallel()

	for _, c := range []Compression{CompressionNone, CompressionGZIP, CompressionBrotli, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w, err := compressor(&buf, c)
			if err != nil {
				t.Fatalf("compressor(%v): %v", c, err)
			}
			if _, err := w.Write([]byte("payload")); err != nil {
				t.Fatalf("writing: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("closing: %v", err)
			}

			r, err := Decompress(io.NopCloser(&buf), c)
			if err != nil {
				t.Fatalf("Decompress(%v): %v", c, err)
			}
			out, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			if string(out) != "payload" {
				t.Errorf("got %q, want %q", out, "payload")
			}
			if err := r.Close(); err != nil {
				t.Errorf("closing: %v", err)
			}
		})
	}

	if _, err := compressor(io.Discard, CompressionUnknown); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("compressor(unknown) = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestCompressionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    Compression
		want string
	}{
		{CompressionUnknown, "unknown"},
		{CompressionNone, "none"},
		{CompressionGZIP, "gzip"},
		{CompressionBrotli, "brotli"},
		{CompressionZstd, "zstd"},
		{Compression(42), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.c.String(); got != tc.want {
			t.Errorf("Compression(%d).String() = %q, want %q", tc.c, got, tc.want)
		}
	}
}
