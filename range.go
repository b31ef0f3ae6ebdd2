package s2cell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	indexOffset = 0
	indexSize   = 1
)

type Sizer interface {
	Size() uint64
}

type Offsetter interface {
	Offset() uint64
}

// Ranger describes a byte range of an encoded cell union.
type Ranger interface {
	Offsetter
	Sizer
	Validate() error
}

type Range [2]uint64

func (r Range) Offset() uint64 {
	return r[indexOffset]
}

func (r Range) Size() uint64 {
	return r[indexSize]
}

func (r Range) Validate() error {
	if r.Size() == 0 {
		return errors.New("invalid range. size must be a positive integer")
	}
	return nil
}

func NewRange(offset, size uint64) Range {
	var r Range
	r[indexOffset] = offset
	r[indexSize] = size
	return r
}

// RangeReader reads byte ranges from a blob. Reads past the end return the
// available bytes without an error.
type RangeReader interface {
	ReadRange(ctx context.Context, ranger Ranger) ([]byte, error)
}

// NewRangeReader opens the blob at uri, which ParseLocation must accept.
// Files are read from disk, s3 objects through the default AWS config.
func NewRangeReader(ctx context.Context, uri string) (RangeReader, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	if loc.Scheme != S3Scheme {
		return NewFileRangeReader(loc.Path)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewS3RangeReader(loc.Bucket, loc.Key, s3.NewFromConfig(cfg))
}

func NewFileRangeReader(path string) (*FileRangeReader, error) {
	filePath := filepath.Clean(path)
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file at path %s: %w", path, err)
	}

	return &FileRangeReader{file: f}, nil
}

type FileRangeReader struct {
	file io.ReaderAt
}

func (f *FileRangeReader) ReadRange(_ context.Context, ranger Ranger) ([]byte, error) {
	if err := ranger.Validate(); err != nil {
		return []byte{}, fmt.Errorf("invalid ranger: %w", err)
	}

	buf := make([]byte, ranger.Size())
	n, err := f.file.ReadAt(buf, int64(ranger.Offset())) //nolint:gosec
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	return buf[:n], nil
}

// Close closes the underlying file if it can be closed.
func (f *FileRangeReader) Close() error {
	if c, ok := f.file.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// S3GetObjectAPI is the part of the S3 client a S3RangeReader needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func NewS3RangeReader(bucket, key string, client S3GetObjectAPI) (*S3RangeReader, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket must not be empty")
	}
	if key == "" {
		return nil, errors.New("s3 object key must not be empty")
	}
	if client == nil {
		return nil, errors.New("s3 client must not be nil")
	}
	return &S3RangeReader{bucket: bucket, key: key, client: client}, nil
}

type S3RangeReader struct {
	bucket string
	key    string
	client S3GetObjectAPI
}

func (s *S3RangeReader) ReadRange(ctx context.Context, ranger Ranger) ([]byte, error) {
	if err := ranger.Validate(); err != nil {
		return []byte{}, fmt.Errorf("invalid ranger: %w", err)
	}

	start := ranger.Offset()
	end := start + ranger.Size() - 1
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		return nil, fmt.Errorf("getting s3://%s/%s %d-%d: %w", s.bucket, s.key, start, end, err)
	}
	defer out.Body.Close() //nolint:errcheck

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return b, nil
}
