package s2cell

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

type Scheme uint8

const (
	UnknownScheme Scheme = iota
	FileScheme
	S3Scheme
)

var _ fmt.Stringer = UnknownScheme

var schemeStrings = map[Scheme]string{
	FileScheme:    "file",
	S3Scheme:      "s3",
	UnknownScheme: "unknown",
}

func (s Scheme) String() string {
	return schemeStrings[s]
}

// Location is where an encoded cell union is stored. File locations carry
// Path, s3 locations Bucket and Key.
type Location struct {
	Scheme Scheme
	Path   string
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Scheme == S3Scheme {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ParseLocation parses a plain path, a file:// URI or an s3://bucket/key
// URI. Surrounding whitespace is ignored.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty location: %w", ErrInvalidLocation)
	}

	if !strings.Contains(raw, "://") {
		return Location{Scheme: FileScheme, Path: filepath.Clean(filepath.FromSlash(raw))}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parsing location %q: %w", raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		// file://dir/union.bin puts "dir" in the host
		p := u.Host + u.Path
		if p == "" {
			return Location{}, fmt.Errorf("file location %q has no path: %w", raw, ErrInvalidLocation)
		}
		return Location{Scheme: FileScheme, Path: filepath.Clean(filepath.FromSlash(p))}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		switch {
		case u.Host == "":
			return Location{}, fmt.Errorf("s3 location %q has no bucket: %w", raw, ErrInvalidLocation)
		case key == "" || strings.HasSuffix(key, "/"):
			return Location{}, fmt.Errorf("s3 location %q names no object: %w", raw, ErrInvalidLocation)
		}
		return Location{Scheme: S3Scheme, Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, fmt.Errorf("scheme %q of %q: %w", u.Scheme, raw, ErrInvalidLocation)
	}
}
