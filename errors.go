package s2cell

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry is returned for degenerate input such as a zero,
	// NaN or infinite vector, or a face outside [0,6).
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidCellID is returned when an operation receives a malformed
	// cell id, or a level or child index that is out of range.
	ErrInvalidCellID = errors.New("invalid cell id")
	// ErrInvalidToken is returned when a token does not round-trip to a valid
	// cell id. It wraps ErrInvalidCellID.
	ErrInvalidToken = fmt.Errorf("%w: bad token", ErrInvalidCellID)
	// ErrInvalidOptions is returned for covering options that violate their
	// documented bounds.
	ErrInvalidOptions = errors.New("invalid covering options")
	// ErrUnsupportedEncoding is returned for an encoded cell union with an
	// unknown version or compression, or a header describing more data than
	// a union may hold.
	ErrUnsupportedEncoding = errors.New("unsupported cell union encoding")
	// ErrInvalidLocation is returned for a union location that names no
	// file or object, or uses a scheme other than file or s3.
	ErrInvalidLocation = errors.New("invalid union location")
)

func invalidCellID(op string, ci CellID) error {
	return fmt.Errorf("%s: %w: 0x%016x", op, ErrInvalidCellID, uint64(ci))
}
