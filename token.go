package s2cell

import (
	"fmt"
	"strconv"
	"strings"
)

// ToToken returns the compact hex form of ci: 16 lowercase hex digits with
// trailing zeros removed. The zero id renders as "X".
func (ci CellID) ToToken() string {
	if ci == 0 {
		return "X"
	}
	s := strconv.FormatUint(uint64(ci), 16)
	if pad := 16 - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return strings.TrimRight(s, "0")
}

// CellIDFromToken parses a token produced by ToToken. Only canonical tokens
// of valid cells are accepted, so uppercase digits, surplus trailing zeros
// and "X" are all rejected.
func CellIDFromToken(token string) (CellID, error) {
	if token == "" || len(token) > 16 {
		return 0, fmt.Errorf("%q: %w", token, ErrInvalidToken)
	}
	n, err := strconv.ParseUint(token, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", token, ErrInvalidToken)
	}
	// token digits are the high nibbles
	ci := CellID(n << (4 * (16 - len(token))))
	if !ci.IsValid() || ci.ToToken() != token {
		return 0, fmt.Errorf("%q: %w", token, ErrInvalidToken)
	}
	return ci, nil
}

// MarshalText encodes ci as its token.
func (ci CellID) MarshalText() ([]byte, error) {
	return []byte(ci.ToToken()), nil
}

// UnmarshalText decodes a token into ci.
func (ci *CellID) UnmarshalText(text []byte) error {
	id, err := CellIDFromToken(string(text))
	if err != nil {
		return err
	}
	*ci = id
	return nil
}
