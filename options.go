package s2cell

import "fmt"

const (
	DefaultMaxCells = 8
	DefaultMinLevel = 0
	DefaultMaxLevel = MaxLevel
	DefaultLevelMod = 1
)

// CoverOptions bound the coverings a Coverer produces.
type CoverOptions struct {
	// MaxCells is the desired upper bound on the number of cells. It may be
	// exceeded when MinLevel or LevelMod leave no coarser choice.
	MaxCells int
	// MinLevel and MaxLevel bound the level of every cell in the result.
	MinLevel int
	MaxLevel int
	// LevelMod restricts levels to MinLevel plus a multiple of LevelMod,
	// which subdivides 4, 16 or 64 ways at a time.
	LevelMod int
}

// CovererOption is a functional option for configuring a Coverer.
type CovererOption = func(o *CoverOptions)

// DefaultCoverOptions returns the options used by NewCoverer without
// arguments.
func DefaultCoverOptions() CoverOptions {
	return CoverOptions{
		MaxCells: DefaultMaxCells,
		MinLevel: DefaultMinLevel,
		MaxLevel: DefaultMaxLevel,
		LevelMod: DefaultLevelMod,
	}
}

// Validate checks o against the documented bounds.
func (o CoverOptions) Validate() error {
	if o.MaxCells < 1 {
		return fmt.Errorf("max cells %d must be at least 1: %w", o.MaxCells, ErrInvalidOptions)
	}
	if o.MinLevel < 0 || o.MinLevel > MaxLevel {
		return fmt.Errorf("min level %d not in [0, %d]: %w", o.MinLevel, MaxLevel, ErrInvalidOptions)
	}
	if o.MaxLevel < 0 || o.MaxLevel > MaxLevel {
		return fmt.Errorf("max level %d not in [0, %d]: %w", o.MaxLevel, MaxLevel, ErrInvalidOptions)
	}
	if o.MinLevel > o.MaxLevel {
		return fmt.Errorf("min level %d cannot be bigger than max level %d: %w", o.MinLevel, o.MaxLevel, ErrInvalidOptions)
	}
	if o.LevelMod < 1 || o.LevelMod > 3 {
		return fmt.Errorf("level mod %d not in [1, 3]: %w", o.LevelMod, ErrInvalidOptions)
	}
	return nil
}

// WithMaxCells sets the desired maximum number of cells.
func WithMaxCells(n int) CovererOption {
	return func(o *CoverOptions) {
		o.MaxCells = n
	}
}

func WithMinLevel(level int) CovererOption {
	return func(o *CoverOptions) {
		o.MinLevel = level
	}
}

func WithMaxLevel(level int) CovererOption {
	return func(o *CoverOptions) {
		o.MaxLevel = level
	}
}

func WithLevelMod(mod int) CovererOption {
	return func(o *CoverOptions) {
		o.LevelMod = mod
	}
}

// WithOptions replaces all options at once.
func WithOptions(opts CoverOptions) CovererOption {
	return func(o *CoverOptions) {
		*o = opts
	}
}
