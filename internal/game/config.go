package game

import "fmt"

// Length bounds shared by every front end.
const (
	MinLength   = 2
	MaxLength   = 10
	alphabetLen = 10
)

// HintMode controls how much the player is told after each guess.
type HintMode string

const (
	// HintPositionOnly reports only digits right in value and position.
	HintPositionOnly HintMode = "position-only"
	// HintPositionAndDigit additionally reports digits right in value only.
	HintPositionAndDigit HintMode = "position-and-digit"
)

// Difficulty decides whether per-position marks are shown to the player.
// Easy shows which positions scored; hard shows the counts alone.
type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyHard Difficulty = "hard"
)

// Config describes one round. It is fixed once the round starts.
type Config struct {
	Length          int        `json:"length"`
	AllowDuplicates bool       `json:"allowDuplicates"`
	HintMode        HintMode   `json:"hintMode"`
	Difficulty      Difficulty `json:"difficulty"`
}

// DefaultConfig is a four digit round without repeats and position-only hints.
func DefaultConfig() Config {
	return Config{
		Length:     4,
		HintMode:   HintPositionOnly,
		Difficulty: DifficultyEasy,
	}
}

// WithDefaults fills zero fields from DefaultConfig. AllowDuplicates is left
// as given since false is already the default.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Length == 0 {
		c.Length = d.Length
	}
	if c.HintMode == "" {
		c.HintMode = d.HintMode
	}
	if c.Difficulty == "" {
		c.Difficulty = d.Difficulty
	}
	return c
}

// Validate is the single rule set for round configuration.
func (c Config) Validate() error {
	if c.Length < MinLength || c.Length > MaxLength {
		return fmt.Errorf("%w: length %d outside %d..%d", ErrInvalidConfiguration, c.Length, MinLength, MaxLength)
	}
	if !c.AllowDuplicates && c.Length > alphabetLen {
		return fmt.Errorf("%w: length %d needs repeated digits", ErrInvalidConfiguration, c.Length)
	}
	switch c.HintMode {
	case HintPositionOnly, HintPositionAndDigit:
	default:
		return fmt.Errorf("%w: unknown hint mode %q", ErrInvalidConfiguration, c.HintMode)
	}
	switch c.Difficulty {
	case DifficultyEasy, DifficultyHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfiguration, c.Difficulty)
	}
	return nil
}

// ShowsDigitCount reports whether the correct-digit count is surfaced.
func (c Config) ShowsDigitCount() bool { return c.HintMode == HintPositionAndDigit }

// ShowsMarks reports whether per-position marks are surfaced.
func (c Config) ShowsMarks() bool { return c.Difficulty != DifficultyHard }
