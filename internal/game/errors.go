package game

import "errors"

// Errors reported by the engine. All are recoverable; a rejected call leaves
// the session untouched. Callers match them with errors.Is since details are
// wrapped on top.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidGuessFormat   = errors.New("guess must contain digits only")
	ErrInvalidGuessLength   = errors.New("guess has the wrong length")
	ErrGuessBeforeStart     = errors.New("round is not running")
	ErrNoRound              = errors.New("no round to restart")
)
