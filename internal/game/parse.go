package game

import (
	"fmt"
	"strings"
)

// ParseGuess converts raw player input into a Guess of the given length.
// Surrounding whitespace is ignored. Format is checked before length, so "12a"
// is a format error even when the length is also off.
func ParseGuess(text string, length int) (Guess, error) {
	text = strings.TrimSpace(text)
	if text == "" || !isDigits(text) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGuessFormat, text)
	}
	if len(text) != length {
		return nil, fmt.Errorf("%w: got %d digits, want %d", ErrInvalidGuessLength, len(text), length)
	}
	g := make(Guess, len(text))
	for i := 0; i < len(text); i++ {
		g[i] = Digit(text[i] - '0')
	}
	return g, nil
}

// ParseSecret is ParseGuess for fixed answers (tests, tooling).
func ParseSecret(text string) (Secret, error) {
	text = strings.TrimSpace(text)
	g, err := ParseGuess(text, len(text))
	if err != nil {
		return nil, err
	}
	return Secret(g), nil
}

// isDigits checks that a string consists only of ASCII 0–9.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
