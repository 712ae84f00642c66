// internal/game/types.go
//
// Core type definitions for the digit guessing engine.
// Defines:
//   - Digit, Secret, Guess: ordered digit sequences.
//   - Mark: per-position result of a guess (correct position / correct digit / wrong).
//   - HintResult, HistoryEntry: evaluation output and the per-round log.
//   - Status: session lifecycle (idle → running → won).

package game

import (
	"slices"
	"strings"
	"time"
)

// Digit is a single value in 0..9.
type Digit uint8

// Secret is the hidden digit sequence for one round.
type Secret []Digit

// Guess is a candidate sequence submitted by the player.
type Guess []Digit

// String renders the secret as plain digits, e.g. "3145".
func (s Secret) String() string { return digitsString(s) }

// String renders the guess as plain digits.
func (g Guess) String() string { return digitsString(g) }

func digitsString(ds []Digit) string {
	var b strings.Builder
	b.Grow(len(ds))
	for _, d := range ds {
		b.WriteByte('0' + byte(d))
	}
	return b.String()
}

// Mark represents the evaluation result for a single position in a guess.
// Possible values:
//   - "correct-position": digit is right and in the right place.
//   - "correct-digit":    digit is in the secret but elsewhere.
//   - "wrong":            digit is not credited at all.
type Mark string

const (
	MarkCorrectPosition Mark = "correct-position"
	MarkCorrectDigit    Mark = "correct-digit"
	MarkWrong           Mark = "wrong"
)

// HintResult is the outcome of comparing one guess against the secret.
type HintResult struct {
	CorrectPosition int    `json:"correctPosition"`
	CorrectDigit    int    `json:"correctDigit"`
	Marks           []Mark `json:"marks"`
}

// Solved reports whether every position matched.
func (h HintResult) Solved(length int) bool { return h.CorrectPosition == length }

func (h HintResult) clone() HintResult {
	h.Marks = slices.Clone(h.Marks)
	return h
}

// HistoryEntry records one evaluated guess. Entries are appended, never edited.
type HistoryEntry struct {
	Attempt int        `json:"attempt"` // 1-based
	Guess   Guess      `json:"-"`
	Result  HintResult `json:"result"`
	At      time.Time  `json:"at"`
}

// Status is the coarse lifecycle state of a Session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusWon     Status = "won"
)
