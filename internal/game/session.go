// internal/game/session.go
//
// Session is the state machine for one player's rounds.
//
//	idle ──Start──▶ running ──winning guess──▶ won
//	                  ▲  │                      │
//	                  └──┴──────Restart─────────┘
//	running/won ──Reset──▶ idle
//
// A Session is owned by a single caller and is not safe for concurrent use;
// the HTTP layer serialises access through its store.

package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// Session tracks the configuration, secret and history of the current round.
type Session struct {
	cfg        Config
	secret     Secret
	history    []HistoryEntry
	status     Status
	startedAt  time.Time
	finishedAt time.Time

	rng *rand.Rand // nil → package-level source
	now func() time.Time
}

// Option customises a Session.
type Option func(*Session)

// WithRand makes secrets come from r, so rounds can be reproduced.
func WithRand(r *rand.Rand) Option { return func(s *Session) { s.rng = r } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// NewSession returns an idle session.
func NewSession(opts ...Option) *Session {
	s := &Session{status: StatusIdle, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start validates cfg and begins a new round with a fresh secret. Starting
// while a round is running abandons it. On error nothing changes.
func (s *Session) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.begin()
	return nil
}

// Restart begins a new round with the current configuration.
func (s *Session) Restart() error {
	if s.status == StatusIdle {
		return ErrNoRound
	}
	s.begin()
	return nil
}

// Reset abandons any round and returns to idle.
func (s *Session) Reset() {
	s.status = StatusIdle
	s.secret = nil
	s.history = nil
	s.startedAt, s.finishedAt = time.Time{}, time.Time{}
}

func (s *Session) begin() {
	if s.rng != nil {
		s.secret = GenerateFrom(s.rng, s.cfg.Length, s.cfg.AllowDuplicates)
	} else {
		s.secret = Generate(s.cfg.Length, s.cfg.AllowDuplicates)
	}
	s.history = nil
	s.startedAt = s.now()
	s.finishedAt = time.Time{}
	s.status = StatusRunning
}

// SubmitGuess scores g against the secret and appends it to the history.
// A guess that scores every position moves the session to won and freezes
// the clock.
func (s *Session) SubmitGuess(g Guess) (HintResult, error) {
	if s.status != StatusRunning {
		return HintResult{}, fmt.Errorf("%w: status is %s", ErrGuessBeforeStart, s.status)
	}
	if len(g) != s.cfg.Length {
		return HintResult{}, fmt.Errorf("%w: got %d digits, want %d", ErrInvalidGuessLength, len(g), s.cfg.Length)
	}
	for i, d := range g {
		if d > 9 {
			return HintResult{}, fmt.Errorf("%w: position %d holds %d", ErrInvalidGuessFormat, i, d)
		}
	}

	res := Score(g, s.secret, s.cfg.HintMode)
	at := s.now()
	s.history = append(s.history, HistoryEntry{
		Attempt: len(s.history) + 1,
		Guess:   slices.Clone(g),
		Result:  res.clone(),
		At:      at,
	})
	if res.Solved(s.cfg.Length) {
		s.status = StatusWon
		s.finishedAt = at
	}
	return res, nil
}

// Elapsed is the time since the round started, frozen once won. Idle is 0.
func (s *Session) Elapsed() time.Duration {
	switch s.status {
	case StatusRunning:
		return s.now().Sub(s.startedAt)
	case StatusWon:
		return s.finishedAt.Sub(s.startedAt)
	}
	return 0
}

// AttemptCount is the number of guesses in this round.
func (s *Session) AttemptCount() int { return len(s.history) }

// BestExact is the highest CorrectPosition seen this round, 0 if none.
func (s *Session) BestExact() int {
	best := 0
	for _, h := range s.history {
		best = max(best, h.Result.CorrectPosition)
	}
	return best
}

// Status is the current lifecycle state.
func (s *Session) Status() Status { return s.status }

// Config is the configuration of the current or last round.
func (s *Session) Config() Config { return s.cfg }

// StartedAt is when the current round began; zero while idle.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// History returns a copy of the round's entries, oldest first.
func (s *Session) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.history))
	for i, h := range s.history {
		h.Guess = slices.Clone(h.Guess)
		h.Result = h.Result.clone()
		out[i] = h
	}
	return out
}

// Secret returns a copy of the current secret. Callers decide when it may be shown.
func (s *Session) Secret() Secret { return append(Secret(nil), s.secret...) }

// Summary is the end-of-round digest shown on a win.
type Summary struct {
	Attempts  int           `json:"attempts"`
	Elapsed   time.Duration `json:"-"`
	BestExact int           `json:"bestExact"`
	HitRate   int           `json:"hitRate"` // exact hits over all guessed positions, percent
}

// Summary computes the digest for the current round.
func (s *Session) Summary() Summary {
	sum := Summary{
		Attempts:  len(s.history),
		Elapsed:   s.Elapsed(),
		BestExact: s.BestExact(),
	}
	total := len(s.history) * s.cfg.Length
	if total > 0 {
		exact := 0
		for _, h := range s.history {
			exact += h.Result.CorrectPosition
		}
		sum.HitRate = (exact*100 + total/2) / total
	}
	return sum
}
