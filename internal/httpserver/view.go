package httpserver

import (
	"fmt"
	"time"

	"github.com/robalobadob/digits/apps/go-server/internal/game"
	"github.com/robalobadob/digits/apps/go-server/internal/store"
)

// guessView is one evaluated guess as the client sees it. Display policy
// lives here: correctDigit is dropped in position-only mode and marks are
// dropped in hard difficulty.
type guessView struct {
	Attempt         int         `json:"attempt"`
	Guess           string      `json:"guess"`
	CorrectPosition int         `json:"correctPosition"`
	CorrectDigit    *int        `json:"correctDigit,omitempty"`
	Marks           []game.Mark `json:"marks,omitempty"`
	Hint            string      `json:"hint"`
	At              time.Time   `json:"at"`
}

// snapshot is the full state of one game.
type snapshot struct {
	GameID    string        `json:"gameId"`
	Mode      string        `json:"mode"`
	Date      string        `json:"date,omitempty"`
	Config    game.Config   `json:"config"`
	Status    game.Status   `json:"status"`
	Attempts  int           `json:"attempts"`
	BestExact int           `json:"bestExact"`
	ElapsedMs int64         `json:"elapsedMs"`
	StartedAt *time.Time    `json:"startedAt,omitempty"` // unset while idle
	History   []guessView   `json:"history"`
	Answer    string        `json:"answer,omitempty"` // revealed only once won
	Summary   *game.Summary `json:"summary,omitempty"`
}

// guessRes is returned by POST /game/guess and /daily/guess.
type guessRes struct {
	guessView
	Status    game.Status   `json:"status"`
	Attempts  int           `json:"attempts"`
	BestExact int           `json:"bestExact"`
	ElapsedMs int64         `json:"elapsedMs"`
	Answer    string        `json:"answer,omitempty"`
	Summary   *game.Summary `json:"summary,omitempty"`
}

func viewEntry(cfg game.Config, h game.HistoryEntry) guessView {
	v := guessView{
		Attempt:         h.Attempt,
		Guess:           h.Guess.String(),
		CorrectPosition: h.Result.CorrectPosition,
		Hint:            hintText(cfg, h.Result),
		At:              h.At,
	}
	if cfg.ShowsDigitCount() {
		n := h.Result.CorrectDigit
		v.CorrectDigit = &n
	}
	if cfg.ShowsMarks() {
		v.Marks = h.Result.Marks
	}
	return v
}

// hintText is the one-line hint shown beside a guess.
func hintText(cfg game.Config, res game.HintResult) string {
	if !cfg.ShowsDigitCount() {
		return fmt.Sprintf("right digit, right place: %d", res.CorrectPosition)
	}
	return fmt.Sprintf("right digit, right place: %d; right digit only: %d", res.CorrectPosition, res.CorrectDigit)
}

func viewSnapshot(e *store.Entry) snapshot {
	sess := e.Session
	cfg := sess.Config()
	hist := sess.History()
	snap := snapshot{
		GameID:    e.ID,
		Mode:      e.Mode,
		Date:      e.Date,
		Config:    cfg,
		Status:    sess.Status(),
		Attempts:  sess.AttemptCount(),
		BestExact: sess.BestExact(),
		ElapsedMs: sess.Elapsed().Milliseconds(),
		History:   make([]guessView, 0, len(hist)),
	}
	if at := sess.StartedAt(); !at.IsZero() {
		snap.StartedAt = &at
	}
	for _, h := range hist {
		snap.History = append(snap.History, viewEntry(cfg, h))
	}
	if sess.Status() == game.StatusWon {
		snap.Answer = sess.Secret().String()
		sum := sess.Summary()
		snap.Summary = &sum
	}
	return snap
}

func viewGuess(e *store.Entry) guessRes {
	sess := e.Session
	hist := sess.History()
	res := guessRes{
		guessView: viewEntry(sess.Config(), hist[len(hist)-1]),
		Status:    sess.Status(),
		Attempts:  sess.AttemptCount(),
		BestExact: sess.BestExact(),
		ElapsedMs: sess.Elapsed().Milliseconds(),
	}
	if sess.Status() == game.StatusWon {
		res.Answer = sess.Secret().String()
		sum := sess.Summary()
		res.Summary = &sum
	}
	return res
}
