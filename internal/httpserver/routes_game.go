// internal/httpserver/routes_game.go
//
// Free-play game endpoints:
//   - POST /game/new           → create a game and start its first round
//   - POST /game/guess         → submit a guess
//   - GET  /game/{id}          → snapshot
//   - POST /game/{id}/start    → start a round with a new configuration
//   - POST /game/{id}/restart  → new secret, same configuration
//   - POST /game/{id}/reset    → back to idle (configuration screen)
//
// Sessions live in the store; won rounds are written to the score board
// on a best-effort basis (a failed write never fails the guess).

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/digits/apps/go-server/internal/daily"
	"github.com/robalobadob/digits/apps/go-server/internal/game"
	"github.com/robalobadob/digits/apps/go-server/internal/scores"
	"github.com/robalobadob/digits/apps/go-server/internal/store"
)

var errDailyLocked = errors.New("daily rounds cannot be restarted or reconfigured")

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Post("/guess", s.handleGuess)
		r.Get("/{id}", s.handleGetGame)
		r.Post("/{id}/start", s.handleStart)
		r.Post("/{id}/restart", s.handleRestart)
		r.Post("/{id}/reset", s.handleReset)
	})
}

// newGameReq is the body of POST /game/new and /game/{id}/start.
// Zero fields fall back to game.DefaultConfig.
type newGameReq struct {
	Length          int             `json:"length"`
	AllowDuplicates bool            `json:"allowDuplicates"`
	HintMode        game.HintMode   `json:"hintMode"`
	Difficulty      game.Difficulty `json:"difficulty"`
}

func (q newGameReq) config() game.Config {
	return game.Config{
		Length:          q.Length,
		AllowDuplicates: q.AllowDuplicates,
		HintMode:        q.HintMode,
		Difficulty:      q.Difficulty,
	}.WithDefaults()
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	sess := game.NewSession(s.sessionOpts...)
	if err := sess.Start(req.config()); err != nil {
		writeGameError(w, r, err)
		return
	}
	e := &store.Entry{
		ID:      uuid.NewString(),
		OwnerID: playerFrom(r.Context()).ID,
		Mode:    scores.ModeFree,
		Session: sess,
	}
	if err := s.store.Save(r.Context(), e); err != nil {
		writeGameError(w, r, err)
		return
	}
	hlog.FromRequest(r).Debug().Str("gameId", e.ID).Int("length", sess.Config().Length).Msg("new game")

	// sess is not shared yet, so reading it outside the store lock is fine
	writeJSON(w, http.StatusCreated, viewSnapshot(e))
}

// guessReq is the body of POST /game/guess and /daily/guess.
type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s.applyGuess(w, r, req, "")
}

// applyGuess scores req against the owner's game. wantMode, when set,
// restricts which kind of game the ID may refer to.
func (s *Server) applyGuess(w http.ResponseWriter, r *http.Request, req guessReq, wantMode string) {
	me := playerFrom(r.Context())
	var (
		res    guessRes
		result *scores.Result
	)
	err := s.store.Update(r.Context(), req.GameID, me.ID, func(e *store.Entry) error {
		if wantMode != "" && e.Mode != wantMode {
			return store.ErrNotFound
		}
		sess := e.Session
		if sess.Status() != game.StatusRunning {
			return game.ErrGuessBeforeStart
		}
		g, err := game.ParseGuess(req.Guess, sess.Config().Length)
		if err != nil {
			return err
		}
		if _, err := sess.SubmitGuess(g); err != nil {
			return err
		}
		res = viewGuess(e)
		if sess.Status() == game.StatusWon {
			result = wonResult(e, s.now)
		}
		return nil
	})
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	if result != nil {
		s.record(r.Context(), r, *result)
	}
	writeJSON(w, http.StatusOK, res)
}

func wonResult(e *store.Entry, now func() time.Time) *scores.Result {
	cfg := e.Session.Config()
	date := e.Date
	if date == "" {
		date = daily.DateKey(now())
	}
	return &scores.Result{
		OwnerID:         e.OwnerID,
		Mode:            e.Mode,
		Date:            date,
		Length:          cfg.Length,
		AllowDuplicates: cfg.AllowDuplicates,
		HintMode:        string(cfg.HintMode),
		Attempts:        e.Session.AttemptCount(),
		ElapsedMs:       e.Session.Elapsed().Milliseconds(),
	}
}

// record writes a won round to the score board. Failures are logged only.
func (s *Server) record(ctx context.Context, r *http.Request, res scores.Result) {
	if s.board == nil {
		return
	}
	if _, err := s.board.Record(ctx, res); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("owner", res.OwnerID).Str("mode", res.Mode).Msg("record result")
		return
	}
	hlog.FromRequest(r).Info().Str("owner", res.OwnerID).Int("attempts", res.Attempts).Int64("elapsedMs", res.ElapsedMs).Msg("round won")
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.withGame(w, r, func(*store.Entry) error { return nil })
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s.withGame(w, r, func(e *store.Entry) error {
		if e.Mode == scores.ModeDaily {
			return errDailyLocked
		}
		return e.Session.Start(req.config())
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.withGame(w, r, func(e *store.Entry) error {
		if e.Mode == scores.ModeDaily {
			return errDailyLocked
		}
		return e.Session.Restart()
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withGame(w, r, func(e *store.Entry) error {
		if e.Mode == scores.ModeDaily {
			return errDailyLocked
		}
		e.Session.Reset()
		return nil
	})
}

// withGame runs fn on the {id} game and answers with its snapshot.
func (s *Server) withGame(w http.ResponseWriter, r *http.Request, fn func(*store.Entry) error) {
	me := playerFrom(r.Context())
	var snap snapshot
	err := s.store.Update(r.Context(), chi.URLParam(r, "id"), me.ID, func(e *store.Entry) error {
		if err := fn(e); err != nil {
			return err
		}
		snap = viewSnapshot(e)
		return nil
	})
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
