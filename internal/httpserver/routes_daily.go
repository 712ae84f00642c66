// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge.
//   - POST /daily/new         → start today's round (creates or reuses the game)
//   - POST /daily/guess       → submit a guess for today's round
//   - GET  /daily/leaderboard → fastest wins for today (or ?date=YYYY-MM-DD)
//
// Everyone gets the same secret for a date; it is seeded from date + salt.
// A player can win once per day (unique index on results); the live round
// sits in the game store like any other and cannot be restarted.

package httpserver

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/digits/apps/go-server/internal/daily"
	"github.com/robalobadob/digits/apps/go-server/internal/game"
	"github.com/robalobadob/digits/apps/go-server/internal/scores"
	"github.com/robalobadob/digits/apps/go-server/internal/store"
)

// dailyServer tracks which game holds each player's round for a date.
type dailyServer struct {
	srv   *Server
	salt  string
	games map[string]string // owner|date → game ID
	mu    sync.Mutex        // guards games
}

func (s *Server) mountDaily(r chi.Router) {
	salt := s.cfg.DailySalt
	if salt == "" {
		salt = "local_dev_salt"
	}
	dd := &dailyServer{srv: s, salt: salt, games: make(map[string]string)}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string      `json:"gameId,omitempty"`
	Date   string      `json:"date"`
	Played bool        `json:"played"`
	Config game.Config `json:"config"`
	Game   *snapshot   `json:"game,omitempty"`
}

// handleNew returns the player's round for today, creating it on first call.
// A player who already won today gets played=true and no game.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	me := playerFrom(r.Context())
	now := d.srv.now()
	date := daily.DateKey(now)
	cfg := daily.Config()

	if d.srv.board != nil {
		played, err := d.srv.board.AlreadyPlayed(r.Context(), me.ID, date)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("daily played check")
			writeError(w, http.StatusInternalServerError, "db_error", "")
			return
		}
		if played {
			writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Played: true, Config: cfg})
			return
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	key := me.ID + "|" + date
	if id, ok := d.games[key]; ok {
		var snap snapshot
		err := d.srv.store.Update(r.Context(), id, me.ID, func(e *store.Entry) error {
			snap = viewSnapshot(e)
			return nil
		})
		if err == nil {
			writeJSON(w, http.StatusOK, dailyNewRes{GameID: id, Date: date, Config: cfg, Game: &snap})
			return
		}
		// pruned or claimed by an account; start over
		delete(d.games, key)
	}

	opts := append(slices.Clone(d.srv.sessionOpts), game.WithRand(daily.Rand(now, d.salt, cfg)))
	sess := game.NewSession(opts...)
	if err := sess.Start(cfg); err != nil {
		writeGameError(w, r, err)
		return
	}
	e := &store.Entry{
		ID:      uuid.NewString(),
		OwnerID: me.ID,
		Mode:    scores.ModeDaily,
		Date:    date,
		Session: sess,
	}
	if err := d.srv.store.Save(r.Context(), e); err != nil {
		writeGameError(w, r, err)
		return
	}
	d.games[key] = e.ID
	hlog.FromRequest(r).Debug().Str("gameId", e.ID).Str("date", date).Msg("daily round")

	snap := viewSnapshot(e)
	writeJSON(w, http.StatusOK, dailyNewRes{GameID: e.ID, Date: date, Config: cfg, Game: &snap})
}

// claim re-keys today's rounds from a guest to an account, matching store.Claim.
func (d *dailyServer) claim(fromOwner, toOwner string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, id := range d.games {
		owner, date, _ := strings.Cut(key, "|")
		if owner != fromOwner {
			continue
		}
		delete(d.games, key)
		if _, taken := d.games[toOwner+"|"+date]; !taken {
			d.games[toOwner+"|"+date] = id
		}
	}
}

func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	d.srv.applyGuess(w, r, req, scores.ModeDaily)
}

type lbRes struct {
	Date string          `json:"date"`
	Top  []scores.Result `json:"top"`
}

func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !d.srv.boardReady(w) {
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	f := scores.Filter{Mode: scores.ModeDaily, Date: date}
	rows, err := d.srv.board.Leaderboard(r.Context(), f, min(queryInt(r, "limit", 20), 100))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
