// internal/httpserver/server.go
//
// HTTP server wiring for the digit guessing backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (guest or account): /game/*, mounted in routes_game.go.
//   - Daily challenge endpoints: /daily/*, mounted in routes_daily.go.
//   - Account + score endpoints: /auth/*, /stats/me, /games/mine, /scores (routes_auth.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every game belongs to a player: the account id when a valid token is
//     present, otherwise an anonymous id kept in a cookie.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/digits/apps/go-server/internal/auth"
	"github.com/robalobadob/digits/apps/go-server/internal/config"
	"github.com/robalobadob/digits/apps/go-server/internal/game"
	"github.com/robalobadob/digits/apps/go-server/internal/scores"
	"github.com/robalobadob/digits/apps/go-server/internal/store"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Config config.Config
	Store  store.Store
	Scores *scores.Store // optional; without it wins are not recorded
	Users  *auth.Users
	Tokens *auth.Tokens

	// SessionOptions are applied to every free-play session (tests pin the
	// random source and clock here).
	SessionOptions []game.Option
	// Now defaults to time.Now; daily rounds use it to pick the date.
	Now func() time.Time
}

// Server bundles router and dependencies.
type Server struct {
	r     *chi.Mux
	cfg   config.Config
	store store.Store
	board *scores.Store
	users *auth.Users
	toks  *auth.Tokens

	sessionOpts []game.Option
	now         func() time.Time
	daily       *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:           chi.NewRouter(),
		cfg:         d.Config,
		store:       d.Store,
		board:       d.Scores,
		users:       d.Users,
		toks:        d.Tokens,
		sessionOpts: d.SessionOptions,
		now:         d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	timeout := d.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(timeout))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "digits-go",
			"endpoints": []string{"/health", "POST /game/new", "POST /game/guess", "/daily/*", "/auth/*", "/scores"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.withPlayer)
		s.mountGame(r)
		s.mountDaily(r)
		r.Get("/scores", s.handleScores)
	})
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Janitor prunes games idle for longer than ttl, every interval, until ctx ends.
func (s *Server) Janitor(ctx context.Context, ttl, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Prune(ctx, s.now().Add(-ttl)); n > 0 {
				log.Info().Int("pruned", n).Msg("dropped idle games")
			}
		}
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("req_id", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ responses ----------------------------------

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// writeGameError maps engine and store errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, game.ErrInvalidConfiguration):
		status, code = http.StatusBadRequest, "invalid_configuration"
	case errors.Is(err, game.ErrInvalidGuessFormat):
		status, code = http.StatusBadRequest, "invalid_guess_format"
	case errors.Is(err, game.ErrInvalidGuessLength):
		status, code = http.StatusBadRequest, "invalid_guess_length"
	case errors.Is(err, game.ErrGuessBeforeStart):
		status, code = http.StatusConflict, "guess_before_start"
	case errors.Is(err, game.ErrNoRound):
		status, code = http.StatusConflict, "no_round"
	case errors.Is(err, errDailyLocked):
		status, code = http.StatusConflict, "daily_locked"
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	}
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("game request failed")
		writeError(w, status, code, "")
		return
	}
	writeError(w, status, code, err.Error())
}

// boardReady answers 503 when the server runs without a score board.
func (s *Server) boardReady(w http.ResponseWriter) bool {
	if s.board == nil {
		writeError(w, http.StatusServiceUnavailable, "scores_unavailable", "")
		return false
	}
	return true
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
