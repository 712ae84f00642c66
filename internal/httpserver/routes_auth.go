// internal/httpserver/routes_auth.go
//
// Player identity, accounts and per-player views.
//   - withPlayer: every game request gets a player (account or anonymous cookie).
//   - POST /auth/signup, /auth/login, /auth/logout; GET /auth/me.
//   - GET /stats/me, GET /games/mine (require auth).
//   - GET /scores (free-play leaderboard, anyone).

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/digits/apps/go-server/internal/auth"
	"github.com/robalobadob/digits/apps/go-server/internal/scores"
)

const anonCookieName = "digits_anon"

// player is placed into request context by withPlayer / requireAuth.
type player struct {
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	Registered bool   `json:"registered"`
}

type ctxPlayerKey struct{}

func playerFrom(ctx context.Context) *player {
	p, _ := ctx.Value(ctxPlayerKey{}).(*player)
	return p
}

// withPlayer resolves the account from a valid token, falling back to the
// anonymous cookie (set on first visit). It never rejects a request.
func (s *Server) withPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := s.accountFromRequest(r)
		if p == nil {
			p = &player{ID: s.ensureAnonID(w, r)}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, p)))
	})
}

// requireAuth enforces a valid token for an existing user.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := s.accountFromRequest(r)
		if p == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, p)))
	})
}

func (s *Server) accountFromRequest(r *http.Request) *player {
	raw := s.bearerOrCookie(r)
	if raw == "" || s.toks == nil {
		return nil
	}
	claims, err := s.toks.Parse(raw)
	if err != nil {
		return nil
	}
	// the account may have been removed since the token was issued
	u, err := s.users.ByID(r.Context(), claims.Subject)
	if err != nil {
		return nil
	}
	return &player{ID: u.ID, Username: u.Username, Registered: true}
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := "anon-" + uuid.NewString()
	http.SetCookie(w, s.cookie(anonCookieName, id, time.Now().Add(180*24*time.Hour)))
	// make the id visible to handlers later in this same request
	r.AddCookie(&http.Cookie{Name: anonCookieName, Value: id})
	return id
}

func (s *Server) cookie(name, value string, exp time.Time) *http.Cookie {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	}
}

func (s *Server) cookieName() string {
	if s.cfg.CookieName != "" {
		return s.cfg.CookieName
	}
	return "digits_token"
}

// bearerOrCookie extracts a bearer token from the Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cookieName()); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------- routes ------------------------------------

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.With(s.requireAuth).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, playerFrom(r.Context()))
	})
	s.r.With(s.requireAuth).Get("/stats/me", s.handleStats)
	s.r.With(s.requireAuth).Get("/games/mine", s.handleMyGames)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authRes struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Token     string    `json:"token"`
}

// handleSignup creates a user, sets the auth cookie, and claims guest games.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", "")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_signup", err.Error())
		return
	}
	s.signIn(w, r, u, http.StatusCreated)
}

// handleLogin authenticates, sets the auth cookie, and claims guest games.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			hlog.FromRequest(r).Error().Err(err).Msg("login")
		}
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "")
		return
	}
	s.signIn(w, r, u, http.StatusOK)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *auth.User, status int) {
	tok, exp, err := s.toks.Sign(u)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return
	}
	http.SetCookie(w, s.cookie(s.cookieName(), tok, exp))
	s.claimGuestHistory(r, u.ID)
	writeJSON(w, status, authRes{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt, Token: tok})
}

// claimGuestHistory moves live games and recorded wins from the anon cookie to the account.
func (s *Server) claimGuestHistory(r *http.Request, userID string) {
	c, err := r.Cookie(anonCookieName)
	if err != nil || c.Value == "" {
		return
	}
	n := s.store.Claim(r.Context(), c.Value, userID)
	if s.daily != nil {
		s.daily.claim(c.Value, userID)
	}
	if s.board != nil {
		if err := s.board.Reassign(r.Context(), c.Value, userID); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("claim guest results")
		}
	}
	if n > 0 {
		hlog.FromRequest(r).Info().Int("games", n).Str("user", userID).Msg("claimed guest games")
	}
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c := s.cookie(s.cookieName(), "", time.Time{})
	c.MaxAge = -1
	http.SetCookie(w, c)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.boardReady(w) {
		return
	}
	me := playerFrom(r.Context())
	st, err := s.board.StatsFor(r.Context(), me.ID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("stats")
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": me.ID, "stats": st})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	if !s.boardReady(w) {
		return
	}
	me := playerFrom(r.Context())
	rows, err := s.board.ForOwner(r.Context(), me.ID, min(queryInt(r, "limit", 50), 100))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("recent games")
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleScores is the free-play leaderboard, optionally for one length.
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	if !s.boardReady(w) {
		return
	}
	f := scores.Filter{
		Mode:   scores.ModeFree,
		Date:   r.URL.Query().Get("date"),
		Length: queryInt(r, "length", 0),
	}
	rows, err := s.board.Leaderboard(r.Context(), f, min(queryInt(r, "limit", 20), 100))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"top": rows})
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n >= 0 {
		return n
	}
	return def
}
