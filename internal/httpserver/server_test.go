package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/digits/apps/go-server/assets"
	"github.com/robalobadob/digits/apps/go-server/internal/auth"
	"github.com/robalobadob/digits/apps/go-server/internal/config"
	"github.com/robalobadob/digits/apps/go-server/internal/daily"
	"github.com/robalobadob/digits/apps/go-server/internal/game"
	"github.com/robalobadob/digits/apps/go-server/internal/scores"
	"github.com/robalobadob/digits/apps/go-server/internal/storage"
	"github.com/robalobadob/digits/apps/go-server/internal/store"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time      { return c.t }
func (c *testClock) add(d time.Duration) { c.t = c.t.Add(d) }

func newTestServer(t *testing.T) (*Server, *testClock) {
	t.Helper()
	db, err := storage.OpenMigrated(storage.Memory, assets.Migrations())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	clk := &testClock{t: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	cfg := config.Config{
		CookieName:     "digits_token",
		DailySalt:      "test_salt",
		JWTExpiresDays: 1,
		RequestTimeout: 5 * time.Second,
	}
	s := New(Deps{
		Config:         cfg,
		Store:          store.NewMemoryStore(),
		Scores:         scores.NewStore(db),
		Users:          auth.NewUsers(db).WithCost(bcrypt.MinCost),
		Tokens:         auth.NewTokens("test_secret", cfg.TokenTTL()),
		SessionOptions: []game.Option{game.WithClock(clk.now)},
		Now:            clk.now,
	})
	return s, clk
}

// client carries cookies between requests like a browser would.
type client struct {
	t       *testing.T
	s       *Server
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, s *Server) *client {
	return &client{t: t, s: s, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.s.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

// owner is the anonymous player id the server handed this client.
func (c *client) owner() string {
	if ck, ok := c.cookies[anonCookieName]; ok {
		return ck.Value
	}
	return ""
}

// secretOf peeks at a live game's secret.
func secretOf(t *testing.T, s *Server, id, owner string) string {
	t.Helper()
	var secret string
	if err := s.store.Update(context.Background(), id, owner, func(e *store.Entry) error {
		secret = e.Session.Secret().String()
		return nil
	}); err != nil {
		t.Fatalf("secretOf(%s): %v", id, err)
	}
	return secret
}

func reversed(s string) string {
	b := []byte(s)
	slices.Reverse(b)
	return string(b)
}

type guessOut struct {
	Attempt         int           `json:"attempt"`
	CorrectPosition int           `json:"correctPosition"`
	CorrectDigit    *int          `json:"correctDigit"`
	Marks           []game.Mark   `json:"marks"`
	Hint            string        `json:"hint"`
	Status          game.Status   `json:"status"`
	Attempts        int           `json:"attempts"`
	BestExact       int           `json:"bestExact"`
	ElapsedMs       int64         `json:"elapsedMs"`
	Answer          string        `json:"answer"`
	Summary         *game.Summary `json:"summary"`
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	var out map[string]bool
	if code := newClient(t, s).do(http.MethodGet, "/health", nil, &out); code != http.StatusOK || !out["ok"] {
		t.Fatalf("health = %d %v", code, out)
	}
}

func TestGameFlowToWin(t *testing.T) {
	s, clk := newTestServer(t)
	c := newClient(t, s)

	var snap snapshot
	code := c.do(http.MethodPost, "/game/new", map[string]any{"length": 4, "hintMode": "position-and-digit"}, &snap)
	if code != http.StatusCreated || snap.Status != game.StatusRunning || snap.GameID == "" {
		t.Fatalf("new = %d %+v", code, snap)
	}
	if snap.StartedAt == nil || !snap.StartedAt.Equal(clk.now()) {
		t.Fatalf("startedAt = %v, want %v", snap.StartedAt, clk.now())
	}
	if snap.Answer != "" {
		t.Fatal("answer leaked before win")
	}
	id := snap.GameID
	secret := secretOf(t, s, id, c.owner())

	// distinct digits reversed: every digit present, none in place
	clk.add(2 * time.Second)
	var g guessOut
	if code := c.do(http.MethodPost, "/game/guess", guessReq{GameID: id, Guess: reversed(secret)}, &g); code != http.StatusOK {
		t.Fatalf("guess = %d %+v", code, g)
	}
	if g.CorrectPosition != 0 || g.CorrectDigit == nil || *g.CorrectDigit != 4 || g.Status != game.StatusRunning {
		t.Fatalf("miss = %+v", g)
	}
	if len(g.Marks) != 4 || g.Marks[0] != game.MarkCorrectDigit {
		t.Fatalf("marks = %v", g.Marks)
	}
	if g.Hint != "right digit, right place: 0; right digit only: 4" {
		t.Fatalf("hint = %q", g.Hint)
	}

	clk.add(3 * time.Second)
	g = guessOut{}
	c.do(http.MethodPost, "/game/guess", guessReq{GameID: id, Guess: secret}, &g)
	if g.Status != game.StatusWon || g.Answer != secret || g.Attempts != 2 || g.ElapsedMs != 5000 {
		t.Fatalf("win = %+v", g)
	}
	if g.Summary == nil || g.Summary.HitRate != 50 || g.Summary.BestExact != 4 {
		t.Fatalf("summary = %+v", g.Summary)
	}

	// elapsed stays frozen after the win
	clk.add(time.Minute)
	snap = snapshot{}
	if code := c.do(http.MethodGet, "/game/"+id, nil, &snap); code != http.StatusOK {
		t.Fatalf("get = %d", code)
	}
	if snap.ElapsedMs != 5000 || len(snap.History) != 2 || snap.Answer != secret {
		t.Fatalf("snapshot = %+v", snap)
	}

	// further guesses are refused
	if code := c.do(http.MethodPost, "/game/guess", guessReq{GameID: id, Guess: secret}, nil); code != http.StatusConflict {
		t.Fatalf("guess after win = %d", code)
	}

	var board struct {
		Top []scores.Result `json:"top"`
	}
	c.do(http.MethodGet, "/scores?length=4", nil, &board)
	if len(board.Top) != 1 || board.Top[0].Attempts != 2 || board.Top[0].ElapsedMs != 5000 || board.Top[0].OwnerID != c.owner() {
		t.Fatalf("scores = %+v", board.Top)
	}
}

func TestGuessErrors(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)
	var snap snapshot
	c.do(http.MethodPost, "/game/new", map[string]any{"length": 5}, &snap)

	cases := []struct {
		name  string
		guess string
		code  int
		err   string
	}{
		{"letters", "12a45", http.StatusBadRequest, "invalid_guess_format"},
		{"empty", "  ", http.StatusBadRequest, "invalid_guess_format"},
		{"short", "1234", http.StatusBadRequest, "invalid_guess_length"},
		{"long", "123456", http.StatusBadRequest, "invalid_guess_length"},
	}
	for _, tc := range cases {
		var body errorBody
		if code := c.do(http.MethodPost, "/game/guess", guessReq{GameID: snap.GameID, Guess: tc.guess}, &body); code != tc.code || body.Error != tc.err {
			t.Errorf("%s: guess %q = %d %+v", tc.name, tc.guess, code, body)
		}
	}

	var got snapshot
	c.do(http.MethodGet, "/game/"+snap.GameID, nil, &got)
	if got.Attempts != 0 {
		t.Fatalf("rejected guesses were counted: %d", got.Attempts)
	}
}

func TestNewGameRejectsBadConfig(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)
	for _, body := range []map[string]any{
		{"length": 1},
		{"length": 11},
		{"hintMode": "everything"},
		{"difficulty": "nightmare"},
	} {
		var e errorBody
		if code := c.do(http.MethodPost, "/game/new", body, &e); code != http.StatusBadRequest || e.Error != "invalid_configuration" {
			t.Errorf("new %v = %d %+v", body, code, e)
		}
	}
}

func TestEmptyBodyUsesDefaults(t *testing.T) {
	s, _ := newTestServer(t)
	var snap snapshot
	if code := newClient(t, s).do(http.MethodPost, "/game/new", nil, &snap); code != http.StatusCreated {
		t.Fatalf("new = %d", code)
	}
	if snap.Config != game.DefaultConfig() {
		t.Fatalf("config = %+v", snap.Config)
	}
}

func TestGamesAreOwned(t *testing.T) {
	s, _ := newTestServer(t)
	alice, bob := newClient(t, s), newClient(t, s)
	var snap snapshot
	alice.do(http.MethodPost, "/game/new", nil, &snap)
	bob.do(http.MethodGet, "/health", nil, nil)

	if code := bob.do(http.MethodGet, "/game/"+snap.GameID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("foreign get = %d", code)
	}
	if code := bob.do(http.MethodPost, "/game/guess", guessReq{GameID: snap.GameID, Guess: "1234"}, nil); code != http.StatusNotFound {
		t.Fatalf("foreign guess = %d", code)
	}
	if code := alice.do(http.MethodGet, "/game/nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown get = %d", code)
	}
}

func TestRestartResetAndStart(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)
	var snap snapshot
	c.do(http.MethodPost, "/game/new", map[string]any{"length": 6, "allowDuplicates": true}, &snap)
	id := snap.GameID
	c.do(http.MethodPost, "/game/guess", guessReq{GameID: id, Guess: "000000"}, nil)

	snap = snapshot{}
	if code := c.do(http.MethodPost, "/game/"+id+"/restart", nil, &snap); code != http.StatusOK {
		t.Fatalf("restart = %d", code)
	}
	if snap.Status != game.StatusRunning || snap.Attempts != 0 || snap.Config.Length != 6 || !snap.Config.AllowDuplicates {
		t.Fatalf("after restart %+v", snap)
	}

	snap = snapshot{}
	c.do(http.MethodPost, "/game/"+id+"/reset", nil, &snap)
	if snap.Status != game.StatusIdle || snap.ElapsedMs != 0 || snap.StartedAt != nil {
		t.Fatalf("after reset %+v", snap)
	}

	var e errorBody
	if code := c.do(http.MethodPost, "/game/guess", guessReq{GameID: id, Guess: "123456"}, &e); code != http.StatusConflict || e.Error != "guess_before_start" {
		t.Fatalf("guess while idle = %d %+v", code, e)
	}
	if code := c.do(http.MethodPost, "/game/"+id+"/restart", nil, &e); code != http.StatusConflict || e.Error != "no_round" {
		t.Fatalf("restart while idle = %d %+v", code, e)
	}

	snap = snapshot{}
	c.do(http.MethodPost, "/game/"+id+"/start", map[string]any{"length": 3}, &snap)
	if snap.Status != game.StatusRunning || snap.Config.Length != 3 || snap.Config.AllowDuplicates {
		t.Fatalf("after start %+v", snap)
	}
}

func TestHintPolicy(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)

	var snap snapshot
	c.do(http.MethodPost, "/game/new", map[string]any{"hintMode": "position-only"}, &snap)
	secret := secretOf(t, s, snap.GameID, c.owner())
	var g guessOut
	c.do(http.MethodPost, "/game/guess", guessReq{GameID: snap.GameID, Guess: reversed(secret)}, &g)
	if g.CorrectDigit != nil {
		t.Fatalf("position-only leaked correctDigit=%d", *g.CorrectDigit)
	}
	for _, m := range g.Marks {
		if m == game.MarkCorrectDigit {
			t.Fatalf("position-only leaked marks %v", g.Marks)
		}
	}
	if g.Hint != "right digit, right place: 0" {
		t.Fatalf("hint = %q", g.Hint)
	}

	snap = snapshot{}
	c.do(http.MethodPost, "/game/new", map[string]any{"hintMode": "position-and-digit", "difficulty": "hard"}, &snap)
	secret = secretOf(t, s, snap.GameID, c.owner())
	g = guessOut{}
	c.do(http.MethodPost, "/game/guess", guessReq{GameID: snap.GameID, Guess: reversed(secret)}, &g)
	if g.Marks != nil || g.CorrectDigit == nil || *g.CorrectDigit != 4 {
		t.Fatalf("hard = %+v", g)
	}
}

func TestDailyOncePerDay(t *testing.T) {
	s, clk := newTestServer(t)
	c := newClient(t, s)

	var first dailyNewRes
	if code := c.do(http.MethodPost, "/daily/new", nil, &first); code != http.StatusOK || first.Played || first.GameID == "" {
		t.Fatalf("daily new = %d %+v", code, first)
	}
	if first.Date != "2026-10-14" || first.Config.Length != 4 {
		t.Fatalf("daily = %+v", first)
	}

	var again dailyNewRes
	c.do(http.MethodPost, "/daily/new", nil, &again)
	if again.GameID != first.GameID {
		t.Fatalf("second call made a new round: %s vs %s", again.GameID, first.GameID)
	}

	// the round cannot be rerolled
	var e errorBody
	if code := c.do(http.MethodPost, "/game/"+first.GameID+"/restart", nil, &e); code != http.StatusConflict || e.Error != "daily_locked" {
		t.Fatalf("restart daily = %d %+v", code, e)
	}

	// everyone gets the same secret
	other := newClient(t, s)
	var theirs dailyNewRes
	other.do(http.MethodPost, "/daily/new", nil, &theirs)
	secret := secretOf(t, s, first.GameID, c.owner())
	if got := secretOf(t, s, theirs.GameID, other.owner()); got != secret {
		t.Fatalf("daily secrets differ: %s vs %s", got, secret)
	}
	if want := daily.Secret(clk.now(), "test_salt", daily.Config()).String(); secret != want {
		t.Fatalf("daily secret %s, want %s", secret, want)
	}

	clk.add(42 * time.Second)
	var g guessOut
	c.do(http.MethodPost, "/daily/guess", guessReq{GameID: first.GameID, Guess: secret}, &g)
	if g.Status != game.StatusWon || g.Attempts != 1 {
		t.Fatalf("daily win = %+v", g)
	}

	var after dailyNewRes
	c.do(http.MethodPost, "/daily/new", nil, &after)
	if !after.Played || after.GameID != "" {
		t.Fatalf("after win = %+v", after)
	}

	var lb lbRes
	c.do(http.MethodGet, "/daily/leaderboard", nil, &lb)
	if lb.Date != "2026-10-14" || len(lb.Top) != 1 || lb.Top[0].ElapsedMs != 42000 {
		t.Fatalf("leaderboard = %+v", lb)
	}

	// the free-play board stays separate
	var board struct {
		Top []scores.Result `json:"top"`
	}
	c.do(http.MethodGet, "/scores", nil, &board)
	if len(board.Top) != 0 {
		t.Fatalf("free board = %+v", board.Top)
	}
}

func TestDailyGuessRejectsFreeGame(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)
	var snap snapshot
	c.do(http.MethodPost, "/game/new", nil, &snap)
	if code := c.do(http.MethodPost, "/daily/guess", guessReq{GameID: snap.GameID, Guess: "1234"}, nil); code != http.StatusNotFound {
		t.Fatalf("daily guess on free game = %d", code)
	}
}

func TestAccountsClaimGuestHistory(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)

	var snap snapshot
	c.do(http.MethodPost, "/game/new", nil, &snap)
	guest := c.owner()
	secret := secretOf(t, s, snap.GameID, guest)
	c.do(http.MethodPost, "/game/guess", guessReq{GameID: snap.GameID, Guess: secret}, nil)

	var res authRes
	if code := c.do(http.MethodPost, "/auth/signup", credentials{Username: "dora", Password: "hunter2hunter2"}, &res); code != http.StatusCreated {
		t.Fatalf("signup = %d", code)
	}
	if res.Token == "" || res.Username != "dora" {
		t.Fatalf("signup = %+v", res)
	}

	var me player
	if code := c.do(http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK || me.ID != res.ID || !me.Registered {
		t.Fatalf("me = %d %+v", code, me)
	}

	// the live game followed the player
	if code := c.do(http.MethodGet, "/game/"+snap.GameID, nil, nil); code != http.StatusOK {
		t.Fatalf("claimed game = %d", code)
	}

	var stats struct {
		ID    string       `json:"id"`
		Stats scores.Stats `json:"stats"`
	}
	c.do(http.MethodGet, "/stats/me", nil, &stats)
	if stats.Stats.Wins != 1 || stats.Stats.BestAttempts != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	var mine []scores.Result
	c.do(http.MethodGet, "/games/mine", nil, &mine)
	if len(mine) != 1 || mine[0].OwnerID != res.ID {
		t.Fatalf("mine = %+v", mine)
	}

	if code := c.do(http.MethodPost, "/auth/logout", nil, nil); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code := c.do(http.MethodGet, "/auth/me", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d", code)
	}
}

func TestLogin(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)
	c.do(http.MethodPost, "/auth/signup", credentials{Username: "eve", Password: "password123"}, nil)

	fresh := newClient(t, s)
	if code := fresh.do(http.MethodPost, "/auth/login", credentials{Username: "eve", Password: "nope-nope"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", code)
	}
	var res authRes
	if code := fresh.do(http.MethodPost, "/auth/login", credentials{Username: "EVE", Password: "password123"}, &res); code != http.StatusOK || res.Token == "" {
		t.Fatalf("login = %d %+v", code, res)
	}

	// bearer tokens work without cookies
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer me = %d", rec.Code)
	}

	var e errorBody
	if code := fresh.do(http.MethodPost, "/auth/signup", credentials{Username: "eve", Password: "password123"}, &e); code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d %+v", code, e)
	}
}

func TestJanitorPrunesIdleGames(t *testing.T) {
	s, _ := newTestServer(t)
	c := newClient(t, s)
	var snap snapshot
	c.do(http.MethodPost, "/game/new", nil, &snap)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		// the store stamps entries with the wall clock; a negative TTL puts the
		// cutoff far past any of them
		s.Janitor(ctx, -100*365*24*time.Hour, 5*time.Millisecond)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if code := c.do(http.MethodGet, "/game/"+snap.GameID, nil, nil); code == http.StatusNotFound {
			cancel()
			<-done
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
	t.Fatal("idle game was never pruned")
}

func TestWithoutScoreBoard(t *testing.T) {
	db, err := storage.OpenMigrated(storage.Memory, assets.Migrations())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := New(Deps{
		Config: config.Config{CookieName: "digits_token", JWTExpiresDays: 1},
		Store:  store.NewMemoryStore(),
		Users:  auth.NewUsers(db).WithCost(bcrypt.MinCost),
		Tokens: auth.NewTokens("test_secret", time.Hour),
	})
	c := newClient(t, s)

	// play still works; the win is simply not recorded
	var snap snapshot
	c.do(http.MethodPost, "/game/new", nil, &snap)
	secret := secretOf(t, s, snap.GameID, c.owner())
	var g guessOut
	if code := c.do(http.MethodPost, "/game/guess", guessReq{GameID: snap.GameID, Guess: secret}, &g); code != http.StatusOK || g.Status != game.StatusWon {
		t.Fatalf("guess = %d %+v", code, g)
	}
	var round dailyNewRes
	if code := c.do(http.MethodPost, "/daily/new", nil, &round); code != http.StatusOK || round.GameID == "" {
		t.Fatalf("daily new = %d %+v", code, round)
	}

	if code := c.do(http.MethodPost, "/auth/signup", credentials{Username: "fay", Password: "password123"}, nil); code != http.StatusCreated {
		t.Fatalf("signup = %d", code)
	}
	for _, path := range []string{"/scores", "/daily/leaderboard", "/stats/me", "/games/mine"} {
		var e errorBody
		if code := c.do(http.MethodGet, path, nil, &e); code != http.StatusServiceUnavailable || e.Error != "scores_unavailable" {
			t.Errorf("GET %s = %d %+v", path, code, e)
		}
	}
}
