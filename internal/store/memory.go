// internal/store/memory.go
//
// In-memory home for live game sessions.
//
// Characteristics:
//   - Stores *game.Session objects keyed by game ID, each tagged with its owner.
//   - Concurrency-safe via one mutex; Update runs the caller's mutation under it,
//     so a session is only ever touched by one request at a time.
//   - State is lost when the process restarts (rounds are never resumed).
//   - Idle games older than the TTL are swept by Prune.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/digits/apps/go-server/internal/game"
)

// ErrNotFound is returned for unknown IDs and for IDs owned by someone else.
var ErrNotFound = errors.New("not found")

// Entry is one stored game.
type Entry struct {
	ID      string
	OwnerID string
	Mode    string // "free" | "daily"
	Date    string // daily rounds only
	Session *game.Session

	touched time.Time
}

// Store defines the persistence interface for live game sessions.
type Store interface {
	// Save adds or replaces an entry.
	Save(ctx context.Context, e *Entry) error

	// Update runs fn on the entry with the given ID if ownerID owns it.
	// fn must not retain the entry after returning.
	Update(ctx context.Context, id, ownerID string, fn func(*Entry) error) error

	// Claim hands every game owned by fromOwner to toOwner (guest → account).
	Claim(ctx context.Context, fromOwner, toOwner string) int

	// Prune drops entries untouched since before cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) int
}

type memory struct {
	mu    sync.Mutex        // guards games and every Session within
	games map[string]*Entry // keyed by Entry.ID
	now   func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]*Entry), now: time.Now}
}

func (m *memory) Save(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		return errors.New("store: entry without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.touched = m.now()
	m.games[e.ID] = e
	return nil
}

func (m *memory) Update(ctx context.Context, id, ownerID string, fn func(*Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.games[id]
	if !ok || e.OwnerID != ownerID {
		return ErrNotFound
	}
	e.touched = m.now()
	return fn(e)
}

func (m *memory) Claim(ctx context.Context, fromOwner, toOwner string) int {
	if fromOwner == "" || toOwner == "" {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.games {
		if e.OwnerID == fromOwner {
			e.OwnerID = toOwner
			n++
		}
	}
	return n
}

func (m *memory) Prune(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.games {
		if e.touched.Before(cutoff) {
			delete(m.games, id)
			n++
		}
	}
	return n
}
