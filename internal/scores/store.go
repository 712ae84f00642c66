// internal/scores/store.go
//
// Score board for won rounds, backed by the results table.
// Only finished rounds are written; live sessions stay in memory.

package scores

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Modes.
const (
	ModeFree  = "free"
	ModeDaily = "daily"
)

// ErrAlreadyRecorded is returned when a player's daily round exists for the date.
var ErrAlreadyRecorded = errors.New("daily result already recorded")

// Result is a single won round.
type Result struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Mode            string    `json:"mode"`
	Date            string    `json:"date"` // YYYY-MM-DD
	Length          int       `json:"length"`
	AllowDuplicates bool      `json:"allowDuplicates"`
	HintMode        string    `json:"hintMode"`
	Attempts        int       `json:"attempts"`
	ElapsedMs       int64     `json:"elapsedMs"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Filter selects leaderboard rows. Empty fields match everything.
type Filter struct {
	Mode   string
	Date   string
	Length int
}

// Stats aggregates one player's results.
type Stats struct {
	Wins         int   `json:"wins"`
	DailyWins    int   `json:"dailyWins"`
	BestAttempts int   `json:"bestAttempts"`
	BestMs       int64 `json:"bestElapsedMs"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts r, assigning an ID when empty. A second daily row for the
// same owner and date yields ErrAlreadyRecorded.
func (s *Store) Record(ctx context.Context, r Result) (Result, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO results
            (id, owner_id, mode, date, length, allow_duplicates, hint_mode, attempts, elapsed_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.Mode, r.Date, r.Length, r.AllowDuplicates, r.HintMode, r.Attempts, r.ElapsedMs,
	)
	if err != nil {
		return r, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r, ErrAlreadyRecorded
	}
	return r, nil
}

// AlreadyPlayed reports whether owner has a daily result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, ownerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM results WHERE owner_id=? AND date=? AND mode=?`,
		ownerID, date, ModeDaily,
	).Scan(&cnt)
	return cnt > 0, err
}

// Leaderboard returns the fastest rounds matching f, fewest attempts breaking ties.
// Default limit is 20.
func (s *Store) Leaderboard(ctx context.Context, f Filter, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, `
        SELECT id, owner_id, mode, date, length, allow_duplicates, hint_mode, attempts, elapsed_ms, created_at
        FROM results
        WHERE (?1 = '' OR mode = ?1)
          AND (?2 = '' OR date = ?2)
          AND (?3 = 0  OR length = ?3)
        ORDER BY elapsed_ms ASC, attempts ASC, created_at ASC
        LIMIT ?4`, f.Mode, f.Date, f.Length, limit)
}

// ForOwner lists owner's most recent results.
func (s *Store) ForOwner(ctx context.Context, ownerID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(ctx, `
        SELECT id, owner_id, mode, date, length, allow_duplicates, hint_mode, attempts, elapsed_ms, created_at
        FROM results
        WHERE owner_id = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?`, ownerID, limit)
}

// StatsFor aggregates owner's results.
func (s *Store) StatsFor(ctx context.Context, ownerID string) (Stats, error) {
	var st Stats
	var bestAttempts, bestMs sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(CASE WHEN mode = ? THEN 1 ELSE 0 END), 0),
               MIN(attempts),
               MIN(elapsed_ms)
        FROM results WHERE owner_id = ?`, ModeDaily, ownerID,
	).Scan(&st.Wins, &st.DailyWins, &bestAttempts, &bestMs)
	st.BestAttempts = int(bestAttempts.Int64)
	st.BestMs = bestMs.Int64
	return st, err
}

// Reassign moves every result from one owner to another (anonymous → account).
func (s *Store) Reassign(ctx context.Context, fromOwner, toOwner string) error {
	if fromOwner == "" || toOwner == "" || fromOwner == toOwner {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE OR IGNORE results SET owner_id=? WHERE owner_id=?`, toOwner, fromOwner)
	return err
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var r Result
		var created string
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Mode, &r.Date, &r.Length, &r.AllowDuplicates,
			&r.HintMode, &r.Attempts, &r.ElapsedMs, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
