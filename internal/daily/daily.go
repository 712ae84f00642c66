// internal/daily/daily.go
//
// Daily challenge seeding. Every player gets the same secret for a given date
// and configuration: the secret is drawn from a PCG source whose seed is
// HMAC-SHA256(salt, "YYYY-MM-DD|length|dup").
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/robalobadob/digits/apps/go-server/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Config is the fixed round played by everyone each day.
func Config() game.Config {
	return game.Config{
		Length:     4,
		HintMode:   game.HintPositionAndDigit,
		Difficulty: game.DifficultyEasy,
	}
}

// Rand returns the source for date's secret under cfg.
func Rand(date time.Time, salt string, cfg game.Config) *rand.Rand {
	h := hmac.New(sha256.New, []byte(salt))
	fmt.Fprintf(h, "%s|%d|%t", DateKey(date), cfg.Length, cfg.AllowDuplicates)
	sum := h.Sum(nil)
	// two 64-bit halves seed the PCG state
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])))
}

// Secret is the answer for date.
func Secret(date time.Time, salt string, cfg game.Config) game.Secret {
	return game.GenerateFrom(Rand(date, salt, cfg), cfg.Length, cfg.AllowDuplicates)
}
