// internal/console/play.go
//
// Terminal front end: one player, one session, line-oriented input.
//
// Commands at the prompt:
//   - a guess such as 1234
//   - new         → restart with a fresh secret
//   - quit / end  → leave
//
// Marks (easy difficulty): "+" right digit right place, "?" right digit
// elsewhere, "." no match. Position-only hints turn every "?" into ".".

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robalobadob/digits/apps/go-server/internal/game"
)

// Play runs rounds of cfg until the player quits or in is exhausted.
func Play(ctx context.Context, in io.Reader, out io.Writer, cfg game.Config, opts ...game.Option) error {
	sess := game.NewSession(opts...)
	if err := sess.Start(cfg); err != nil {
		return err
	}
	p := &printer{w: out}
	p.intro(cfg)

	sc := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sess.Status() == game.StatusRunning {
			p.printf("attempt %d: ", sess.AttemptCount()+1)
		} else {
			p.printf("> ")
		}
		if !sc.Scan() {
			p.printf("\n")
			if err := sc.Err(); err != nil {
				return err
			}
			return p.err
		}
		line := strings.TrimSpace(sc.Text())

		switch strings.ToLower(line) {
		case "quit", "end", "exit":
			if sess.Status() == game.StatusRunning {
				p.printf("the answer was %s\n", sess.Secret())
			}
			return p.err
		case "new":
			if err := sess.Restart(); err != nil {
				return err
			}
			p.printf("new round: %d digits\n", cfg.Length)
			continue
		case "":
			continue
		}

		if sess.Status() != game.StatusRunning {
			p.printf("round over; type \"new\" to play again or \"quit\" to leave\n")
			continue
		}
		g, err := game.ParseGuess(line, cfg.Length)
		if err != nil {
			p.rejected(err, cfg.Length)
			continue
		}
		res, err := sess.SubmitGuess(g)
		if err != nil {
			p.rejected(err, cfg.Length)
			continue
		}
		p.result(cfg, g, res)
		if sess.Status() == game.StatusWon {
			p.won(sess)
		}
	}
}

// printer collects the first write error so the loop stays readable.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) intro(cfg game.Config) {
	repeats := "no repeated digits"
	if cfg.AllowDuplicates {
		repeats = "digits may repeat"
	}
	p.printf("guess the %d digit number (%s)\n", cfg.Length, repeats)
	p.printf("type \"new\" for a fresh number, \"quit\" to leave\n")
}

func (p *printer) rejected(err error, length int) {
	switch {
	case errors.Is(err, game.ErrInvalidGuessFormat):
		p.printf("digits only, please\n")
	case errors.Is(err, game.ErrInvalidGuessLength):
		p.printf("enter exactly %d digits\n", length)
	default:
		p.printf("%v\n", err)
	}
}

func (p *printer) result(cfg game.Config, g game.Guess, res game.HintResult) {
	line := fmt.Sprintf("%s  right place: %d", g, res.CorrectPosition)
	if cfg.ShowsDigitCount() {
		line += fmt.Sprintf("  wrong place: %d", res.CorrectDigit)
	}
	if cfg.ShowsMarks() {
		line += "  " + marks(res.Marks)
	}
	p.printf("%s\n", line)
}

func (p *printer) won(sess *game.Session) {
	sum := sess.Summary()
	p.printf("solved! the number was %s\n", sess.Secret())
	p.printf("attempts: %d  time: %s  hit rate: %d%%\n", sum.Attempts, sum.Elapsed.Round(time.Second), sum.HitRate)
	p.printf("type \"new\" to play again or \"quit\" to leave\n")
}

func marks(ms []game.Mark) string {
	var b strings.Builder
	for _, m := range ms {
		switch m {
		case game.MarkCorrectPosition:
			b.WriteByte('+')
		case game.MarkCorrectDigit:
			b.WriteByte('?')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}
