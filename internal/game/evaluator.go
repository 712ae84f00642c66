// internal/game/evaluator.go
//
// Guess evaluation.
//
// Pass 1:
//   - Count exact matches and consume both positions.
//
// Pass 2:
//   - For each unconsumed guess position in index order, credit the first
//     unconsumed secret position holding the same digit and consume it.
//
// Each secret digit is credited at most once, so repeated digits in either
// sequence are handled, and the totals equal the histogram formula
// sum(min(freqGuess[d], freqSecret[d])) - exact.

package game

// Evaluate compares guess against secret with full marks. It is pure.
// Lengths must match; a mismatch is a caller error and only the shared prefix
// is compared.
func Evaluate(guess Guess, secret Secret) HintResult {
	n := min(len(guess), len(secret))
	res := HintResult{Marks: make([]Mark, n)}

	used := make([]bool, n) // secret positions already credited

	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			res.Marks[i] = MarkCorrectPosition
			res.CorrectPosition++
			used[i] = true
		}
	}

	for i := 0; i < n; i++ {
		if res.Marks[i] == MarkCorrectPosition {
			continue
		}
		res.Marks[i] = MarkWrong
		for j := 0; j < n; j++ {
			if used[j] || guess[i] != secret[j] {
				continue
			}
			used[j] = true
			res.Marks[i] = MarkCorrectDigit
			res.CorrectDigit++
			break
		}
	}
	return res
}

// Score evaluates and then applies mode to the marks. In position-only mode
// every non-exact position is marked wrong; CorrectDigit is still computed and
// it is up to the presentation whether to show it.
func Score(guess Guess, secret Secret, mode HintMode) HintResult {
	res := Evaluate(guess, secret)
	if mode == HintPositionOnly {
		for i, m := range res.Marks {
			if m == MarkCorrectDigit {
				res.Marks[i] = MarkWrong
			}
		}
	}
	return res
}

// CountMatches is the histogram form of the evaluator. It returns the same
// totals as Evaluate and exists to cross-check it.
func CountMatches(guess Guess, secret Secret) (correctPosition, correctDigit int) {
	n := min(len(guess), len(secret))
	var fg, fs [alphabetLen]int
	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			correctPosition++
		}
		fg[guess[i]%alphabetLen]++
		fs[secret[i]%alphabetLen]++
	}
	total := 0
	for d := 0; d < alphabetLen; d++ {
		total += min(fg[d], fs[d])
	}
	return correctPosition, total - correctPosition
}
