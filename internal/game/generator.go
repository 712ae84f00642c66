package game

import (
	"fmt"
	"math/rand/v2"
)

// Generate draws a secret using the package-level random source.
func Generate(length int, allowDuplicates bool) Secret {
	return generate(rand.IntN, rand.Shuffle, length, allowDuplicates)
}

// GenerateFrom draws a secret from r. The same seed yields the same secret.
//
// With duplicates, each position is drawn uniformly and independently.
// Without, the ten digits are shuffled (Fisher–Yates) and the first length kept,
// so every ordering of every distinct subset is equally likely.
//
// The caller validates the configuration first; length < 1, or length > 10
// without duplicates, panics.
func GenerateFrom(r *rand.Rand, length int, allowDuplicates bool) Secret {
	return generate(r.IntN, r.Shuffle, length, allowDuplicates)
}

func generate(intN func(int) int, shuffle func(int, func(i, j int)), length int, allowDuplicates bool) Secret {
	if length < 1 || (!allowDuplicates && length > alphabetLen) {
		panic(fmt.Sprintf("game: cannot generate %d digits (duplicates=%v)", length, allowDuplicates))
	}
	out := make(Secret, length)
	if allowDuplicates {
		for i := range out {
			out[i] = Digit(intN(alphabetLen))
		}
		return out
	}

	pool := [alphabetLen]Digit{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	copy(out, pool[:length])
	return out
}
