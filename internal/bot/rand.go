package bot

import "math/rand"

// botRng is the package-level random source used by the random strategy and
// for unseeded boards. When nil, the functions below delegate to the global
// math/rand default. Use SeedBotRng for reproducible batch runs. It is not
// safe for concurrent use; draw seeds up front when playing in parallel.
var botRng *rand.Rand

// SeedBotRng sets a deterministic random source for reproducible bot behavior.
func SeedBotRng(seed int64) {
	botRng = rand.New(rand.NewSource(seed))
}

// ResetBotRng reverts to the default (non-deterministic) global random source.
func ResetBotRng() {
	botRng = nil
}

func botShuffle(n int, swap func(i, j int)) {
	if botRng != nil {
		botRng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

func botInt63() int64 {
	if botRng != nil {
		return botRng.Int63()
	}
	return rand.Int63()
}

// NewRand returns a source seeded from seed, or from the bot source when
// seed is zero.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = botInt63()
	}
	return rand.New(rand.NewSource(seed))
}
