// Package rng builds the seeded random sources used for sampling and
// shuffling, so every run can be replayed from its recorded seed.
package rng

import (
	"math/rand"
	"time"
)

// New returns a generator seeded with seed and the seed actually used.
// A zero seed is replaced with the current time.
func New(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}
