package search

import "math/rand/v2"

// Shuffler permutes candidate buckets. *rand.Rand from math/rand/v2 satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a Shuffler seeded with seed. Equal seeds give equal lines.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NoShuffle keeps candidates in corpus order.
type NoShuffle struct{}

// Shuffle implements Shuffler.
func (NoShuffle) Shuffle(int, func(i, j int)) {}
