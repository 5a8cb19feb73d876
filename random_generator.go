package memberdraw

import (
	"math/rand/v2"
	"time"
)

// FastRandomGenerator implements RandomSource over a PCG generator.
// It is not safe for concurrent use; each NumberPool owns its own instance.
type FastRandomGenerator struct {
	rng *rand.Rand
}

// NewRandomGenerator creates a generator seeded from the wall clock
func NewRandomGenerator() *FastRandomGenerator {
	now := uint64(time.Now().UnixNano())
	return NewSeededRandomGenerator(now, now>>17)
}

// NewSeededRandomGenerator creates a generator that repeats the same sequence for the same seeds
func NewSeededRandomGenerator(seed1, seed2 uint64) *FastRandomGenerator {
	return &FastRandomGenerator{
		rng: rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// Intn returns a uniform integer in [0, n), or 0 when n <= 0
func (g *FastRandomGenerator) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return g.rng.IntN(n)
}
