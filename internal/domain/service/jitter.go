package service

import (
	"math/rand/v2"
	"sync"
)

// LockedSource is a seedable random source safe for concurrent use. Draws
// from concurrent callers interleave in no particular order.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedSource returns a PCG-backed source. A zero seed draws one from the
// runtime's entropy-seeded generator.
func NewLockedSource(seed uint64) *LockedSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &LockedSource{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// IntN returns a uniform integer in [0, n).
func (s *LockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
