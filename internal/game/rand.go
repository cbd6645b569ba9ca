package game

import (
	mathrand "math/rand"
	"sync"
	"time"
)

// Rand is the randomness an engine draws from. Implementations must be safe
// for use by one engine at a time.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type lockedRand struct {
	mu   sync.Mutex
	rand *mathrand.Rand
}

// NewRand returns a seeded source; seed 0 seeds from the clock.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rand: mathrand.New(mathrand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

func (r *lockedRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}
