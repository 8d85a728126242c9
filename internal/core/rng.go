package core

import (
	"math/rand"
	"time"
)

// RNG is the source of chance used by the simulation.
// Tests substitute a scripted implementation to pin exact trajectories.
type RNG interface {
	// Uniform returns a value drawn uniformly from [lo, hi].
	Uniform(lo, hi float64) float64
	// IntN returns a value drawn uniformly from [0, n).
	IntN(n int) int
}

// MathRNG adapts a seeded *rand.Rand to RNG.
type MathRNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG. A zero seed picks one from the clock.
func NewRNG(seed int64) *MathRNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MathRNG{r: rand.New(rand.NewSource(seed))}
}

// Uniform implements RNG.
func (m *MathRNG) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*m.r.Float64()
}

// IntN implements RNG.
func (m *MathRNG) IntN(n int) int {
	return m.r.Intn(n)
}
