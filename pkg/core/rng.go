package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	seed uint64
	r    *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{seed: seed, r: rand.New(rand.NewPCG(seed, 0))}
}

// Seed reports the seed the RNG was created with.
func (r *RNG) Seed() uint64 { return r.seed }

// Derive returns an independent stream keyed by the parent seed and the
// provided path. The parent stream is not consumed, so the same path always
// yields the same stream regardless of call order.
func (r *RNG) Derive(path ...uint64) *RNG {
	h := splitmix(r.seed)
	for _, p := range path {
		h = splitmix(h ^ splitmix(p+0x632be59bd9b4e019))
	}
	return &RNG{seed: h, r: rand.New(rand.NewPCG(h, splitmix(h)))}
}

// Bool returns a random boolean value.
func (r *RNG) Bool() bool {
	return r.r.IntN(2) == 1
}

// IntN returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Float64 returns a random float64 in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }

// RandomSeed draws a non-zero seed from the runtime's global source.
func RandomSeed() uint64 {
	for {
		if s := rand.Uint64(); s != 0 {
			return s
		}
	}
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
