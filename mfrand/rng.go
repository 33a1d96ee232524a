// Package mfrand centralizes deterministic random generation for the
// clustering engine: trial seeds, per-pass node permutations, and candidate
// tie-breaking all derive from one base seed so a run is reproducible given
// (num_trials, seed).
//
// math/rand.Rand is NOT goroutine-safe. Do not share a *rand.Rand across
// goroutines; use Derive to create independent streams for parallel
// sub-engines (coarse-tune fan-out, per-trial workers).
package mfrand

import (
	"math/rand"
	"time"
)

// defaultSeed is the fixed "zero" seed used when the configured seed is 0
// and no entropy source is requested.
const defaultSeed int64 = 1

// New returns a deterministic *rand.Rand for the given seed. seed == 0 means
// "pick from system entropy" (per mfconfig's seed_to_rng contract); any
// other value is used verbatim.
func New(seed int64) *rand.Rand {
	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(s))
}

// NewDeterministic returns a deterministic *rand.Rand, substituting
// defaultSeed for a zero seed instead of reading entropy.
func NewDeterministic(seed int64) *rand.Rand {
	s := seed
	if s == 0 {
		s = defaultSeed
	}
	return rand.New(rand.NewSource(s))
}

// deriveSeed mixes a parent seed and a stream identifier into a new 64-bit
// seed using a SplitMix64-style avalanche mix, so closely related parent
// seeds (e.g. consecutive trial indices) do not produce correlated streams.
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return int64(x)
}

// Derive creates an independent deterministic RNG stream from a base RNG and
// a stream identifier (trial index, child module index, ...). If base is
// nil, defaultSeed is used as the parent. One value is consumed from base to
// decorrelate consecutive derivations, then mixed with stream.
func Derive(base *rand.Rand, stream uint64) *rand.Rand {
	parent := defaultSeed
	if base != nil {
		parent = base.Int63()
	}

	return rand.New(rand.NewSource(deriveSeed(parent, stream)))
}

// Shuffle permutes a slice of n indices in place using Fisher-Yates, driven
// by rng. Used to randomize per-pass node visitation order (spec §4.5) and
// candidate-module tie-breaking (spec §4.4).
func Shuffle(rng *rand.Rand, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	return perm
}
