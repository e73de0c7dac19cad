package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// RandomSource supplies uniform draws. Implementations may fail; the engine
// reports such failures as RANDOM_SOURCE_FAILURE and mutates nothing.
type RandomSource interface {
	// IntN returns a uniform int in [0, n).
	IntN(n int) (int, error)
	// Float64 returns a uniform float in [0, 1).
	Float64() (float64, error)
}

type pcgSource struct {
	r *rand.Rand
}

// NewSeededRandom returns a replicable source, used by tests and by
// provably-fair rounds.
func NewSeededRandom(seed uint64) RandomSource {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom returns a PCG source seeded from crypto/rand.
func NewRandom() (RandomSource, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return NewSeededRandom(binary.LittleEndian.Uint64(b[:])), nil
}

func (s *pcgSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range %d", n)
	}
	return s.r.IntN(n), nil
}

func (s *pcgSource) Float64() (float64, error) {
	return s.r.Float64(), nil
}
