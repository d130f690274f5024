package gacha

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource abstract

type RandomSource interface {
	Float64() float64 // [0, 1)
}

// crypto random : default generation method
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	// Read 53bit random => [0, 1)
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// backto math / rand/ v2
		return rand.Float64()
	}

	// max 53
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func DefaultRNG() RandomSource { return cryptoRNG{} }

// Replicable RNG (e.g. Monte Carlo, seeded sessions)
type seededRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// SequenceRNG replays fixed values in order, wrapping around at the end.
// Tests use it to force tiers, crits, rolls and zone picks.
type SequenceRNG struct {
	vals []float64
	pos  int
}

func NewSequenceRNG(vals ...float64) *SequenceRNG {
	return &SequenceRNG{vals: vals}
}

func (s *SequenceRNG) Float64() float64 {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.pos%len(s.vals)]
	s.pos++
	return v
}

// Consumed reports how many values have been read.
func (s *SequenceRNG) Consumed() int { return s.pos }

// IntN returns floor(Float64()*n), a uniform integer in [0, n).
// n <= 0 yields 0.
func IntN(rng RandomSource, n int) int {
	if n <= 0 {
		return 0
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	i := int(rng.Float64() * float64(n))
	if i >= n { // guard against a misbehaving source returning 1
		i = n - 1
	}
	return i
}

// IntRange returns a uniform integer in [lo, hi].
func IntRange(rng RandomSource, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + IntN(rng, hi-lo+1)
}
