package gacha

import (
	"errors"
	"math"
)

var ErrInvalidProb = errors.New("invalid probability p; must be 0..1")

func validProb(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}

// Draw reports a hit with probability p.
// p == 0 never hits, p == 1 always hits; otherwise rng.Float64() < p.
func Draw(p float64, rng RandomSource) (bool, error) {
	if !validProb(p) {
		return false, ErrInvalidProb
	}
	switch p {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return rng.Float64() < p, nil
}
