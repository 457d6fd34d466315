// Package dice provides the randomness abstraction used by the combat engine.
// Production code rolls through a crypto/rand-backed Source; tests substitute
// a deterministic FixedSource.
package dice

import (
	"crypto/rand"
	"math/big"
)

// Source produces uniformly distributed random integers.
type Source interface {
	// Intn returns a random int in [0, n). Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Chance reports whether a roll through src succeeds with probability p.
// p <= 0 never succeeds; p >= 1 always succeeds.
//
// Precondition: src must be non-nil.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Intn(10000) < int(p*10000)
}
