package shortener

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	// CodeLength is the length of every generated short code.
	CodeLength = 8

	// DefaultMaxAttempts bounds the collision loop in Generate.
	DefaultMaxAttempts = 100
)

// alphabet holds the 62 URL-safe symbols a short code is drawn from.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ErrGenerationExhausted is returned when every attempt collided with an existing code.
var ErrGenerationExhausted = errors.New("short code generation exhausted")

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(code string) (bool, error)

// IndexSource returns a uniformly distributed integer in [0, n).
type IndexSource func(n int) (int, error)

// Generator produces random short codes that do not collide with existing records.
type Generator struct {
	maxAttempts int
	next        IndexSource
}

// NewGenerator returns a Generator backed by crypto/rand.
// A non-positive maxAttempts falls back to DefaultMaxAttempts.
func NewGenerator(maxAttempts int) *Generator {
	return NewGeneratorWithSource(maxAttempts, cryptoIndex)
}

// NewGeneratorWithSource returns a Generator drawing symbols from src.
func NewGeneratorWithSource(maxAttempts int, src IndexSource) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{maxAttempts: maxAttempts, next: src}
}

// MaxAttempts reports how many candidates Generate tries before giving up.
func (g *Generator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate draws candidate codes until exists reports one as free.
// The check is not atomic with insertion; callers must still rely on the
// store's unique index and retry when the insert loses a race.
func (g *Generator) Generate(exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.Code()
		if err != nil {
			return "", err
		}

		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("checking short code %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, g.maxAttempts)
}

// Code returns a single random code without any collision check.
func (g *Generator) Code() (string, error) {
	buf := make([]byte, CodeLength)
	for i := range buf {
		idx, err := g.next(len(alphabet))
		if err != nil {
			return "", fmt.Errorf("generating short code: %w", err)
		}
		buf[i] = alphabet[idx]
	}
	return string(buf), nil
}

// IsValidCode reports whether s has the shape of a generated code.
func IsValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func cryptoIndex(n int) (int, error) {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(num.Int64()), nil
}
