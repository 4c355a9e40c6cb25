// Package pseudorng provides the software randomness used across entropyd:
// strong bytes from crypto/rand for secret material, and a seedable
// Generator for reproducible shuffles and deterministic tests.
package pseudorng

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"io"

	xrand "golang.org/x/exp/rand"
)

// Detect for pseudorng always returns true, since software RNG is always available.
func Detect() (bool, error) { return true, nil }

// ReadBytes returns n bytes from crypto/rand.
func ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("n must be positive")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(crand.Reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBits returns bitCount strong random bits as bytes, MSB-first per byte.
// The final byte may be partially filled with zeros in the unused trailing bits.
func ReadBits(bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	buf, err := ReadBytes((bitCount + 7) / 8)
	if err != nil {
		return nil, err
	}
	return MaskTrailingBits(buf, bitCount), nil
}

// MaskTrailingBits zeroes the bits of the last byte beyond bitCount.
func MaskTrailingBits(buf []byte, bitCount int) []byte {
	extraBits := (8 - (bitCount % 8)) % 8
	if extraBits != 0 && len(buf) > 0 {
		buf[len(buf)-1] &= byte(0xFF << extraBits)
	}
	return buf
}

// Generator is a deterministic PRNG that can be seeded for reproducible
// streams. It implements io.Reader. Not safe for concurrent use.
type Generator struct {
	r *xrand.Rand
}

// NewGenerator creates a new pseudorandom generator. If seed is zero, a random
// seed is drawn from crypto/rand.
func NewGenerator(seed uint64) (*Generator, error) {
	if seed == 0 {
		var s [8]byte
		if _, err := crand.Read(s[:]); err != nil {
			return nil, err
		}
		seed = binary.LittleEndian.Uint64(s[:])
	}
	return &Generator{r: xrand.New(xrand.NewSource(seed))}, nil
}

// Read fills p with pseudorandom bytes. It never fails.
func (g *Generator) Read(p []byte) (int, error) {
	if g == nil || g.r == nil {
		return 0, errors.New("generator is nil")
	}
	return g.r.Read(p)
}

// Shuffle permutes n elements through swap.
func (g *Generator) Shuffle(n int, swap func(i, j int)) {
	g.r.Shuffle(n, swap)
}

// ReadBits reads bitCount bits from the deterministic generator.
func (g *Generator) ReadBits(bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	buf := make([]byte, (bitCount+7)/8)
	if _, err := g.Read(buf); err != nil {
		return nil, err
	}
	return MaskTrailingBits(buf, bitCount), nil
}
