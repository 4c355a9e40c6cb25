// Package secret holds the rotating mixing secret and derives outputs from
// it.
//
// The secret is a chain of keyed hashes: each rotation replaces the key with
// MAC(key, fresh entropy). Outputs are MAC(key, request entropy) reduced to
// a float in [0, 1). The key never leaves the Engine and is never persisted;
// a restart begins a new chain from a fresh seed.
package secret

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"sync"
	"time"
)

const (
	DefaultRotateEveryRequests = 100
	DefaultRotateEvery         = 30 * time.Second

	seedBytes   = 64
	saltBytes   = 32
	mantissaLen = 53
)

// Config holds the rotation thresholds and the keyed hash.
type Config struct {
	// RotateEveryRequests rotates when the request counter is a multiple of
	// it. Zero disables count based rotation.
	RotateEveryRequests uint64
	// RotateEvery rotates when the last rotation is older than this. Zero
	// disables time based rotation.
	RotateEvery time.Duration
	MAC         MAC
}

// DefaultConfig returns the production thresholds with HMAC-SHA256.
func DefaultConfig() Config {
	return Config{
		RotateEveryRequests: DefaultRotateEveryRequests,
		RotateEvery:         DefaultRotateEvery,
		MAC:                 HMACSHA256,
	}
}

// Engine serializes counter increments, rotation and derivation behind one
// mutex, so no two requests observe the same secret transition.
type Engine struct {
	mu           sync.Mutex
	key          []byte
	counter      uint64
	lastRotation time.Time

	cfg      Config
	provider Provider
	random   io.Reader
	now      func() time.Time
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom replaces crypto/rand as the strong random source.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) { e.random = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger replaces log.Default.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New seeds a fresh secret chain.
func New(cfg Config, provider Provider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, errors.New("entropy provider is required")
	}
	if cfg.MAC == nil {
		cfg.MAC = HMACSHA256
	}
	e := &Engine{
		cfg:      cfg,
		provider: provider,
		random:   rand.Reader,
		now:      time.Now,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	seed := make([]byte, seedBytes, seedBytes+8)
	if _, err := io.ReadFull(e.random, seed); err != nil {
		return nil, err
	}
	now := e.now()
	sum := sha256.Sum256(binary.BigEndian.AppendUint64(seed, uint64(now.UnixNano())))
	e.key = sum[:]
	e.lastRotation = now
	return e, nil
}

// ShouldRotate is the rotation predicate.
func ShouldRotate(counter, every uint64, elapsed, maxAge time.Duration) bool {
	if every > 0 && counter%every == 0 {
		return true
	}
	return maxAge > 0 && elapsed > maxAge
}

// Rotate derives the next secret in the chain.
func Rotate(mac MAC, key, entropy []byte) []byte {
	return mac(key, entropy)
}

// Derive maps MAC(key, entropy) to [0, 1). The first 8 bytes of the tag are
// read big-endian and scaled by 2⁻⁶⁴; only the top 53 bits are kept so the
// conversion to float64 cannot round up to 1.
func Derive(mac MAC, key, entropy []byte) float64 {
	tag := mac(key, entropy)
	v := binary.BigEndian.Uint64(tag[:8])
	return float64(v>>(64-mantissaLen)) / (1 << mantissaLen)
}

// Next advances the counter, rotates the secret when due and derives one
// output from fresh request entropy under the current secret.
func (e *Engine) Next(ctx context.Context) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.counter++
	if ShouldRotate(e.counter, e.cfg.RotateEveryRequests, e.now().Sub(e.lastRotation), e.cfg.RotateEvery) {
		e.rotate(ctx)
	}

	msg := e.provider.RequestEntropy(ctx)
	msg = e.appendSalt(msg)
	return Derive(e.cfg.MAC, e.key, msg)
}

// Counter returns the number of outputs derived so far.
func (e *Engine) Counter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counter
}

// LastRotation returns when the secret was last rotated or seeded.
func (e *Engine) LastRotation() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRotation
}

// rotate must be called with mu held.
func (e *Engine) rotate(ctx context.Context) {
	msg := e.randomBytes(nil)
	msg = append(msg, e.provider.RotationEntropy(ctx)...)
	msg = binary.BigEndian.AppendUint64(msg, e.counter)
	msg = binary.BigEndian.AppendUint64(msg, uint64(e.now().UnixNano()))

	e.key = Rotate(e.cfg.MAC, e.key, msg)
	e.lastRotation = e.now()
}

// appendSalt appends strong random bytes, the counter and a timestamp.
func (e *Engine) appendSalt(msg []byte) []byte {
	msg = e.randomBytes(msg)
	msg = binary.BigEndian.AppendUint64(msg, e.counter)
	return binary.BigEndian.AppendUint64(msg, uint64(e.now().UnixNano()))
}

func (e *Engine) randomBytes(dst []byte) []byte {
	buf := make([]byte, saltBytes)
	if _, err := io.ReadFull(e.random, buf); err != nil {
		e.logger.Printf("[secret] random source failed, continuing without it: %v", err)
		return dst
	}
	return append(dst, buf...)
}
