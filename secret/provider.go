package secret

import (
	"context"

	"github.com/Thiagojm/entropyd/entropy"
)

// Provider supplies the source-derived part of the gathered entropy.
type Provider interface {
	// RotationEntropy feeds secret rotation.
	RotationEntropy(ctx context.Context) []byte
	// RequestEntropy feeds per-request output derivation.
	RequestEntropy(ctx context.Context) []byte
}

// RotationKinds are the source kinds mixed into a rotation.
var RotationKinds = []entropy.Kind{entropy.KindCPU, entropy.KindNetwork, entropy.KindHardware}

// PoolProvider draws entropy from an entropy.Pool.
type PoolProvider struct {
	Pool *entropy.Pool
}

// RotationEntropy collects the timing and hardware sources.
func (p PoolProvider) RotationEntropy(ctx context.Context) []byte {
	return p.Pool.CollectFrom(ctx, RotationKinds...)
}

// RequestEntropy is one image chunk, when available, followed by CPU jitter.
func (p PoolProvider) RequestEntropy(ctx context.Context) []byte {
	var out []byte
	if img, ok := p.Pool.Image(); ok {
		if b, err := img.Collect(ctx); err == nil {
			out = append(out, b...)
		}
	}
	return append(out, p.Pool.CollectFrom(ctx, entropy.KindCPU)...)
}
