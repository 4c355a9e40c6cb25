// Package entropy defines the entropy source contract shared by every
// collector in entropyd and the Pool that aggregates them.
//
// A Source produces a byte blob on demand. Collection failures are reported
// as *CollectionError and are never fatal: the Pool drops the failing source
// for that round and keeps going.
package entropy

import (
	"context"
	"fmt"
)

// Kind tags a Source with its variant so callers can filter without
// inspecting concrete types.
type Kind int

const (
	KindCPU Kind = iota + 1
	KindNetwork
	KindImage
	KindHardware
)

func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindNetwork:
		return "network"
	case KindImage:
		return "image"
	case KindHardware:
		return "hardware"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source is a single producer of entropy bytes.
type Source interface {
	// Name is a stable identifier reported by the health endpoint.
	Name() string
	Kind() Kind
	// Collect samples the source. Latency is source dependent and may
	// include real I/O.
	Collect(ctx context.Context) ([]byte, error)
}

// ImageSource is the buffered, image-backed source. The Pool keeps a
// distinguished reference to it for health reporting and explicit refills.
type ImageSource interface {
	Source
	Start(ctx context.Context) error
	HasRegions() bool
	Refill()
	Counts() map[string]int
	Total() int
	Refilling() bool
}

// CollectionError reports that one source failed to produce bytes.
type CollectionError struct {
	Source string
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect %s: %v", e.Source, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// Collectf builds a *CollectionError for source name.
func Collectf(name string, format string, args ...any) error {
	return &CollectionError{Source: name, Err: fmt.Errorf(format, args...)}
}
