package livecam

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned by Collect when every partition was empty.
	ErrExhausted = errors.New("no image entropy available")
	// ErrNoCandidates is wrapped by DiscoveryError when a page lists no cameras.
	ErrNoCandidates = errors.New("no candidate images")
	// ErrNotReady is returned when the initial fill did not finish in time.
	ErrNotReady = errors.New("image buffers not ready")
)

// DiscoveryError reports that no candidate images could be found for a
// partition. The refill ends early and the partition stays under target.
type DiscoveryError struct {
	Partition string
	Err       error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Partition, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// FetchError reports that one candidate image could not be fetched or
// decoded. The refill moves on to the next candidate.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
