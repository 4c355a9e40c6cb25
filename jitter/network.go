package jitter

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Thiagojm/entropyd/entropy"
)

const (
	DefaultNetworkIterations = 3
	DefaultNetworkTimeout    = 10 * time.Second
)

// NetworkName is the stable name of the network jitter source.
const NetworkName = "network_timing_jitter"

// DefaultProbeURLs are probed round-robin when no list is configured.
var DefaultProbeURLs = []string{
	"https://www.google.com",
	"https://www.cloudflare.com",
	"https://www.amazon.com",
	"https://www.microsoft.com",
	"https://www.github.com",
}

// Network samples HEAD request round-trip times. Failed requests still
// contribute the time it took them to fail.
type Network struct {
	urls       []string
	iterations int
	client     *http.Client
	next       atomic.Uint64
}

// NetworkOption configures a Network source.
type NetworkOption func(*Network)

// WithProbeURLs replaces the probed endpoints.
func WithProbeURLs(urls []string) NetworkOption {
	return func(n *Network) {
		if len(urls) > 0 {
			n.urls = urls
		}
	}
}

// WithIterations sets the number of probes per collection.
func WithIterations(iterations int) NetworkOption {
	return func(n *Network) {
		if iterations > 0 {
			n.iterations = iterations
		}
	}
}

// WithHTTPClient replaces the probing client.
func WithHTTPClient(client *http.Client) NetworkOption {
	return func(n *Network) {
		if client != nil {
			n.client = client
		}
	}
}

// NewNetwork returns a network jitter source.
func NewNetwork(opts ...NetworkOption) *Network {
	n := &Network{
		urls:       DefaultProbeURLs,
		iterations: DefaultNetworkIterations,
		client:     &http.Client{Timeout: DefaultNetworkTimeout},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Network) Name() string       { return NetworkName }
func (n *Network) Kind() entropy.Kind { return entropy.KindNetwork }

// Collect probes the next URL in round-robin order.
func (n *Network) Collect(ctx context.Context) ([]byte, error) {
	i := n.next.Add(1) - 1
	return n.CollectFrom(ctx, n.urls[i%uint64(len(n.urls))])
}

// CollectFrom probes url specifically.
func (n *Network) CollectFrom(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &entropy.CollectionError{Source: NetworkName, Err: err}
	}
	buf := make([]byte, 0, 8*n.iterations)
	for range n.iterations {
		t1 := monotonicNanos()
		n.probe(ctx, url)
		t2 := monotonicNanos()
		buf = appendElapsed(buf, t1, t2)
	}
	return buf, nil
}

func (n *Network) probe(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}
