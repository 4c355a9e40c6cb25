package entropy

import (
	"context"
	"log"
	"slices"
	"sync"
)

// Pool aggregates heterogeneous sources. Sources are collected in the order
// they were added.
type Pool struct {
	mu      sync.RWMutex
	sources []Source
	image   ImageSource
	logger  *log.Logger
}

// NewPool returns an empty pool. A nil logger falls back to log.Default.
func NewPool(logger *log.Logger) *Pool {
	if logger == nil {
		logger = log.Default()
	}
	return &Pool{logger: logger}
}

// Add registers s. An image-kind source that implements ImageSource becomes
// the pool's distinguished image source.
func (p *Pool) Add(s Source) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = append(p.sources, s)
	if s.Kind() == KindImage {
		if img, ok := s.(ImageSource); ok {
			p.image = img
		}
	}
}

// Sources returns a snapshot of the registered sources.
func (p *Pool) Sources() []Source {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.sources)
}

// Names returns the source names in registration order.
func (p *Pool) Names() []string {
	sources := p.Sources()
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	return names
}

// Image returns the distinguished image source, if one was added.
func (p *Pool) Image() (ImageSource, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.image, p.image != nil
}

// CollectAll concatenates the output of every source. Failing sources
// contribute nothing.
func (p *Pool) CollectAll(ctx context.Context) []byte {
	return p.collect(ctx, p.Sources())
}

// CollectFrom is CollectAll restricted to the given kinds.
func (p *Pool) CollectFrom(ctx context.Context, kinds ...Kind) []byte {
	var selected []Source
	for _, s := range p.Sources() {
		if slices.Contains(kinds, s.Kind()) {
			selected = append(selected, s)
		}
	}
	return p.collect(ctx, selected)
}

// EnsureImageRegions asks the image source to refill when any of its
// partitions has run dry. It does not wait for the refill.
func (p *Pool) EnsureImageRegions() {
	img, ok := p.Image()
	if ok && !img.HasRegions() {
		img.Refill()
	}
}

func (p *Pool) collect(ctx context.Context, sources []Source) []byte {
	var out []byte
	for _, s := range sources {
		b, err := s.Collect(ctx)
		if err != nil {
			p.logger.Printf("[entropy] %s contributed nothing: %v", s.Name(), err)
			continue
		}
		out = append(out, b...)
	}
	return out
}
