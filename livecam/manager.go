// Package livecam buffers image-derived entropy from live public cameras.
//
// Regions are kept in one FIFO per partition (a WorldCam continent). A
// bounded worker pool refills partitions asynchronously: a partition is
// refilled when its length drops below the low watermark, up to the target
// size, and never by more than one job at a time. The request path only pops
// from the queues; the single synchronous fetch is the initial fill
// performed by Start.
package livecam

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Thiagojm/entropyd/region"
)

const tracerName = "github.com/Thiagojm/entropyd/livecam"

// Manager owns the partitions, the worker pool and the refill policy.
type Manager struct {
	cfg        Config
	order      []string
	partitions map[string]*partition

	discoverer Discoverer
	fetcher    Fetcher
	pool       Submitter
	shuffle    region.Shuffler
	logger     *log.Logger
	tracer     trace.Tracer

	startOnce sync.Once
	started   atomic.Bool
	ready     chan struct{}
	startErr  error
}

// Option configures a Manager.
type Option func(*Manager)

// WithDiscoverer replaces the WorldCam discoverer.
func WithDiscoverer(d Discoverer) Option {
	return func(m *Manager) { m.discoverer = d }
}

// WithFetcher replaces the HTTP image fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithSubmitter replaces the worker pool.
func WithSubmitter(s Submitter) Option {
	return func(m *Manager) { m.pool = s }
}

// WithShuffler replaces the permutation source for regions and candidates.
// The shuffler is serialized internally, so it need not be concurrency safe.
func WithShuffler(s region.Shuffler) Option {
	return func(m *Manager) {
		if s != nil {
			m.shuffle = &lockedShuffler{s: s}
		}
	}
}

// WithLogger replaces the default "[livecam] " logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager builds a manager for cfg.Partitions. Nothing is fetched until
// Start or Collect is called.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:        cfg,
		partitions: make(map[string]*partition, len(cfg.Partitions)),
		shuffle:    region.DefaultShuffler,
		logger:     log.New(log.Writer(), "[livecam] ", log.LstdFlags),
		tracer:     otel.Tracer(tracerName),
		ready:      make(chan struct{}),
	}
	for _, name := range cfg.Partitions {
		if _, dup := m.partitions[name]; dup {
			continue
		}
		m.order = append(m.order, name)
		m.partitions[name] = &partition{name: name}
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.discoverer == nil {
		wc, err := NewWorldCam(DefaultWorldCamURL, nil)
		if err != nil {
			return nil, err
		}
		m.discoverer = wc
	}
	if m.fetcher == nil {
		m.fetcher = NewHTTPFetcher(nil)
	}
	if m.pool == nil {
		m.pool = NewPool(cfg.Workers)
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	return m, nil
}

// Partitions returns the partition keys in configuration order.
func (m *Manager) Partitions() []string {
	return append([]string(nil), m.order...)
}

// Start performs the initial fill of every partition concurrently and
// marks the manager ready. It waits at most 5×FetchTimeout; partitions that
// are still filling keep going in the background. Only the first call does
// any work; later calls return the first result.
func (m *Manager) Start(ctx context.Context) error {
	m.startOnce.Do(func() {
		m.started.Store(true)
		m.startErr = m.initialFill(ctx)
		close(m.ready)
	})
	return m.startErr
}

func (m *Manager) initialFill(ctx context.Context) error {
	m.logger.Printf("starting initial buffer fill for %d partitions", len(m.order))

	var wg sync.WaitGroup
	for _, name := range m.order {
		p := m.partitions[name]
		if !p.tryBeginRefill() {
			continue
		}
		wg.Add(1)
		job := m.refillJob(p)
		m.pool.Submit(func() {
			defer wg.Done()
			job()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	limit := startupFactor * m.cfg.FetchTimeout
	timer := time.NewTimer(limit)
	defer timer.Stop()

	var err error
	select {
	case <-done:
	case <-timer.C:
		m.logger.Printf("initial fill still running after %s, continuing", limit)
	case <-ctx.Done():
		err = fmt.Errorf("initial fill: %w", ctx.Err())
	}
	m.logger.Printf("initial buffer fill complete: %d total regions", m.Total())
	m.logger.Printf("per-partition: %v", m.Counts())
	return err
}

// Ready is closed once Start has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until Start has finished, at most Config.ReadyWait.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	default:
	}
	timer := time.NewTimer(m.cfg.ReadyWait)
	defer timer.Stop()
	select {
	case <-m.ready:
		return nil
	case <-timer.C:
		return ErrNotReady
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TakeOne pops the oldest region of partition without blocking and applies
// the refill policy to it.
func (m *Manager) TakeOne(partition string) (region.Region, bool) {
	p, ok := m.partitions[partition]
	if !ok {
		return nil, false
	}
	return m.take(p)
}

func (m *Manager) take(p *partition) (region.Region, bool) {
	r, ok, before := p.queue.pop()
	m.maybeRefill(p, before)
	return r, ok
}

// Collect returns one region from every partition that has one,
// concatenated in partition order. It starts the manager on first use and
// waits for readiness at most Config.ReadyWait. ErrExhausted means every
// partition was empty.
func (m *Manager) Collect(ctx context.Context) ([]byte, error) {
	if !m.started.Load() {
		if err := m.Start(ctx); err != nil {
			m.logger.Printf("start: %v", err)
		}
	}
	if err := m.WaitReady(ctx); err != nil {
		m.logger.Printf("collecting before ready: %v", err)
	}

	var out []byte
	used := 0
	for _, name := range m.order {
		if r, ok := m.take(m.partitions[name]); ok {
			out = append(out, r...)
			used++
		}
	}
	if used == 0 {
		m.logger.Printf("all buffers empty")
		return nil, ErrExhausted
	}
	return out, nil
}

// Refill applies the refill policy to every partition at its current length.
func (m *Manager) Refill() {
	for _, name := range m.order {
		p := m.partitions[name]
		m.maybeRefill(p, p.queue.len())
	}
}

// maybeRefill submits a refill job when observed is below the low watermark
// and no refill is in flight. It never blocks and reports whether a job was
// submitted.
func (m *Manager) maybeRefill(p *partition, observed int) bool {
	if observed >= m.cfg.LowWatermark {
		return false
	}
	if !p.tryBeginRefill() {
		return false
	}
	m.logger.Printf("[%s] buffer low (%d/%d), triggering async refill", p.name, observed, m.cfg.LowWatermark)
	m.pool.Submit(m.refillJob(p))
	return true
}

// refillJob wraps fill for a partition whose refilling flag is already set.
// The flag is cleared when the job returns, including on panic.
func (m *Manager) refillJob(p *partition) func() {
	return func() {
		defer p.endRefill()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Printf("[%s] refill panicked: %v", p.name, r)
			}
		}()
		m.fill(p)
	}
}

func (m *Manager) fill(p *partition) {
	ctx, span := m.tracer.Start(context.Background(), "livecam.refill",
		trace.WithAttributes(attribute.String("livecam.partition", p.name)))
	defer span.End()

	target := m.cfg.TargetBuffer
	current := p.queue.len()
	if current >= target {
		return
	}
	m.logger.Printf("[%s] filling buffer: %d -> %d (need ~%d regions)", p.name, current, target, target-current)

	urls, err := m.discover(ctx, p.name)
	if err != nil {
		m.logger.Printf("[%s] %v", p.name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")
		return
	}
	m.shuffle.Shuffle(len(urls), func(i, j int) { urls[i], urls[j] = urls[j], urls[i] })

	for _, u := range urls {
		if p.queue.len() >= target {
			break
		}
		n, err := m.fetchInto(ctx, p, u)
		if err != nil {
			m.logger.Printf("[%s] %v", p.name, err)
			continue
		}
		m.logger.Printf("[%s] %s -> %d regions (buffer: %d)", p.name, shorten(u, 45), n, p.queue.len())
	}
	span.SetAttributes(attribute.Int("livecam.buffer", p.queue.len()))
	m.logger.Printf("[%s] buffer fill complete: %d regions", p.name, p.queue.len())
}

func (m *Manager) discover(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
	defer cancel()
	urls, err := m.discoverer.Discover(ctx, name)
	if err != nil {
		return nil, &DiscoveryError{Partition: name, Err: err}
	}
	if len(urls) == 0 {
		return nil, &DiscoveryError{Partition: name, Err: ErrNoCandidates}
	}
	m.logger.Printf("[%s] discovered %d camera URLs", name, len(urls))
	return urls, nil
}

// fetchInto fetches one image and enqueues all of its regions.
func (m *Manager) fetchInto(ctx context.Context, p *partition, url string) (int, error) {
	ctx, span := m.tracer.Start(ctx, "livecam.fetch", trace.WithAttributes(attribute.String("url.full", url)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
	defer cancel()

	img, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		return 0, &FetchError{URL: url, Err: err}
	}
	regions := region.Extract(img, m.cfg.RegionSize, m.shuffle)
	p.queue.push(regions...)
	return len(regions), nil
}

// HasRegions reports whether every partition holds at least one region.
func (m *Manager) HasRegions() bool {
	for _, name := range m.order {
		if m.partitions[name].queue.len() == 0 {
			return false
		}
	}
	return true
}

// Counts returns the buffered region count per partition.
func (m *Manager) Counts() map[string]int {
	counts := make(map[string]int, len(m.order))
	for _, name := range m.order {
		counts[name] = m.partitions[name].queue.len()
	}
	return counts
}

// Total returns the buffered region count across all partitions.
func (m *Manager) Total() int {
	total := 0
	for _, name := range m.order {
		total += m.partitions[name].queue.len()
	}
	return total
}

// Refilling reports whether any partition has a refill in flight.
func (m *Manager) Refilling() bool {
	for _, name := range m.order {
		if m.partitions[name].isRefilling() {
			return true
		}
	}
	return false
}

type lockedShuffler struct {
	mu sync.Mutex
	s  region.Shuffler
}

func (l *lockedShuffler) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.s.Shuffle(n, swap)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
