package bbusb

import (
	"context"
	"sync"
	"time"

	"github.com/Thiagojm/entropyd/entropy"
)

// SourceName is the stable name of the BitBabbler source.
const SourceName = "bitbabbler_usb"

const readTimeout = 3 * time.Second

// Source reads a fixed block from a BitBabbler on every collection. The
// device session is opened on first use and reopened after a failed read.
type Source struct {
	mu        sync.Mutex
	sess      *DeviceSession
	blockSize int
	open      func() (*DeviceSession, error)
}

// NewSource returns a BitBabbler source reading blockSize bytes per
// collection.
func NewSource(blockSize int) *Source {
	if blockSize <= 0 {
		blockSize = 32
	}
	return &Source{
		blockSize: blockSize,
		open:      func() (*DeviceSession, error) { return OpenBitBabbler(0, 0) },
	}
}

func (s *Source) Name() string       { return SourceName }
func (s *Source) Kind() entropy.Kind { return entropy.KindHardware }

// Collect reads one block, bounded by a 3s timeout.
func (s *Source) Collect(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		sess, err := s.open()
		if err != nil {
			return nil, &entropy.CollectionError{Source: SourceName, Err: err}
		}
		s.sess = sess
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	buf := make([]byte, s.blockSize)
	n, err := s.sess.ReadRandom(ctx, buf)
	if err != nil {
		s.sess.Close()
		s.sess = nil
		return nil, &entropy.CollectionError{Source: SourceName, Err: err}
	}
	return buf[:n], nil
}

// Close releases the device session, if any.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil {
		s.sess.Close()
		s.sess = nil
	}
}
