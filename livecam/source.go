package livecam

import (
	"context"

	"github.com/Thiagojm/entropyd/entropy"
)

// SourceName is the stable name of the image source.
const SourceName = "live_camera_images"

// Source exposes a Manager as an entropy.ImageSource.
type Source struct {
	*Manager
}

var _ entropy.ImageSource = (*Source)(nil)

// NewSource wraps m.
func NewSource(m *Manager) *Source {
	return &Source{Manager: m}
}

func (s *Source) Name() string       { return SourceName }
func (s *Source) Kind() entropy.Kind { return entropy.KindImage }

// Collect returns one region per non-empty partition.
func (s *Source) Collect(ctx context.Context) ([]byte, error) {
	b, err := s.Manager.Collect(ctx)
	if err != nil {
		return nil, &entropy.CollectionError{Source: SourceName, Err: err}
	}
	return b, nil
}
