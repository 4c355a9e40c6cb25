//go:build !cgo

package bbusb

import "context"

// DeviceSession is unavailable without cgo.
type DeviceSession struct{}

// OpenBitBabbler always fails without cgo.
func OpenBitBabbler(bitrate uint, latencyMs uint8) (*DeviceSession, error) {
	return nil, ErrUnsupported
}

func (s *DeviceSession) Close() {}

func (s *DeviceSession) ReadRandom(ctx context.Context, buf []byte) (int, error) {
	return 0, ErrUnsupported
}

// IsBitBabblerConnected always fails without cgo.
func IsBitBabblerConnected() (bool, []DeviceInfo, error) {
	return false, nil, ErrUnsupported
}
