package bbusb

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Thiagojm/entropyd/entropy"
)

func TestRoundUpToMaxPacket(t *testing.T) {
	tests := []struct{ n, max, want int }{
		{n: 32, max: 64, want: 64},
		{n: 64, max: 64, want: 64},
		{n: 65, max: 64, want: 128},
		{n: 10, max: 0, want: 10},
	}
	for _, tc := range tests {
		if got := roundUpToMaxPacket(tc.n, tc.max); got != tc.want {
			t.Fatalf("roundUpToMaxPacket(%d, %d) = %d, want %d", tc.n, tc.max, got, tc.want)
		}
	}
}

func TestUnpackPacketsStripsStatus(t *testing.T) {
	raw := []byte{
		0x31, 0x60, 1, 2, // packet one
		0x31, 0x60, 3, 4, // packet two
		0x31, 0x60, 5, // short trailing packet
	}
	dst := make([]byte, 8)
	n := unpackPackets(dst, raw, 4)
	if n != 5 {
		t.Fatalf("expected 5 payload bytes, got %d", n)
	}
	if !bytes.Equal(dst[:n], []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("unexpected payload %v", dst[:n])
	}
}

func TestUnpackPacketsStopsAtDestination(t *testing.T) {
	raw := []byte{0x31, 0x60, 1, 2, 0x31, 0x60, 3, 4}
	dst := make([]byte, 3)
	if n := unpackPackets(dst, raw, 4); n != 3 {
		t.Fatalf("expected 3 bytes copied, got %d", n)
	}
}

func TestUnpackPacketsStatusOnly(t *testing.T) {
	dst := make([]byte, 4)
	if n := unpackPackets(dst, []byte{0x31, 0x60}, 64); n != 0 {
		t.Fatalf("expected no payload, got %d", n)
	}
}

func TestSourceIdentity(t *testing.T) {
	s := NewSource(0)
	if s.Name() != SourceName {
		t.Fatalf("unexpected name %q", s.Name())
	}
	if s.Kind() != entropy.KindHardware {
		t.Fatalf("unexpected kind %v", s.Kind())
	}
	if s.blockSize != 32 {
		t.Fatalf("expected default block size 32, got %d", s.blockSize)
	}
}

func TestSourceOpenFailure(t *testing.T) {
	s := NewSource(16)
	s.open = func() (*DeviceSession, error) { return nil, ErrNotFound }

	_, err := s.Collect(context.Background())
	var ce *entropy.CollectionError
	if !errors.As(err, &ce) || ce.Source != SourceName {
		t.Fatalf("expected collection error from %s, got %v", SourceName, err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound to be wrapped, got %v", err)
	}
	if s.sess != nil {
		t.Fatal("expected no session to be kept")
	}
}
