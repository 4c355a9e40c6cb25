package truerng

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/Thiagojm/entropyd/entropy"
)

// DeviceNamePrefix identifies a TrueRNG port by product, serial number or
// port name.
const DeviceNamePrefix = "TrueRNG"

// SourceName is the stable name of the TrueRNG source.
const SourceName = "truerng_serial"

const (
	baudRate        = 3000000 // the OS clamps it when unsupported
	portReadTimeout = time.Second
	maxReadTime     = 10 * time.Second
)

// trueRNGVendor and trueRNGProducts are the ubld.it USB identifiers.
const trueRNGVendor = "16D0"

var trueRNGProducts = []string{"0AA0", "0AA2", "0AA4"}

// Detect returns true if a TrueRNG serial device is present on the system.
func Detect() (bool, error) {
	_, err := FindPort()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ErrNotFound is returned when no TrueRNG port is enumerated.
var ErrNotFound = errors.New("TrueRNG device not found")

// FindPort returns the first port name of a detected TrueRNG device, e.g.
// "/dev/ttyACM0" or "COM5".
func FindPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerating ports: %w", err)
	}
	for _, p := range ports {
		if isTrueRNG(p) && p.Name != "" {
			return p.Name, nil
		}
	}
	return "", ErrNotFound
}

// ReadBytes opens the TrueRNG port, raises DTR, flushes stale input and reads
// n bytes. It gives up after 10s or when ctx is done, whichever is first.
func ReadBytes(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("n must be positive")
	}
	portName, err := FindPort()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	defer func() { _ = port.Close() }()

	_ = port.SetDTR(true)
	_ = port.SetReadTimeout(portReadTimeout)
	_ = port.ResetInputBuffer()

	deadline := time.Now().Add(maxReadTime)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	buf := make([]byte, n)
	total := 0
	for total < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("read timeout: read %d/%d bytes", total, n)
		}
		m, err := port.Read(buf[total:])
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		total += m
		if m == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	return buf, nil
}

// Source reads a fixed block from the TrueRNG on every collection.
type Source struct {
	mu        sync.Mutex
	blockSize int
}

// NewSource returns a TrueRNG source reading blockSize bytes per collection.
func NewSource(blockSize int) *Source {
	if blockSize <= 0 {
		blockSize = 32
	}
	return &Source{blockSize: blockSize}
}

func (s *Source) Name() string       { return SourceName }
func (s *Source) Kind() entropy.Kind { return entropy.KindHardware }

// Collect reads one block. The port is opened per collection and concurrent
// collections are serialized.
func (s *Source) Collect(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := ReadBytes(ctx, s.blockSize)
	if err != nil {
		return nil, &entropy.CollectionError{Source: SourceName, Err: err}
	}
	return b, nil
}

func isTrueRNG(p *enumerator.PortDetails) bool {
	if p == nil {
		return false
	}
	if p.IsUSB && (strings.HasPrefix(p.Product, DeviceNamePrefix) || strings.HasPrefix(p.SerialNumber, DeviceNamePrefix)) {
		return true
	}
	if strings.HasPrefix(p.Name, DeviceNamePrefix) {
		return true
	}
	if strings.EqualFold(p.VID, trueRNGVendor) {
		for _, pid := range trueRNGProducts {
			if strings.EqualFold(p.PID, pid) {
				return true
			}
		}
	}
	return false
}
