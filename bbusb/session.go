//go:build cgo

package bbusb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// MPSSE opcodes.
const (
	mpsseNoClkDiv5        = 0x8A
	mpsseNoAdaptiveClk    = 0x97
	mpsseNo3PhaseClk      = 0x8D
	mpsseSetDataLow       = 0x80
	mpsseSetDataHigh      = 0x82
	mpsseSetClkDivisor    = 0x86
	mpsseNoLoopback       = 0x85
	mpsseSendImmediate    = 0x87
	mpsseDataByteInPosMSB = 0x20 // read bytes in, MSB first, sample on +ve edge
	mpsseBadCommand       = 0xFA
)

// FTDI SIO vendor requests and values.
const (
	ftdiReqReset       = 0x00
	ftdiReqSetFlowCtrl = 0x02
	ftdiReqSetEvent    = 0x06
	ftdiReqSetError    = 0x07
	ftdiReqSetLatency  = 0x09
	ftdiReqSetBitmode  = 0x0B

	ftdiResetSIO     = 0
	ftdiFlowRtsCts   = 0x0100
	ftdiBitmodeReset = 0x0000
	ftdiBitmodeMpsse = 0x0200
)

// DeviceSession is an open, MPSSE-initialized BitBabbler.
type DeviceSession struct {
	closers   []func() error
	dev       *gousb.Device
	inEp      *gousb.InEndpoint
	outEp     *gousb.OutEndpoint
	maxPacket int
}

// OpenBitBabbler opens the first BitBabbler and programs its clock.
// bitrate and latencyMs fall back to DefaultBitrate and DefaultLatencyMs
// when zero.
func OpenBitBabbler(bitrate uint, latencyMs uint8) (*DeviceSession, error) {
	if bitrate == 0 {
		bitrate = DefaultBitrate
	}
	if latencyMs == 0 {
		latencyMs = DefaultLatencyMs
	}

	s := &DeviceSession{}
	if err := s.claim(); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.initMPSSE(bitrate, latencyMs); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *DeviceSession) claim() error {
	ctx := gousb.NewContext()
	s.closers = append(s.closers, ctx.Close)

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(ftdiVendorID), gousb.ID(bbProductID))
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	if dev == nil {
		return ErrNotFound
	}
	s.dev = dev
	s.closers = append(s.closers, dev.Close)
	_ = dev.SetAutoDetach(true)

	cfg, err := dev.Config(1)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	s.closers = append(s.closers, cfg.Close)

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		return fmt.Errorf("interface: %w", err)
	}
	s.closers = append(s.closers, func() error { intf.Close(); return nil })

	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			if s.inEp, err = intf.InEndpoint(ep.Number); err != nil {
				return fmt.Errorf("in endpoint: %w", err)
			}
		case gousb.EndpointDirectionOut:
			if s.outEp, err = intf.OutEndpoint(ep.Number); err != nil {
				return fmt.Errorf("out endpoint: %w", err)
			}
		}
	}
	if s.inEp == nil || s.outEp == nil {
		return errors.New("bulk endpoints not found")
	}
	s.maxPacket = s.inEp.Desc.MaxPacketSize
	return nil
}

// initMPSSE follows the vendor initialization sequence.
func (s *DeviceSession) initMPSSE(bitrate uint, latencyMs uint8) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"reset", func() error { return s.control(ftdiReqReset, ftdiResetSIO) }},
		{"purge", s.purgeRead},
		{"event char", func() error { return s.control(ftdiReqSetEvent, 0) }},
		{"error char", func() error { return s.control(ftdiReqSetError, 0) }},
		{"latency", func() error { return s.control(ftdiReqSetLatency, uint16(latencyMs)) }},
		{"flow control", func() error { return s.controlIndex(ftdiReqSetFlowCtrl, 0, ftdiFlowRtsCts|1) }},
		{"bitmode reset", func() error { return s.control(ftdiReqSetBitmode, ftdiBitmodeReset) }},
		{"bitmode mpsse", func() error { return s.control(ftdiReqSetBitmode, ftdiBitmodeMpsse) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	time.Sleep(50 * time.Millisecond)

	// Bogus opcodes must be echoed back; retry once as the first exchange
	// after a bitmode change is sometimes lost.
	if !(s.echoes(0xAA) && s.echoes(0xAB)) && !(s.echoes(0xAA) && s.echoes(0xAB)) {
		return errors.New("MPSSE sync failed")
	}

	div := uint16(30_000_000/bitrate - 1)
	program := []byte{
		mpsseNoClkDiv5, mpsseNoAdaptiveClk, mpsseNo3PhaseClk,
		mpsseSetDataLow, 0x00, 0x0B, // CLK, DO, CS as outputs, driven low
		mpsseSetDataHigh, 0x00, 0x00,
		mpsseSetClkDivisor, byte(div), byte(div >> 8),
		mpsseNoLoopback,
	}
	if _, err := s.outEp.Write(program); err != nil {
		return fmt.Errorf("program clock: %w", err)
	}
	time.Sleep(30 * time.Millisecond)
	return s.purgeRead()
}

// Close releases USB resources in reverse acquisition order.
func (s *DeviceSession) Close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
	s.closers = nil
}

// ReadRandom fills buf from the device, stripping the FTDI status header of
// every packet. It stops early when ctx is done.
func (s *DeviceSession) ReadRandom(ctx context.Context, buf []byte) (int, error) {
	n := len(buf)
	if n == 0 {
		return 0, nil
	}
	cmd := []byte{mpsseDataByteInPosMSB, byte(n - 1), byte((n - 1) >> 8), mpsseSendImmediate}
	if _, err := s.outEp.Write(cmd); err != nil {
		return 0, err
	}

	got := 0
	tmp := make([]byte, roundUpToMaxPacket(n, s.maxPacket)+s.maxPacket)
	for got < n {
		if err := ctx.Err(); err != nil {
			return got, err
		}
		m, err := s.inEp.ReadContext(ctx, tmp)
		if err != nil {
			return got, err
		}
		got += unpackPackets(buf[got:], tmp[:m], s.maxPacket)
	}
	return got, nil
}

func (s *DeviceSession) control(req uint8, value uint16) error {
	return s.controlIndex(req, value, 1)
}

func (s *DeviceSession) controlIndex(req uint8, value, index uint16) error {
	rType := uint8(gousb.ControlOut) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)
	_, err := s.dev.Control(rType, req, value, index, nil)
	return err
}

func (s *DeviceSession) purgeRead() error {
	buf := make([]byte, 8192)
	for range 10 {
		n, _ := s.inEp.Read(buf)
		if n <= ftdiStatusLen {
			break
		}
	}
	return nil
}

func (s *DeviceSession) echoes(op byte) bool {
	if _, err := s.outEp.Write([]byte{op, mpsseSendImmediate}); err != nil {
		return false
	}
	buf := make([]byte, 512)
	for range 10 {
		n, _ := s.inEp.Read(buf)
		if n == 4 && buf[2] == mpsseBadCommand && buf[3] == op {
			return true
		}
	}
	return false
}
