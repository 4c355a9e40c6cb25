// Package bbusb drives a BitBabbler hardware noise generator through its
// FTDI MPSSE interface over libusb, and wraps it as an entropy source.
//
// Device access requires cgo and libusb-1.0. Builds without cgo compile a
// stub whose operations return ErrUnsupported.
package bbusb

import "errors"

// BitBabbler USB identifiers.
const (
	ftdiVendorID = 0x0403
	bbProductID  = 0x7840
)

// Defaults used when OpenBitBabbler receives zero values.
const (
	DefaultBitrate   = 2_500_000
	DefaultLatencyMs = 1
)

// ErrUnsupported is returned by builds without libusb support.
var ErrUnsupported = errors.New("bitbabbler support requires cgo and libusb")

// ErrNotFound is returned when no BitBabbler is attached.
var ErrNotFound = errors.New("BitBabbler device not found")

// DeviceInfo describes a detected BitBabbler. Fields may be empty when the
// device does not report them.
type DeviceInfo struct {
	// DevicePath is "usb:<bus>:<address>".
	DevicePath   string
	FriendlyName string
	SerialNumber string
}
