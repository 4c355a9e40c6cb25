// Package naming builds and parses the file names used for collected
// samples:
//
//	YYYYMMDDTHHMMSS_{device}_s{bits}_i{interval}.{bin|csv}
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Device identifies the source a sample file was collected from.
type Device string

const (
	DevicePseudo     Device = "pseudo"
	DeviceTrueRNG    Device = "trng"
	DeviceBitBabbler Device = "bitb"
	DeviceCPU        Device = "cpu"
	// DeviceEndpoint is a running entropyd /rng endpoint.
	DeviceEndpoint Device = "rng"
)

// Devices lists every accepted device in display order.
var Devices = []Device{DevicePseudo, DeviceTrueRNG, DeviceBitBabbler, DeviceCPU, DeviceEndpoint}

const stampLayout = "20060102T150405"

var (
	intervalRe = regexp.MustCompile(`_i(\d+)`)
	bitsRe     = regexp.MustCompile(`_s(\d+)_i`)
)

// ParseDevice returns the Device named s.
func ParseDevice(s string) (Device, error) {
	d := Device(s)
	return d, d.Validate()
}

// Validate checks whether d is one of Devices.
func (d Device) Validate() error {
	for _, known := range Devices {
		if d == known {
			return nil
		}
	}
	names := make([]string, len(Devices))
	for i, known := range Devices {
		names[i] = string(known)
	}
	return fmt.Errorf("invalid device: %q (allowed: %s)", string(d), strings.Join(names, ", "))
}

// BaseName returns the file name without extension for a collection started
// at now.
func BaseName(now time.Time, device Device, bits, intervalSeconds int) (string, error) {
	if err := device.Validate(); err != nil {
		return "", err
	}
	if bits <= 0 {
		return "", errors.New("bits must be > 0")
	}
	if intervalSeconds <= 0 {
		return "", errors.New("interval must be > 0")
	}
	return fmt.Sprintf("%s_%s_s%d_i%d", now.Format(stampLayout), device, bits, intervalSeconds), nil
}

// Paths returns the .bin and .csv paths inside dir. dir may be empty.
func Paths(dir string, now time.Time, device Device, bits, intervalSeconds int) (binPath, csvPath string, err error) {
	base, err := BaseName(now, device, bits, intervalSeconds)
	if err != nil {
		return "", "", err
	}
	if dir != "" {
		base = filepath.Join(dir, base)
	}
	return base + ".bin", base + ".csv", nil
}

// Interval extracts the collection interval in seconds from a sample path.
func Interval(path string) (int, error) {
	return match(intervalRe, path, "interval")
}

// Bits extracts the sample size in bits from a sample path.
func Bits(path string) (int, error) {
	return match(bitsRe, path, "bit count")
}

func match(re *regexp.Regexp, path, what string) (int, error) {
	m := re.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0, fmt.Errorf("%s not found in file name: %s", what, filepath.Base(path))
	}
	return strconv.Atoi(m[1])
}
