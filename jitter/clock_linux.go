//go:build linux

package jitter

import (
	"time"

	"golang.org/x/sys/unix"
)

// monotonicNanos reads CLOCK_MONOTONIC_RAW, which is not slewed by NTP and
// keeps the raw oscillator drift in the samples.
func monotonicNanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return time.Since(epoch).Nanoseconds()
	}
	return ts.Nano()
}
