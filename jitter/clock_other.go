//go:build !linux

package jitter

import "time"

func monotonicNanos() int64 {
	return time.Since(epoch).Nanoseconds()
}
