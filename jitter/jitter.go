// Package jitter implements the timing based entropy sources: CPU busy-loop
// jitter and network round-trip jitter. Both sample a fixed number of
// intervals and append each one as 8 big-endian bytes.
package jitter

import (
	"encoding/binary"
	"time"
)

var epoch = time.Now()

func appendElapsed(buf []byte, start, end int64) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(end-start))
}
