// Package sampler collects fixed-size bit batches from an entropy device at
// a fixed interval and records them as raw bytes (.bin) and per-batch ones
// counts (.csv).
package sampler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/bits"
	"time"

	"github.com/Thiagojm/entropyd/pseudorng"
)

// CSVTimeLayout is the timestamp format of the .csv column.
const CSVTimeLayout = "20060102T15:04:05"

// ReadFunc returns one batch of exactly ceil(bits/8) bytes whose unused
// trailing bits are zero.
type ReadFunc func(ctx context.Context) ([]byte, error)

// Sample is one recorded batch.
type Sample struct {
	Index int
	Time  time.Time
	Ones  int
}

// Sampler writes batches from Read to Bin and CSV every Interval.
type Sampler struct {
	Bits     int
	Interval time.Duration
	Read     ReadFunc
	Bin      io.Writer
	CSV      io.Writer

	// OnSample, when set, is called after each batch is written.
	OnSample func(Sample)
	Logger   *log.Logger
	Now      func() time.Time
}

// Run collects until ctx is done or a read fails. It returns the number of
// batches written. Cancellation is not an error.
func (s *Sampler) Run(ctx context.Context) (int, error) {
	if s.Bits <= 0 {
		return 0, errors.New("bits must be > 0")
	}
	if s.Interval <= 0 {
		return 0, errors.New("interval must be > 0")
	}
	if s.Read == nil || s.Bin == nil || s.CSV == nil {
		return 0, errors.New("sampler needs a reader and both outputs")
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	bin := bufio.NewWriter(s.Bin)
	csv := bufio.NewWriter(s.CSV)
	defer bin.Flush()
	defer csv.Flush()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	written := 0
	for {
		if ctx.Err() != nil {
			return written, nil
		}
		batch, err := s.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return written, nil
			}
			logger.Printf("read error after %d batches: %v", written, err)
			return written, fmt.Errorf("read batch %d: %w", written+1, err)
		}
		ones := CountOnes(batch, s.Bits)
		ts := now()
		if _, err := bin.Write(batch); err != nil {
			return written, fmt.Errorf("write bin: %w", err)
		}
		if _, err := fmt.Fprintf(csv, "%s,%d\n", ts.Format(CSVTimeLayout), ones); err != nil {
			return written, fmt.Errorf("write csv: %w", err)
		}
		if err := bin.Flush(); err != nil {
			return written, fmt.Errorf("flush bin: %w", err)
		}
		if err := csv.Flush(); err != nil {
			return written, fmt.Errorf("flush csv: %w", err)
		}
		written++
		if s.OnSample != nil {
			s.OnSample(Sample{Index: written, Time: ts, Ones: ones})
		}

		select {
		case <-ctx.Done():
			return written, nil
		case <-ticker.C:
		}
	}
}

// CountOnes counts the set bits among the first bitCount bits of buf,
// MSB-first within each byte.
func CountOnes(buf []byte, bitCount int) int {
	if bitCount <= 0 || len(buf) == 0 {
		return 0
	}
	used := min((bitCount+7)/8, len(buf))
	total := 0
	for _, b := range buf[:used-1] {
		total += bits.OnesCount8(b)
	}
	lastBits := bitCount - (used-1)*8
	if lastBits > 8 {
		lastBits = 8
	}
	total += bits.OnesCount8(buf[used-1] & (byte(0xFF) << (8 - lastBits)))
	return total
}

// Pseudo reads batches from crypto/rand.
func Pseudo(bitCount int) ReadFunc {
	return func(context.Context) ([]byte, error) {
		return pseudorng.ReadBits(bitCount)
	}
}
