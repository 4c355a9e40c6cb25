package jitter

import (
	"context"

	"github.com/Thiagojm/entropyd/entropy"
)

const (
	DefaultCPUIterations = 8
	DefaultCPULoopCount  = 2000
)

// CPUName is the stable name of the CPU jitter source.
const CPUName = "cpu_timing_jitter"

var sink uint64

// CPU samples the time taken by a short fixed busy loop.
type CPU struct {
	iterations int
	loopCount  int
}

// NewCPU returns a CPU source. Non-positive arguments select the defaults.
func NewCPU(iterations, loopCount int) *CPU {
	if iterations <= 0 {
		iterations = DefaultCPUIterations
	}
	if loopCount <= 0 {
		loopCount = DefaultCPULoopCount
	}
	return &CPU{iterations: iterations, loopCount: loopCount}
}

func (c *CPU) Name() string       { return CPUName }
func (c *CPU) Kind() entropy.Kind { return entropy.KindCPU }

// Collect never fails; it only returns an error when ctx is already done.
func (c *CPU) Collect(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &entropy.CollectionError{Source: CPUName, Err: err}
	}
	buf := make([]byte, 0, 8*c.iterations)
	for range c.iterations {
		t1 := monotonicNanos()
		var acc uint64
		for i := range c.loopCount {
			acc += uint64(i)
		}
		sink = acc
		t2 := monotonicNanos()
		buf = appendElapsed(buf, t1, t2)
	}
	return buf, nil
}
