package livecam

import (
	"errors"
	"time"
)

const (
	DefaultRegionSize      = 20
	DefaultFetchTimeout    = 15 * time.Second
	DefaultPrefetchWorkers = 6
	DefaultReadyWait       = 60 * time.Second

	// startupFactor bounds the initial fill at startupFactor × FetchTimeout.
	startupFactor = 5
)

// DefaultPartitions are the WorldCam continent pages buffered independently.
var DefaultPartitions = []string{
	"europe",
	"north-america",
	"south-america",
	"asia",
	"australia-oceania",
}

// Config holds the buffer tunables. All partitions share them.
type Config struct {
	Partitions   []string
	RegionSize   int
	TargetBuffer int
	LowWatermark int
	FetchTimeout time.Duration
	ReadyWait    time.Duration
	Workers      int
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		Partitions:   DefaultPartitions,
		RegionSize:   32,
		TargetBuffer: 50,
		LowWatermark: 25,
		FetchTimeout: DefaultFetchTimeout,
		ReadyWait:    DefaultReadyWait,
		Workers:      DefaultPrefetchWorkers,
	}
}

func (c Config) withDefaults() Config {
	if c.RegionSize <= 0 {
		c.RegionSize = DefaultRegionSize
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.ReadyWait <= 0 {
		c.ReadyWait = DefaultReadyWait
	}
	if c.Workers <= 0 {
		c.Workers = DefaultPrefetchWorkers
	}
	if len(c.Partitions) == 0 {
		c.Partitions = DefaultPartitions
	}
	return c
}

// Validate reports inconsistent tunables.
func (c Config) Validate() error {
	if c.TargetBuffer <= 0 {
		return errors.New("target buffer must be positive")
	}
	if c.LowWatermark < 0 || c.LowWatermark > c.TargetBuffer {
		return errors.New("low watermark must be between 0 and the target buffer")
	}
	if c.RegionSize < 0 {
		return errors.New("region size must not be negative")
	}
	return nil
}
