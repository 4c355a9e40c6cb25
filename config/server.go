package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Thiagojm/entropyd/livecam"
	"github.com/Thiagojm/entropyd/secret"
)

// Server is the entropyd service configuration.
type Server struct {
	Addr string `env:"ENTROPYD_ADDR" envDefault:":8000"`

	LiveCam         bool          `env:"ENTROPYD_LIVECAM" envDefault:"true"`
	Partitions      []string      `env:"ENTROPYD_PARTITIONS" envSeparator:"," envDefault:"europe,north-america,south-america,asia,australia-oceania"`
	WorldCamURL     string        `env:"ENTROPYD_WORLDCAM_URL" envDefault:"https://worldcam.eu/webcams/"`
	RegionSize      int           `env:"ENTROPYD_REGION_SIZE" envDefault:"32"`
	TargetBuffer    int           `env:"ENTROPYD_TARGET_BUFFER" envDefault:"50"`
	LowWatermark    int           `env:"ENTROPYD_LOW_WATERMARK" envDefault:"25"`
	FetchTimeout    time.Duration `env:"ENTROPYD_FETCH_TIMEOUT" envDefault:"15s"`
	PrefetchWorkers int           `env:"ENTROPYD_PREFETCH_WORKERS" envDefault:"6"`
	ReadyWait       time.Duration `env:"ENTROPYD_READY_WAIT" envDefault:"60s"`

	// ProbeURLs replaces the network jitter probe list when set.
	ProbeURLs []string `env:"ENTROPYD_PROBE_URLS" envSeparator:","`

	RotateEveryRequests uint64        `env:"ENTROPYD_ROTATE_EVERY_REQUESTS" envDefault:"100"`
	RotateEvery         time.Duration `env:"ENTROPYD_ROTATE_EVERY" envDefault:"30s"`
	MAC                 string        `env:"ENTROPYD_MAC" envDefault:"hmac-sha256"`

	TrueRNG       bool `env:"ENTROPYD_TRUERNG"`
	BitBabbler    bool `env:"ENTROPYD_BITBABBLER"`
	HardwareBytes int  `env:"ENTROPYD_HARDWARE_BYTES" envDefault:"32"`

	OTelEndpoint string `env:"ENTROPYD_OTEL_ENDPOINT"`
}

// Load reads the environment, then applies flags from args, then validates.
func Load(fs *flag.FlagSet, args []string) (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if fs == nil {
		return cfg, errors.New("flag parser is required")
	}
	cfg.BindFlags(fs)
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// BindFlags registers flags for the most commonly overridden settings, using
// the current values as defaults.
func (c *Server) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.BoolVar(&c.LiveCam, "livecam", c.LiveCam, "buffer live camera image entropy")
	fs.IntVar(&c.PrefetchWorkers, "workers", c.PrefetchWorkers, "concurrent refill jobs")
	fs.StringVar(&c.MAC, "mac", c.MAC, "keyed hash: hmac-sha256 or blake2b")
	fs.BoolVar(&c.TrueRNG, "truerng", c.TrueRNG, "mix in a TrueRNG serial device")
	fs.BoolVar(&c.BitBabbler, "bitbabbler", c.BitBabbler, "mix in a BitBabbler USB device")
}

// Validate reports inconsistent settings.
func (c Server) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.RegionSize <= 0 {
		return errors.New("region size must be positive")
	}
	if c.PrefetchWorkers <= 0 {
		return errors.New("prefetch workers must be positive")
	}
	if c.HardwareBytes <= 0 {
		return errors.New("hardware bytes must be positive")
	}
	if c.LiveCam && len(c.Partitions) == 0 {
		return errors.New("at least one partition is required")
	}
	if err := c.LiveCamConfig().Validate(); err != nil {
		return err
	}
	if _, err := secret.MACByName(c.MAC); err != nil {
		return err
	}
	if c.RotateEvery < 0 {
		return fmt.Errorf("rotate every must not be negative: %s", c.RotateEvery)
	}
	return nil
}

// LiveCamConfig returns the buffer tunables.
func (c Server) LiveCamConfig() livecam.Config {
	return livecam.Config{
		Partitions:   c.Partitions,
		RegionSize:   c.RegionSize,
		TargetBuffer: c.TargetBuffer,
		LowWatermark: c.LowWatermark,
		FetchTimeout: c.FetchTimeout,
		ReadyWait:    c.ReadyWait,
		Workers:      c.PrefetchWorkers,
	}
}

// SecretConfig returns the rotation settings.
func (c Server) SecretConfig() (secret.Config, error) {
	mac, err := secret.MACByName(c.MAC)
	if err != nil {
		return secret.Config{}, err
	}
	return secret.Config{
		RotateEveryRequests: c.RotateEveryRequests,
		RotateEvery:         c.RotateEvery,
		MAC:                 mac,
	}, nil
}
