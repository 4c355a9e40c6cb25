// Command entropyd serves mixed-entropy random numbers over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thiagojm/entropyd/bbusb"
	"github.com/Thiagojm/entropyd/config"
	"github.com/Thiagojm/entropyd/entropy"
	"github.com/Thiagojm/entropyd/jitter"
	"github.com/Thiagojm/entropyd/livecam"
	"github.com/Thiagojm/entropyd/secret"
	"github.com/Thiagojm/entropyd/server"
	"github.com/Thiagojm/entropyd/telemetry"
	"github.com/Thiagojm/entropyd/truerng"
)

const serviceName = "entropyd"

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("entropyd: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		config.Exitf("entropyd: telemetry: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	if err := run(ctx, cfg); err != nil {
		log.Printf("entropyd: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server) error {
	pool, err := buildPool(cfg)
	if err != nil {
		return err
	}

	log.Printf("starting entropy sources: %v", pool.Names())
	if img, ok := pool.Image(); ok {
		log.Printf("initializing live camera buffers (this may take a moment)")
		if err := img.Start(ctx); err != nil {
			return err
		}
		log.Printf("live camera ready with %d regions", img.Total())
	}

	secretCfg, err := cfg.SecretConfig()
	if err != nil {
		return err
	}
	engine, err := secret.New(secretCfg, secret.PoolProvider{Pool: pool})
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.Addr, engine, pool)
	if err != nil {
		return err
	}
	log.Printf("entropy sources ready, accepting requests")
	return srv.ListenAndServe(ctx)
}

func buildPool(cfg config.Server) (*entropy.Pool, error) {
	pool := entropy.NewPool(nil)

	if cfg.LiveCam {
		wc, err := livecam.NewWorldCam(cfg.WorldCamURL, nil)
		if err != nil {
			return nil, err
		}
		m, err := livecam.NewManager(cfg.LiveCamConfig(), livecam.WithDiscoverer(wc))
		if err != nil {
			return nil, err
		}
		pool.Add(livecam.NewSource(m))
	}

	pool.Add(jitter.NewCPU(0, 0))

	var netOpts []jitter.NetworkOption
	if len(cfg.ProbeURLs) > 0 {
		netOpts = append(netOpts, jitter.WithProbeURLs(cfg.ProbeURLs))
	}
	pool.Add(jitter.NewNetwork(netOpts...))

	if cfg.TrueRNG {
		if ok, _ := truerng.Detect(); !ok {
			log.Printf("TrueRNG enabled but not detected; it will contribute nothing until attached")
		}
		pool.Add(truerng.NewSource(cfg.HardwareBytes))
	}
	if cfg.BitBabbler {
		if ok, _, err := bbusb.IsBitBabblerConnected(); !ok {
			log.Printf("BitBabbler enabled but not available: %v", err)
		}
		pool.Add(bbusb.NewSource(cfg.HardwareBytes))
	}
	return pool, nil
}
