// Command collect records fixed-size bit batches from an entropy device at
// a fixed interval into .bin and .csv files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/Thiagojm/entropyd/bbusb"
	"github.com/Thiagojm/entropyd/jitter"
	"github.com/Thiagojm/entropyd/naming"
	"github.com/Thiagojm/entropyd/sampler"
	"github.com/Thiagojm/entropyd/truerng"
)

func main() {
	bitsFlag := flag.Int("bits", 2048, "number of bits per batch (> 0)")
	intervalSec := flag.Int("interval", 1, "seconds between batches (> 0)")
	deviceFlag := flag.String("device", "pseudo", "device to read from: pseudo|trng|bitb|cpu|rng")
	outDir := flag.String("outdir", "data", "output directory for files")
	endpoint := flag.String("url", "http://127.0.0.1:8000/rng", "entropyd endpoint for -device rng")
	flag.Parse()

	dev, err := naming.ParseDevice(*deviceFlag)
	if err != nil {
		log.Fatal(err)
	}
	if *bitsFlag <= 0 || *intervalSec <= 0 {
		log.Fatal("-bits and -interval must be > 0")
	}

	read, closeDev, err := reader(dev, *bitsFlag, *endpoint)
	if err != nil {
		log.Fatalf("%s: %v", dev, err)
	}
	defer closeDev()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("creating outdir: %v", err)
	}
	binPath, csvPath, err := naming.Paths(*outDir, time.Now(), dev, *bitsFlag, *intervalSec)
	if err != nil {
		log.Fatalf("build filenames: %v", err)
	}
	binFile, err := os.Create(binPath)
	if err != nil {
		log.Fatalf("open bin file: %v", err)
	}
	defer binFile.Close()
	csvFile, err := os.Create(csvPath)
	if err != nil {
		log.Fatalf("open csv file: %v", err)
	}
	defer csvFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := &sampler.Sampler{
		Bits:     *bitsFlag,
		Interval: time.Duration(*intervalSec) * time.Second,
		Read:     read,
		Bin:      binFile,
		CSV:      csvFile,
		OnSample: func(smp sampler.Sample) {
			fmt.Printf("sample %d: ones=%d/%d at %s\n", smp.Index, smp.Ones, *bitsFlag, smp.Time.Format(sampler.CSVTimeLayout))
		},
	}
	log.Printf("collecting %d bits every %ds from %s into %s", *bitsFlag, *intervalSec, dev, binPath)
	n, err := s.Run(ctx)
	log.Printf("wrote %d batches", n)
	if err != nil {
		log.Printf("stopped: %v", err)
	}
}

func reader(dev naming.Device, bits int, endpoint string) (sampler.ReadFunc, func(), error) {
	nop := func() {}
	switch dev {
	case naming.DeviceTrueRNG:
		port, err := truerng.FindPort()
		if err != nil {
			return nil, nop, err
		}
		log.Printf("using TrueRNG on %s", port)
		return sampler.FromSource(truerng.NewSource((bits+7)/8), bits), nop, nil
	case naming.DeviceBitBabbler:
		ok, devices, err := bbusb.IsBitBabblerConnected()
		if err != nil {
			return nil, nop, err
		}
		if !ok {
			return nil, nop, bbusb.ErrNotFound
		}
		if devices[0].FriendlyName != "" {
			log.Printf("using BitBabbler: %s", devices[0].FriendlyName)
		}
		src := bbusb.NewSource((bits + 7) / 8)
		return sampler.FromSource(src, bits), src.Close, nil
	case naming.DeviceCPU:
		return sampler.FromSource(jitter.NewCPU(0, 0), bits), nop, nil
	case naming.DeviceEndpoint:
		return sampler.FromEndpoint(nil, endpoint, bits), nop, nil
	default:
		return sampler.Pseudo(bits), nop, nil
	}
}
