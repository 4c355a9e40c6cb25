package sampler

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/Thiagojm/entropyd/entropy"
	"github.com/Thiagojm/entropyd/pseudorng"
)

// FromSource fills each batch by collecting from src until enough bytes have
// been gathered.
func FromSource(src entropy.Source, bitCount int) ReadFunc {
	n := (bitCount + 7) / 8
	return func(ctx context.Context) ([]byte, error) {
		buf := make([]byte, 0, n)
		for len(buf) < n {
			b, err := src.Collect(ctx)
			if err != nil {
				return nil, err
			}
			if len(b) == 0 {
				return nil, fmt.Errorf("%s returned no data", src.Name())
			}
			buf = append(buf, b...)
		}
		return pseudorng.MaskTrailingBits(buf[:n], bitCount), nil
	}
}

type rngResponse struct {
	Random float64 `json:"random"`
}

// FromEndpoint fills each batch from an entropyd /rng endpoint. Every
// response contributes four bytes: uint32(random * 2^32), big-endian.
func FromEndpoint(client *http.Client, url string, bitCount int) ReadFunc {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	n := (bitCount + 7) / 8
	return func(ctx context.Context) ([]byte, error) {
		buf := make([]byte, 0, n+4)
		for len(buf) < n {
			v, err := fetchRandom(ctx, client, url)
			if err != nil {
				return nil, err
			}
			buf = binary.BigEndian.AppendUint32(buf, uint32(v*math.Exp2(32)))
		}
		return pseudorng.MaskTrailingBits(buf[:n], bitCount), nil
	}
}

func fetchRandom(ctx context.Context, client *http.Client, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	var body rngResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode %s: %w", url, err)
	}
	if body.Random < 0 || body.Random >= 1 {
		return 0, fmt.Errorf("value out of range: %v", body.Random)
	}
	return body.Random, nil
}
