package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Thiagojm/entropyd/entropy"
)

type fixedGenerator float64

func (g fixedGenerator) Next(context.Context) float64 { return float64(g) }

type namedSource string

func (n namedSource) Name() string                            { return string(n) }
func (n namedSource) Kind() entropy.Kind                      { return entropy.KindCPU }
func (n namedSource) Collect(context.Context) ([]byte, error) { return []byte{1}, nil }

type imageSource struct{}

func (imageSource) Name() string                            { return "live_camera_images" }
func (imageSource) Kind() entropy.Kind                      { return entropy.KindImage }
func (imageSource) Collect(context.Context) ([]byte, error) { return nil, errors.New("empty") }
func (imageSource) Start(context.Context) error             { return nil }
func (imageSource) HasRegions() bool                        { return true }
func (imageSource) Refill()                                 {}
func (imageSource) Counts() map[string]int                  { return map[string]int{"europe": 3, "asia": 4} }
func (imageSource) Total() int                              { return 7 }
func (imageSource) Refilling() bool                         { return true }

func newTestServer(t *testing.T, pool *entropy.Pool, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	s, err := New("127.0.0.1:0", fixedGenerator(0.25), pool, opts...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func quietPool(sources ...entropy.Source) *entropy.Pool {
	p := entropy.NewPool(log.New(io.Discard, "", 0))
	for _, s := range sources {
		p.Add(s)
	}
	return p
}

func TestRNGEndpoint(t *testing.T) {
	s := newTestServer(t, quietPool())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rng", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for header, want := range map[string]string{
		"Cache-Control": "no-store, no-cache, must-revalidate, max-age=0",
		"Pragma":        "no-cache",
		"Expires":       "0",
		"Content-Type":  "application/json",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("%s = %q, want %q", header, got, want)
		}
	}
	var body map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["random"] != 0.25 {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRNGRejectsOtherMethods(t *testing.T) {
	s := newTestServer(t, quietPool())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rng", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthWithImageSource(t *testing.T) {
	pool := quietPool(imageSource{}, namedSource("cpu_timing_jitter"))
	s := newTestServer(t, pool, WithMemoryStat(func() (float64, error) { return 42.5, nil }))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("unexpected status %q", body.Status)
	}
	if len(body.EntropySources) != 2 || body.EntropySources[0] != "live_camera_images" || body.EntropySources[1] != "cpu_timing_jitter" {
		t.Fatalf("unexpected sources %v", body.EntropySources)
	}
	if body.LiveCamTotalRegions != 7 || body.LiveCamByContinent["asia"] != 4 || !body.LiveCamPrefetching {
		t.Fatalf("unexpected livecam fields %+v", body)
	}
	if body.MemoryUsedPercent == nil || *body.MemoryUsedPercent != 42.5 {
		t.Fatalf("unexpected memory %v", body.MemoryUsedPercent)
	}
}

func TestHealthWithoutImageSource(t *testing.T) {
	s := newTestServer(t, quietPool(namedSource("cpu_timing_jitter")),
		WithMemoryStat(func() (float64, error) { return 0, errors.New("unavailable") }))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["livecam_total_regions"]) != "0" {
		t.Fatalf("expected zero regions, got %s", raw["livecam_total_regions"])
	}
	if string(raw["livecam_by_continent"]) != "{}" {
		t.Fatalf("expected empty object, got %s", raw["livecam_by_continent"])
	}
	if string(raw["livecam_prefetching"]) != "false" {
		t.Fatalf("expected false, got %s", raw["livecam_prefetching"])
	}
	if _, ok := raw["memory_used_percent"]; ok {
		t.Fatal("expected memory to be omitted when unavailable")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(":0", nil, quietPool()); err == nil {
		t.Fatal("expected error without generator")
	}
	if _, err := New(":0", fixedGenerator(0), nil); err == nil {
		t.Fatal("expected error without pool")
	}
}

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	s, err := New(addr, fixedGenerator(0.5), quietPool(), WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/rng")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
