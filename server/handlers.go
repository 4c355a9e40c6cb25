package server

import (
	"encoding/json"
	"net/http"

	"github.com/shirou/gopsutil/mem"
	"go.opentelemetry.io/otel/attribute"
)

type rngResponse struct {
	Random float64 `json:"random"`
}

type healthResponse struct {
	Status              string         `json:"status"`
	EntropySources      []string       `json:"entropy_sources"`
	LiveCamTotalRegions int            `json:"livecam_total_regions"`
	LiveCamByContinent  map[string]int `json:"livecam_by_continent"`
	LiveCamPrefetching  bool           `json:"livecam_prefetching"`
	MemoryUsedPercent   *float64       `json:"memory_used_percent,omitempty"`
}

func (s *Server) handleRNG(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "GET /rng")
	defer span.End()

	v := s.gen.Next(ctx)

	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	s.writeJSON(w, rngResponse{Random: v})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "GET /health")
	defer span.End()

	resp := healthResponse{
		Status:             "ok",
		EntropySources:     s.pool.Names(),
		LiveCamByContinent: map[string]int{},
	}
	if img, ok := s.pool.Image(); ok {
		resp.LiveCamTotalRegions = img.Total()
		resp.LiveCamByContinent = img.Counts()
		resp.LiveCamPrefetching = img.Refilling()
	}
	if s.memory != nil {
		if pct, err := s.memory(); err == nil {
			resp.MemoryUsedPercent = &pct
		}
	}
	span.SetAttributes(attribute.Int("livecam.total_regions", resp.LiveCamTotalRegions))
	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func usedMemoryPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
