package livecam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

const camPage = `<!doctype html>
<html><body>
  <img src="/img/logo.png">
  <img src="https://cdn.example.com/webcam/1.jpg" alt="one">
  <div><img data-src="/snapshots/CAM-2.jpg" src="data:image/gif;base64,R0lGOD"></div>
  <img src="relative/cam3.jpg">
  <img src="">
</body></html>`

func TestWorldCamDiscover(t *testing.T) {
	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(camPage))
	}))
	defer srv.Close()

	wc, err := NewWorldCam(srv.URL+"/webcams", srv.Client())
	if err != nil {
		t.Fatalf("new worldcam: %v", err)
	}
	urls, err := wc.Discover(context.Background(), "europe")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	if gotPath != "/webcams/europe" {
		t.Fatalf("expected continent page request, got %q", gotPath)
	}
	if gotAgent != browserUserAgent {
		t.Fatalf("expected browser user agent, got %q", gotAgent)
	}
	want := []string{
		"https://cdn.example.com/webcam/1.jpg",
		srv.URL + "/snapshots/CAM-2.jpg",
	}
	if !slices.Equal(urls, want) {
		t.Fatalf("unexpected candidates\n got %v\nwant %v", urls, want)
	}
}

func TestWorldCamDiscoverStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	wc, err := NewWorldCam(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new worldcam: %v", err)
	}
	if _, err := wc.Discover(context.Background(), "asia"); err == nil {
		t.Fatal("expected error for non-2xx page")
	}
}
