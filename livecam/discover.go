package livecam

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DefaultWorldCamURL is the directory whose continent pages list cameras.
const DefaultWorldCamURL = "https://worldcam.eu/webcams/"

const browserUserAgent = "Mozilla/5.0"

// Discoverer lists candidate image URLs for a partition.
type Discoverer interface {
	Discover(ctx context.Context, partition string) ([]string, error)
}

// WorldCam discovers camera snapshots from the continent pages of a
// WorldCam-style directory.
type WorldCam struct {
	base   *url.URL
	client *http.Client
}

// NewWorldCam returns a discoverer rooted at baseURL. A nil client uses
// http.DefaultClient; the caller bounds requests through the context.
func NewWorldCam(baseURL string, client *http.Client) (*WorldCam, error) {
	if baseURL == "" {
		baseURL = DefaultWorldCamURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WorldCam{base: base, client: client}, nil
}

// Discover fetches the partition page and returns every img src or
// data-src that looks like a camera image, in document order.
func (w *WorldCam) Discover(ctx context.Context, partition string) ([]string, error) {
	page := w.base.JoinPath(partition)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return w.candidates(doc), nil
}

func (w *WorldCam) candidates(doc *html.Node) []string {
	var urls []string
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != "img" {
			continue
		}
		for _, a := range n.Attr {
			if a.Key != "src" && a.Key != "data-src" {
				continue
			}
			if u, ok := w.resolve(a.Val); ok {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

func (w *WorldCam) resolve(candidate string) (string, bool) {
	if candidate == "" || !strings.Contains(strings.ToLower(candidate), "cam") {
		return "", false
	}
	switch {
	case strings.HasPrefix(candidate, "http"):
		return candidate, true
	case strings.HasPrefix(candidate, "/"):
		ref, err := url.Parse(candidate)
		if err != nil {
			return "", false
		}
		return w.base.ResolveReference(ref).String(), true
	default:
		return "", false
	}
}
