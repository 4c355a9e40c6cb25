package region

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/Thiagojm/entropyd/pseudorng"
)

type identity struct{}

func (identity) Shuffle(int, func(i, j int)) {}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 0xFF})
		}
	}
	return img
}

func TestExtractCountUsesExclusiveBound(t *testing.T) {
	tests := []struct {
		w, h, size int
		want       int
	}{
		{w: 4, h: 4, size: 2, want: 1},
		{w: 5, h: 5, size: 2, want: 4},
		{w: 6, h: 4, size: 2, want: 2},
		{w: 2, h: 2, size: 2, want: 0},
		{w: 64, h: 48, size: 16, want: 3 * 2},
		{w: 65, h: 49, size: 16, want: 4 * 3},
	}
	for _, tc := range tests {
		got := Extract(solid(tc.w, tc.h), tc.size, identity{})
		if len(got) != tc.want {
			t.Fatalf("%dx%d size %d: expected %d regions, got %d", tc.w, tc.h, tc.size, tc.want, len(got))
		}
		for _, r := range got {
			if len(r) != Len(tc.size) {
				t.Fatalf("expected region length %d, got %d", Len(tc.size), len(r))
			}
		}
	}
}

func TestExtractRowMajorRGB(t *testing.T) {
	got := Extract(solid(5, 5), 2, identity{})
	want := Region{
		0, 0, 0, 1, 0, 1,
		0, 1, 1, 1, 1, 2,
	}
	if !bytes.Equal(got[0], want) {
		t.Fatalf("unexpected first region bytes\n got %v\nwant %v", got[0], want)
	}
	// second origin in scan order is (2,0)
	if got[1][0] != 2 || got[1][1] != 0 {
		t.Fatalf("expected second region to start at (2,0), got %v", got[1][:3])
	}
}

func TestExtractHonoursBoundsOffset(t *testing.T) {
	img := solid(10, 10).SubImage(image.Rect(2, 2, 7, 7))
	got := Extract(img, 2, identity{})
	if len(got) != 4 {
		t.Fatalf("expected 4 regions, got %d", len(got))
	}
	if got[0][0] != 2 || got[0][1] != 2 {
		t.Fatalf("expected first pixel (2,2), got %v", got[0][:3])
	}
}

func TestExtractShufflePreservesRegions(t *testing.T) {
	img := solid(33, 33)
	ordered := Extract(img, 4, identity{})
	g, err := pseudorng.NewGenerator(1)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	shuffled := Extract(img, 4, g)
	if len(ordered) != len(shuffled) {
		t.Fatalf("shuffle changed region count: %d vs %d", len(ordered), len(shuffled))
	}

	seen := make(map[string]int)
	for _, r := range ordered {
		seen[string(r)]++
	}
	for _, r := range shuffled {
		seen[string(r)]--
	}
	for k, v := range seen {
		if v != 0 {
			t.Fatalf("region multiset mismatch for %x: %d", k[:3], v)
		}
	}
}

func TestExtractRejectsBadInput(t *testing.T) {
	if got := Extract(nil, 2, nil); got != nil {
		t.Fatalf("expected nil for nil image, got %d regions", len(got))
	}
	if got := Extract(solid(8, 8), 0, nil); got != nil {
		t.Fatalf("expected nil for zero size, got %d regions", len(got))
	}
}
