// Package region slices decoded images into fixed-size blocks of raw RGB
// bytes. A Region is the atomic unit of image-derived entropy.
package region

import (
	"image"
	"math/rand/v2"
)

// Region is the RGB bytes of one size×size pixel block in row-major order.
// Regions are never modified after Extract returns them.
type Region []byte

// Len returns the byte length of a region cut with the given block size.
func Len(size int) int {
	return size * size * 3
}

// Shuffler permutes n elements through swap. *pseudorng.Generator and
// *rand.Rand both satisfy it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultShuffler uses the runtime-seeded math/rand/v2 generator.
var DefaultShuffler Shuffler = globalShuffler{}

// Extract cuts img into size×size regions and returns them in a random
// order. Origins run over multiples of size strictly below width-size (and
// height-size), so partial blocks are dropped and so is a full block flush
// against the far edge: a 4×4 image with size 2 yields one region.
func Extract(img image.Image, size int, shuffle Shuffler) []Region {
	if img == nil || size <= 0 {
		return nil
	}
	if shuffle == nil {
		shuffle = DefaultShuffler
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	var regions []Region
	for y := 0; y < height-size; y += size {
		for x := 0; x < width-size; x += size {
			regions = append(regions, block(img, b.Min.X+x, b.Min.Y+y, size))
		}
	}
	shuffle.Shuffle(len(regions), func(i, j int) {
		regions[i], regions[j] = regions[j], regions[i]
	})
	return regions
}

func block(img image.Image, x0, y0, size int) Region {
	buf := make(Region, 0, Len(size))
	for dy := range size {
		for dx := range size {
			r, g, b, _ := img.At(x0+dx, y0+dy).RGBA()
			buf = append(buf, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return buf
}
