package pseudorng

import (
	"bytes"
	"testing"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	a, err := NewGenerator(42)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	b, err := NewGenerator(42)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	bufA := make([]byte, 64)
	bufB := make([]byte, 64)
	if _, err := a.Read(bufA); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := b.Read(bufB); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(bufA, bufB) {
		t.Fatal("expected identical streams for identical seeds")
	}
}

func TestGeneratorShufflePermutes(t *testing.T) {
	g, err := NewGenerator(7)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	g.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	seen := make(map[int]bool)
	for _, v := range items {
		seen[v] = true
	}
	if len(seen) != 8 {
		t.Fatalf("shuffle lost elements: %v", items)
	}
}

func TestReadBitsMasksTrailingBits(t *testing.T) {
	tests := []struct {
		bits      int
		wantBytes int
		mask      byte
	}{
		{bits: 8, wantBytes: 1, mask: 0xFF},
		{bits: 12, wantBytes: 2, mask: 0xF0},
		{bits: 1, wantBytes: 1, mask: 0x80},
	}
	for _, tc := range tests {
		buf, err := ReadBits(tc.bits)
		if err != nil {
			t.Fatalf("ReadBits(%d): %v", tc.bits, err)
		}
		if len(buf) != tc.wantBytes {
			t.Fatalf("ReadBits(%d) returned %d bytes, want %d", tc.bits, len(buf), tc.wantBytes)
		}
		if last := buf[len(buf)-1]; last&^tc.mask != 0 {
			t.Fatalf("ReadBits(%d) left trailing bits set: %08b", tc.bits, last)
		}
	}
}

func TestReadBitsRejectsNonPositive(t *testing.T) {
	if _, err := ReadBits(0); err == nil {
		t.Fatal("expected error for zero bits")
	}
	if _, err := ReadBytes(-1); err == nil {
		t.Fatal("expected error for negative length")
	}
}
