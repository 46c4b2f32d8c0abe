package hash

import (
	"math/bits"
	"testing"
)

func TestWordsReferenceVectors(t *testing.T) {
	// Vectors from the byte-oriented MurmurHash3 reference implementation,
	// restricted to word-aligned inputs.
	tests := []struct {
		name  string
		words []uint32
		seed  uint32
		want  uint32
	}{
		{"empty seed 0", nil, 0, 0x00000000},
		{"empty seed 1", nil, 1, 0x514E28B7},
		{"one zero word", []uint32{0}, 0, 0x2362F9DE},
		{"abcd", []uint32{0x64636261}, 0, 0x43ED676A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words(tt.words, tt.seed)
			if got != tt.want {
				t.Errorf("Words() = 0x%08X, want 0x%08X", got, tt.want)
			}
		})
	}
}

func TestWordsDeterministic(t *testing.T) {
	words := []uint32{0xDEADBEEF, 0x00C0FFEE, 0x12345678, 0}

	a := Words(words, 42)
	b := Words(words, 42)
	if a != b {
		t.Errorf("same input hashed to 0x%08X and 0x%08X", a, b)
	}
}

func TestWordsSeedSensitivity(t *testing.T) {
	words := []uint32{1, 2, 3, 4, 5, 6, 7}

	if Words(words, 0) == Words(words, 1) {
		t.Error("seeds 0 and 1 produced identical hashes")
	}
}

func TestWordsSingleBitAvalanche(t *testing.T) {
	// Flipping any single bit of a 127-word input must change the hash.
	// A 32-bit hash can collide in principle, but not on this fixed input;
	// a collision here means the block mixing is broken.
	words := make([]uint32, 127)
	for i := range words {
		words[i] = uint32(i) * 0x9E3779B9
	}
	base := Words(words, 0)

	for w := 0; w < len(words); w += 13 {
		for bit := 0; bit < 32; bit++ {
			words[w] ^= 1 << bit
			flipped := Words(words, 0)
			words[w] ^= 1 << bit

			if flipped == base {
				t.Fatalf("flipping word %d bit %d did not change hash 0x%08X", w, bit, base)
			}
			// The finalizer should flip a substantial fraction of output bits.
			if d := bits.OnesCount32(flipped ^ base); d < 4 {
				t.Errorf("word %d bit %d: only %d output bits changed", w, bit, d)
			}
		}
	}
}

func TestWordsLengthSensitivity(t *testing.T) {
	// A trailing zero word must change the hash (length is folded in).
	a := Words([]uint32{7}, 0)
	b := Words([]uint32{7, 0}, 0)
	if a == b {
		t.Error("appending a zero word did not change the hash")
	}
}
