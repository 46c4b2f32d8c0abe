// Package hash implements the 32-bit mixing hash used to integrity-mark
// the clean-suspend page in retained memory.
//
// The algorithm is MurmurHash3 (32-bit variant) restricted to word-aligned
// input: the unit of hashing is a little-endian 32-bit word, so there is no
// tail-byte handling. It is a mixing hash, not a MAC; it detects corruption
// and build mismatches, not deliberate forgery by an attacker who can read
// the page.
package hash

import "math/bits"

// MurmurHash3 32-bit mixing constants.
const (
	c1 = 0xcc9e2d51
	c2 = 0x1b873593

	finalizeXOR1 = 0x85ebca6b
	finalizeXOR2 = 0xc2b2ae35
)

// Words computes the 32-bit hash of a word array with the given seed.
//
// Each input word is one MurmurHash3 block (the word value is the
// little-endian interpretation of four input bytes). The length folded in
// before finalization is the byte length, 4*len(words), matching the
// byte-oriented reference implementation on word-aligned input.
func Words(words []uint32, seed uint32) uint32 {
	h := seed

	for _, k := range words {
		k *= c1
		k = bits.RotateLeft32(k, 15)
		k *= c2

		h ^= k
		h = bits.RotateLeft32(h, 13)
		h = h*5 + 0xe6546b64
	}

	h ^= uint32(len(words) * 4)

	// Finalization mix: force avalanche of the final 32 bits.
	h ^= h >> 16
	h *= finalizeXOR1
	h ^= h >> 13
	h *= finalizeXOR2
	h ^= h >> 16

	return h
}
