package marker

import (
	"encoding/binary"
	"fmt"
)

// Marker page geometry.
const (
	// PageBytes is the size of the retained-memory marker page.
	PageBytes = 4096

	// PageWords is the page size in 32-bit words.
	PageWords = PageBytes / 4

	// SectorCount is the number of independently hashed sectors.
	SectorCount = 8

	// SectorWords is the number of words per sector.
	SectorWords = PageWords / SectorCount

	// SectorDataWords is the number of words covered by a sector's hash.
	// The final word of each sector stores the hash itself.
	SectorDataWords = SectorWords - 1
)

// Sector 0 metadata word indexes. These words replace entropy-derived
// filler; everything else in the page is pattern fill or a sector hash.
const (
	wordForced    = 0 // forced-suspend flag: 0 normal, 1 forced
	wordSeedLo    = 1 // build-seed word A
	wordSeedHi    = 2 // build-seed word B
	wordResumePID = 3 // id of the suspend/resume process to retarget
)

// fillPatterns are the four fill words selected by two-bit entropy slices.
// Any two differ in at least 16 of 32 bits, so a single flipped bit in
// retained RAM cannot turn one valid pattern into another.
var fillPatterns = [4]uint32{0x00000000, 0x55555555, 0xAAAAAAAA, 0xFFFFFFFF}

// SeedPair holds the two build-seed words identifying a firmware build.
// The suspend path stores the writing build's pair in the marker; the
// bootloader verifies against the pair read live from hardware.
type SeedPair struct {
	Lo uint32
	Hi uint32
}

// Page is the in-memory image of the retained marker page, one element per
// little-endian 32-bit word.
type Page [PageWords]uint32

// Zero erases the page. After erasure the page reads as "no resume pending".
func (p *Page) Zero() {
	for i := range p {
		p[i] = 0
	}
}

// IsZero reports whether the page is fully erased.
func (p *Page) IsZero() bool {
	for _, w := range p {
		if w != 0 {
			return false
		}
	}
	return true
}

// sector returns the word slice of sector i.
func (p *Page) sector(i int) []uint32 {
	return p[i*SectorWords : (i+1)*SectorWords]
}

// Bytes serializes the page to its 4096-byte retained-memory image,
// little-endian word order.
func (p *Page) Bytes() []byte {
	out := make([]byte, PageBytes)
	for i, w := range p {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// SetBytes loads the page from a 4096-byte retained-memory image.
func (p *Page) SetBytes(data []byte) error {
	if len(data) != PageBytes {
		return fmt.Errorf("marker page image is %d bytes, want %d", len(data), PageBytes)
	}
	for i := range p {
		p[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return nil
}
