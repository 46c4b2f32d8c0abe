package marker

import "github.com/haven-os/susres-go/pkg/hash"

// Write populates the marker page for an orderly suspend. It is called by
// the hardware-suspend path immediately before power removal, after every
// subscriber has quiesced (or, on the forced path, after the orchestrator
// has deliberately given up waiting).
//
// entropy supplies one word per sector. Each word's sixteen two-bit slices
// select fill patterns for the sector's 127 data words (slices repeat every
// 16 words). Sector 0's first four words are metadata rather than fill, and
// the sector hashes are computed after the metadata is in place so that a
// clean round trip through Verify succeeds.
func Write(p *Page, entropy [SectorCount]uint32, forced bool, seeds SeedPair, resumePID uint32) {
	for i := 0; i < SectorCount; i++ {
		sec := p.sector(i)
		for j := 0; j < SectorDataWords; j++ {
			slice := (entropy[i] >> (2 * (j % 16))) & 3
			sec[j] = fillPatterns[slice]
		}
	}

	if forced {
		p[wordForced] = 1
	} else {
		p[wordForced] = 0
	}
	p[wordSeedLo] = seeds.Lo
	p[wordSeedHi] = seeds.Hi
	p[wordResumePID] = resumePID

	for i := 0; i < SectorCount; i++ {
		sec := p.sector(i)
		sec[SectorDataWords] = hash.Words(sec[:SectorDataWords], 0)
	}
}
