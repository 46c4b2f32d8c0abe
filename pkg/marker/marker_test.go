package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSeeds = SeedPair{Lo: 0x600D_F00D, Hi: 0x1BAD_B002}

func testEntropy() [SectorCount]uint32 {
	var e [SectorCount]uint32
	for i := range e {
		e[i] = uint32(i+1) * 0x9E3779B9
	}
	return e
}

func TestWriteVerifyRoundTrip(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), false, testSeeds, 13)
	require.False(t, p.IsZero())

	r := Verify(&p, testSeeds)
	assert.Equal(t, VerdictClean, r.Verdict)
	assert.True(t, r.Clean())
	assert.False(t, r.Forced)
	assert.Equal(t, uint32(13), r.ResumePID)
	for i, ok := range r.SectorOK {
		assert.True(t, ok, "sector %d", i)
	}
}

func TestWriteVerifyForcedFlag(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), true, testSeeds, 4)

	r := Verify(&p, testSeeds)
	assert.Equal(t, VerdictClean, r.Verdict)
	assert.True(t, r.Forced)
	assert.Equal(t, uint32(4), r.ResumePID)
}

func TestVerifyErasesPage(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), false, testSeeds, 2)

	Verify(&p, testSeeds)
	assert.True(t, p.IsZero())

	// A consumed marker reads as no resume pending, again and again.
	r := Verify(&p, testSeeds)
	assert.Equal(t, VerdictNoResume, r.Verdict)
	assert.True(t, p.IsZero())
}

func TestVerifyErasesTamperedPage(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), false, testSeeds, 2)
	p[300] ^= 1

	r := Verify(&p, testSeeds)
	assert.Equal(t, VerdictUnclean, r.Verdict)
	assert.True(t, p.IsZero(), "failed verification must still consume the marker")
}

func TestSingleBitTamperDetected(t *testing.T) {
	// Flip one bit in a data word of each sector; that sector's hash must
	// mismatch and the overall verdict must be unclean. Sector 0's stored
	// seed words (words 1-2) are exempt: verification replaces them with
	// the live pair, so their stored content is not part of the check.
	for sector := 0; sector < SectorCount; sector++ {
		for _, off := range []int{0, 5, 63, 126} {
			word := sector*SectorWords + off
			if sector == 0 && (off == wordSeedLo || off == wordSeedHi) {
				continue
			}

			var p Page
			Write(&p, testEntropy(), false, testSeeds, 9)
			p[word] ^= 1 << uint(word%32)

			r := Verify(&p, testSeeds)
			assert.Equal(t, VerdictUnclean, r.Verdict, "sector %d word %d", sector, off)
			assert.False(t, r.SectorOK[sector], "sector %d word %d", sector, off)
		}
	}
}

func TestMetadataTamperDetected(t *testing.T) {
	// The forced flag and resume pid are hashed, so flipping them is
	// caught like any other corruption.
	for _, word := range []int{wordForced, wordResumePID} {
		var p Page
		Write(&p, testEntropy(), false, testSeeds, 9)
		p[word] ^= 1

		r := Verify(&p, testSeeds)
		assert.Equal(t, VerdictUnclean, r.Verdict, "word %d", word)
		assert.False(t, r.SectorOK[0], "word %d", word)
	}
}

func TestStoredHashTamperDetected(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), false, testSeeds, 9)
	p[SectorWords-1] ^= 0x8000_0000 // sector 0's hash word

	r := Verify(&p, testSeeds)
	assert.Equal(t, VerdictUnclean, r.Verdict)
	assert.False(t, r.SectorOK[0])
}

func TestBuildSeedMismatchRejected(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), false, testSeeds, 9)

	live := SeedPair{Lo: testSeeds.Lo ^ 1, Hi: testSeeds.Hi}
	r := Verify(&p, live)
	assert.Equal(t, VerdictUnclean, r.Verdict, "marker from another build must not verify")
	assert.False(t, r.SectorOK[0])
	// Metadata is still extracted for diagnostics.
	assert.Equal(t, uint32(9), r.ResumePID)
	assert.True(t, p.IsZero())
}

func TestFillWordsAreValidPatterns(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), false, testSeeds, 1)

	valid := map[uint32]bool{0x00000000: true, 0x55555555: true, 0xAAAAAAAA: true, 0xFFFFFFFF: true}
	for sector := 0; sector < SectorCount; sector++ {
		start := 0
		if sector == 0 {
			start = 4 // metadata words
		}
		for j := start; j < SectorDataWords; j++ {
			w := p[sector*SectorWords+j]
			require.True(t, valid[w], "sector %d word %d = 0x%08X", sector, j, w)
		}
	}
}

func TestEntropySelectsDifferentFills(t *testing.T) {
	var a, b Page
	Write(&a, testEntropy(), false, testSeeds, 1)

	e := testEntropy()
	e[3] ^= 0xFFFF_FFFF
	Write(&b, e, false, testSeeds, 1)

	assert.NotEqual(t, a, b, "different entropy must yield a different page")
}

func TestPageBytesRoundTrip(t *testing.T) {
	var p Page
	Write(&p, testEntropy(), true, testSeeds, 7)

	img := p.Bytes()
	require.Len(t, img, PageBytes)

	// Words serialize little-endian: word 0 is the forced flag (1).
	assert.Equal(t, []byte{1, 0, 0, 0}, img[:4])

	var q Page
	require.NoError(t, q.SetBytes(img))
	assert.Equal(t, p, q)

	assert.Error(t, q.SetBytes(img[:100]))
}
