package marker

import "github.com/haven-os/susres-go/pkg/hash"

// Verdict is the outcome of a marker verification pass.
type Verdict uint8

const (
	// VerdictNoResume means the page was all-zero: no resume is pending
	// and the previous power-down was a RAM-losing cycle (or the marker
	// was already consumed).
	VerdictNoResume Verdict = 0

	// VerdictClean means every sector hash matched: the previous
	// power-down was an orderly suspend by this firmware build.
	VerdictClean Verdict = 1

	// VerdictUnclean means at least one sector hash mismatched. The boot
	// falls through to a cold boot; a failed resume is never retried.
	VerdictUnclean Verdict = 2
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictNoResume:
		return "NO_RESUME"
	case VerdictClean:
		return "CLEAN"
	case VerdictUnclean:
		return "UNCLEAN"
	default:
		return "UNKNOWN"
	}
}

// Report is the result of one verification pass over the marker page.
//
// Forced and ResumePID are extracted from sector 0 regardless of the
// verdict; on an unclean marker they are best-effort diagnostics only.
type Report struct {
	Verdict   Verdict
	Forced    bool
	ResumePID uint32

	// SectorOK records the per-sector hash comparison, for diagnostics.
	// All false when the page was zero.
	SectorOK [SectorCount]bool
}

// Clean reports whether the marker proved an orderly suspend.
func (r *Report) Clean() bool {
	return r.Verdict == VerdictClean
}

// Verify checks the marker page against the live build seeds and
// unconditionally erases it. Exactly one verification pass consumes a
// marker: whatever the verdict, a second pass reports NO_RESUME.
//
// The stored build-seed words in sector 0 are replaced by live before the
// sector hash is recomputed, so the comparison holds only when the marker
// was written by the firmware build now running.
func Verify(p *Page, live SeedPair) Report {
	if p.IsZero() {
		return Report{Verdict: VerdictNoResume}
	}

	r := Report{
		Verdict:   VerdictClean,
		Forced:    p[wordForced] != 0,
		ResumePID: p[wordResumePID],
	}

	var buf [SectorDataWords]uint32
	for i := 0; i < SectorCount; i++ {
		sec := p.sector(i)
		copy(buf[:], sec[:SectorDataWords])
		if i == 0 {
			buf[wordSeedLo] = live.Lo
			buf[wordSeedHi] = live.Hi
		}

		if hash.Words(buf[:], 0) == sec[SectorDataWords] {
			r.SectorOK[i] = true
		} else {
			r.Verdict = VerdictUnclean
		}
	}

	p.Zero()
	return r
}
