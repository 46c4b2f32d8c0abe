package boot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-os/susres-go/internal/mockhw"
	"github.com/haven-os/susres-go/pkg/log"
	"github.com/haven-os/susres-go/pkg/marker"
)

func writeMarker(e *mockhw.Engine, forced bool, pid uint32) {
	var entropy [marker.SectorCount]uint32
	mockhw.NewEntropy(1).FillWords(entropy[:])
	marker.Write(e.RetainedPage(), entropy, forced, e.BuildSeed(), pid)
}

func TestCheckColdBootOnEmptyPage(t *testing.T) {
	v := NewVerifier(mockhw.NewEngine(), nil)

	d, err := v.Check()
	require.NoError(t, err)
	assert.False(t, d.Resume)
	assert.Equal(t, marker.VerdictNoResume, d.Report.Verdict)
}

func TestCheckResumesCleanMarker(t *testing.T) {
	e := mockhw.NewEngine()
	writeMarker(e, false, 5)

	d, err := NewVerifier(e, nil).Check()
	require.NoError(t, err)
	assert.True(t, d.Resume)
	assert.False(t, d.Forced)
	assert.Equal(t, uint32(5), d.ResumePID)
	assert.True(t, e.RetainedPage().IsZero())
}

func TestCheckForcedSuspendStillResumes(t *testing.T) {
	e := mockhw.NewEngine()
	writeMarker(e, true, 5)

	d, err := NewVerifier(e, nil).Check()
	require.NoError(t, err)
	assert.True(t, d.Resume)
	assert.True(t, d.Forced)
}

func TestCheckTamperedMarkerColdBoots(t *testing.T) {
	e := mockhw.NewEngine()
	writeMarker(e, false, 5)
	e.RetainedPage()[777] ^= 1

	d, err := NewVerifier(e, nil).Check()
	require.NoError(t, err)
	assert.False(t, d.Resume)
	assert.Equal(t, marker.VerdictUnclean, d.Report.Verdict)
	// Metadata still extracted for diagnostics, never acted on.
	assert.Equal(t, uint32(5), d.ResumePID)
	assert.True(t, e.RetainedPage().IsZero(), "failed resume must still consume the marker")
}

func TestCheckBuildMismatchColdBoots(t *testing.T) {
	e := mockhw.NewEngine(mockhw.WithSeeds(marker.SeedPair{Lo: 0xAAAA, Hi: 0xBBBB}))
	writeMarker(e, false, 5)

	// New firmware boots: live seeds differ from the stored pair.
	e2 := mockhw.NewEngine(mockhw.WithSeeds(marker.SeedPair{Lo: 0xAAAB, Hi: 0xBBBB}))
	*e2.RetainedPage() = *e.RetainedPage()

	d, err := NewVerifier(e2, nil).Check()
	require.NoError(t, err)
	assert.False(t, d.Resume)
}

func TestCheckRunsOnce(t *testing.T) {
	v := NewVerifier(mockhw.NewEngine(), nil)

	_, err := v.Check()
	require.NoError(t, err)

	_, err = v.Check()
	assert.ErrorIs(t, err, ErrAlreadyChecked)
}

// captureLogger records trace events for assertions.
type captureLogger struct {
	events []log.Event
}

func (c *captureLogger) Log(event log.Event) {
	c.events = append(c.events, event)
}

func TestCheckTracesMarkerVerdict(t *testing.T) {
	e := mockhw.NewEngine()
	writeMarker(e, true, 9)

	var trace captureLogger
	v := NewVerifier(e, nil)
	v.SetTrace(&trace)

	_, err := v.Check()
	require.NoError(t, err)

	require.Len(t, trace.events, 1)
	ev := trace.events[0]
	assert.Equal(t, log.CategoryMarker, ev.Category)
	require.NotNil(t, ev.Marker)
	assert.Equal(t, marker.VerdictClean.String(), ev.Marker.Verdict)
	assert.True(t, ev.Marker.Forced)
	assert.Equal(t, uint32(9), ev.Marker.ResumePID)
}
