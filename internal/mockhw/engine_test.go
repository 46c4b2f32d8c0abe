package mockhw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-os/susres-go/pkg/hal"
	"github.com/haven-os/susres-go/pkg/marker"
)

func TestSuspendCleanCycle(t *testing.T) {
	e := NewEngine(WithResumePID(3))

	require.NoError(t, e.Suspend(false))

	assert.True(t, e.Resume())
	report := e.LastReport()
	assert.Equal(t, marker.VerdictClean, report.Verdict)
	assert.Equal(t, uint32(3), report.ResumePID)
	assert.True(t, e.RetainedPage().IsZero(), "wake must consume the marker")
	assert.Equal(t, []bool{false}, e.SuspendCalls())
}

func TestSuspendWithCorruptionColdBoots(t *testing.T) {
	e := NewEngine(WithCorruption(func(p *marker.Page) {
		p[512] ^= 4
	}))

	require.NoError(t, e.Suspend(false))

	assert.False(t, e.Resume())
	assert.Equal(t, marker.VerdictUnclean, e.LastReport().Verdict)
	assert.True(t, e.RetainedPage().IsZero())
}

func TestSuspendAcrossFirmwareChangeColdBoots(t *testing.T) {
	e := NewEngine(
		WithSeeds(marker.SeedPair{Lo: 10, Hi: 20}),
		WithWakeSeeds(marker.SeedPair{Lo: 11, Hi: 20}),
	)

	require.NoError(t, e.Suspend(false))
	assert.False(t, e.Resume())
}

func TestForcedFlagRecorded(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Suspend(true))

	assert.True(t, e.LastReport().Forced)
	assert.Equal(t, []bool{true}, e.SuspendCalls())
}

func TestVirtualClock(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, uint64(0), e.ReadTime())

	e.AdvanceTime(250)
	assert.Equal(t, uint64(250), e.ReadTime())

	e.SetAutoAdvance(10)
	first := e.ReadTime()
	second := e.ReadTime()
	assert.Equal(t, first+10, second)
}

func TestPowerRailDropsAfterConfiguredCommands(t *testing.T) {
	e := NewEngine(WithPowerCutAfter(3))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			e.ForcePowerOff() // Goexit on the third call
		}
	}()

	<-done
	assert.Equal(t, int32(3), e.PowerOffCalls())
}

func TestRebootRecording(t *testing.T) {
	e := NewEngine()
	e.Reboot(hal.RebootCPU, 0x2050_0000)
	e.Reboot(hal.RebootSoC, 0)

	require.Len(t, e.Reboots(), 2)
	assert.Equal(t, RebootRecord{Kind: hal.RebootCPU, Addr: 0x2050_0000}, e.Reboots()[0])
}

func TestEntropyDeterministic(t *testing.T) {
	a := make([]uint32, 8)
	b := make([]uint32, 8)
	NewEntropy(7).FillWords(a)
	NewEntropy(7).FillWords(b)
	assert.Equal(t, a, b)

	c := make([]uint32, 8)
	NewEntropy(8).FillWords(c)
	assert.NotEqual(t, a, c)
}
