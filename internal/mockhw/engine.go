// Package mockhw models the suspend/resume hardware off-target: a virtual
// millisecond clock, a retained marker page, build seeds, and a suspend
// engine whose power transition runs the real marker write/verify path.
package mockhw

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/haven-os/susres-go/pkg/hal"
	"github.com/haven-os/susres-go/pkg/marker"
)

// RebootRecord captures one Reboot call.
type RebootRecord struct {
	Kind hal.RebootKind
	Addr uint32
}

// Engine is a software model of the hardware suspend/resume engine.
//
// Suspend writes the clean-suspend marker, simulates the power transition
// (optionally corrupting retained memory on the way), then plays the
// bootloader's part: it verifies and consumes the marker and records
// whether the wake counted as a resume. It returns only after that, like
// the real engine, which does not return until wake and low-level resume
// complete.
type Engine struct {
	mu sync.Mutex

	page    marker.Page
	seeds   marker.SeedPair
	entropy hal.EntropySource
	pid     uint32

	clock       atomic.Uint64
	autoAdvance atomic.Uint64

	suspendCalls  []bool // forced flag per call
	lastResume    bool
	lastReport    marker.Report
	powerOffCalls atomic.Int32
	powerCutAfter int32
	reboots       []RebootRecord

	// corrupt, when set, mutates the retained page between power removal
	// and wake, modeling RAM decay or tampering.
	corrupt func(*marker.Page)

	// liveSeeds overrides the seeds read back at wake, modeling a
	// firmware update across the power transition.
	liveSeeds *marker.SeedPair
}

// Option configures the mock engine.
type Option func(*Engine)

// WithSeeds sets the build-seed pair the engine reports and writes.
func WithSeeds(s marker.SeedPair) Option {
	return func(e *Engine) { e.seeds = s }
}

// WithResumePID sets the process id recorded in the marker.
func WithResumePID(pid uint32) Option {
	return func(e *Engine) { e.pid = pid }
}

// WithEntropy sets the entropy source for the marker pattern fill.
func WithEntropy(src hal.EntropySource) Option {
	return func(e *Engine) { e.entropy = src }
}

// WithCorruption installs a page mutation applied between power removal
// and wake.
func WithCorruption(fn func(*marker.Page)) Option {
	return func(e *Engine) { e.corrupt = fn }
}

// WithWakeSeeds makes wake-time verification read a different build-seed
// pair than the one the marker was written with.
func WithWakeSeeds(s marker.SeedPair) Option {
	return func(e *Engine) { e.liveSeeds = &s }
}

// WithPowerCutAfter sets how many ForcePowerOff commands the virtual
// power rail survives before power is actually cut.
func WithPowerCutAfter(n int32) Option {
	return func(e *Engine) { e.powerCutAfter = n }
}

// NewEngine creates a mock engine. Without options it has seed pair
// {1, 2}, resume pid 1, a fixed-key entropy source, and a power rail that
// drops on the third ForcePowerOff.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		seeds:         marker.SeedPair{Lo: 1, Hi: 2},
		pid:           1,
		entropy:       NewEntropy(0),
		powerCutAfter: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ hal.Engine = (*Engine)(nil)

// Suspend models the full power transition. See the Engine doc comment.
func (e *Engine) Suspend(forced bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.suspendCalls = append(e.suspendCalls, forced)

	var entropy [marker.SectorCount]uint32
	e.entropy.FillWords(entropy[:])
	marker.Write(&e.page, entropy, forced, e.seeds, e.pid)

	// Power is off. Retained RAM may decay, firmware may change.
	if e.corrupt != nil {
		e.corrupt(&e.page)
	}
	live := e.seeds
	if e.liveSeeds != nil {
		live = *e.liveSeeds
	}

	// Wake: the bootloader consumes the marker and picks a path.
	e.lastReport = marker.Verify(&e.page, live)
	e.lastResume = e.lastReport.Verdict == marker.VerdictClean
	return nil
}

// Resume reports whether the most recent wake resumed a suspended session.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastResume
}

// ForcePowerOff issues one power-down command. Once the configured number
// of commands has been issued the virtual power rail drops: the calling
// goroutine stops executing, like a CPU losing power mid-instruction.
func (e *Engine) ForcePowerOff() {
	if e.powerOffCalls.Add(1) >= e.powerCutAfter {
		runtime.Goexit()
	}
}

// Reboot records the reboot request.
func (e *Engine) Reboot(kind hal.RebootKind, addr uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reboots = append(e.reboots, RebootRecord{Kind: kind, Addr: addr})
}

// ReadTime returns the virtual clock in milliseconds, advancing it by the
// auto-advance step per read when one is configured.
func (e *Engine) ReadTime() uint64 {
	step := e.autoAdvance.Load()
	if step != 0 {
		return e.clock.Add(step)
	}
	return e.clock.Load()
}

// BuildSeed returns the configured build-seed pair.
func (e *Engine) BuildSeed() marker.SeedPair {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seeds
}

// RetainedPage returns the virtual retained-memory marker page.
func (e *Engine) RetainedPage() *marker.Page {
	return &e.page
}

// AdvanceTime moves the virtual clock forward by d milliseconds.
func (e *Engine) AdvanceTime(d uint64) {
	e.clock.Add(d)
}

// SetAutoAdvance makes every ReadTime call advance the clock by step
// milliseconds, so deadline polling makes progress without an external
// driver. Zero disables auto-advance.
func (e *Engine) SetAutoAdvance(step uint64) {
	e.autoAdvance.Store(step)
}

// SuspendCalls returns the forced flag of each Suspend call so far.
func (e *Engine) SuspendCalls() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]bool, len(e.suspendCalls))
	copy(out, e.suspendCalls)
	return out
}

// LastReport returns the wake-time verification report of the most recent
// suspend cycle.
func (e *Engine) LastReport() marker.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastReport
}

// PowerOffCalls returns how many power-down commands were issued.
func (e *Engine) PowerOffCalls() int32 {
	return e.powerOffCalls.Load()
}

// Reboots returns the recorded reboot requests.
func (e *Engine) Reboots() []RebootRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RebootRecord, len(e.reboots))
	copy(out, e.reboots)
	return out
}
