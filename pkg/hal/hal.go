// Package hal abstracts the hardware touched by the suspend/resume core:
// the suspend/resume engine, the retained-memory marker page, the build
// seed, the hardware time source, and the entropy source.
//
// The orchestrator and the marker protocol never poke registers directly;
// they call through these interfaces, so the whole core runs off-target
// against a mock implementation.
package hal

import "github.com/haven-os/susres-go/pkg/marker"

// RebootKind selects how much of the system a reboot resets.
type RebootKind uint8

const (
	// RebootCPU resets the CPU only, vectoring to the stored address.
	RebootCPU RebootKind = 0

	// RebootSoC resets the whole SoC, gateware included.
	RebootSoC RebootKind = 1
)

// String returns the reboot kind name.
func (k RebootKind) String() string {
	switch k {
	case RebootCPU:
		return "CPU"
	case RebootSoC:
		return "SOC"
	default:
		return "UNKNOWN"
	}
}

// Engine is the hardware suspend/resume engine. On real hardware it wraps
// the register sequences for power-rail control, cache flush, and wakeup
// timers; off-target internal/mockhw provides a software model.
type Engine interface {
	// Suspend removes power from everything but retained RAM. It writes
	// the clean-suspend marker immediately before power removal and does
	// not return until wake and low-level resume (marker consumption,
	// timer re-arm) have completed. forced records in the marker that
	// power was removed despite incomplete subscriber readiness.
	Suspend(forced bool) error

	// Resume reports whether the most recent wake resumed a suspended
	// session, as opposed to cold-booting.
	Resume() bool

	// ForcePowerOff issues the hardware power-down command once. Callers
	// that must guarantee power removal issue it in a loop until power
	// is actually cut.
	ForcePowerOff()

	// Reboot resets the CPU or the whole SoC, vectoring to addr.
	Reboot(kind RebootKind, addr uint32)

	// ReadTime returns the hardware time source in milliseconds. The
	// value is monotonic across a suspend but its epoch is arbitrary.
	ReadTime() uint64

	// BuildSeed returns the build-seed words of the running firmware,
	// read live from hardware.
	BuildSeed() marker.SeedPair

	// RetainedPage returns the marker page at its fixed, hardware
	// reserved physical address in retained memory.
	RetainedPage() *marker.Page
}

// EntropySource supplies words for the marker's pattern fill. On target
// this is the TRNG; off-target a deterministic source keyed per test.
type EntropySource interface {
	// FillWords fills dst with entropy words.
	FillWords(dst []uint32)
}
