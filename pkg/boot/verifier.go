// Package boot implements the bootloader-side resume verifier.
//
// It runs exactly once, very early in boot, before any paging setup: it
// reads the clean-suspend marker from retained memory, checks it against
// the live build seeds, and decides between resuming the suspended session
// and cold-booting. Whatever the verdict, the marker is consumed - a failed
// resume is never retried, it always falls through to cold boot.
package boot

import (
	"errors"
	"log/slog"
	"time"

	"github.com/haven-os/susres-go/pkg/hal"
	"github.com/haven-os/susres-go/pkg/log"
	"github.com/haven-os/susres-go/pkg/marker"
)

// ErrAlreadyChecked is returned when the verifier runs more than once per
// boot. The first pass consumed the marker, so a second verdict would
// always be "no resume" and a caller relying on it is buggy.
var ErrAlreadyChecked = errors.New("boot: resume check already ran")

// Decision is the boot-path choice derived from the marker.
type Decision struct {
	// Resume is true only when the marker proved an orderly suspend by
	// this firmware build. Everything else cold-boots.
	Resume bool

	// Forced indicates power was removed despite incomplete readiness.
	// Diagnostic only; a forced suspend still resumes when clean.
	Forced bool

	// ResumePID is the id of the suspend/resume process the bootloader
	// retargets when resuming. Zero on cold boot.
	ResumePID uint32

	// Report carries the per-sector verification detail.
	Report marker.Report
}

// Verifier performs the once-per-boot resume check.
type Verifier struct {
	engine hal.Engine
	logger *slog.Logger
	trace  log.Logger
	done   bool
}

// NewVerifier creates a verifier bound to the hardware engine. logger may
// be nil.
func NewVerifier(engine hal.Engine, logger *slog.Logger) *Verifier {
	return &Verifier{engine: engine, logger: logger, trace: log.NoopLogger{}}
}

// SetTrace installs a trace logger; the verdict of each Check is recorded
// as a marker event.
func (v *Verifier) SetTrace(trace log.Logger) {
	v.trace = trace
}

// Check reads, verifies, and erases the marker page, returning the boot
// decision. A second call in the same boot returns ErrAlreadyChecked.
func (v *Verifier) Check() (Decision, error) {
	if v.done {
		return Decision{}, ErrAlreadyChecked
	}
	v.done = true

	live := v.engine.BuildSeed()
	report := marker.Verify(v.engine.RetainedPage(), live)

	d := Decision{
		Resume:    report.Verdict == marker.VerdictClean,
		Forced:    report.Forced,
		ResumePID: report.ResumePID,
		Report:    report,
	}

	v.trace.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryMarker,
		HWTime:    v.engine.ReadTime(),
		Marker: &log.MarkerEvent{
			Verdict:   report.Verdict.String(),
			Forced:    report.Forced,
			ResumePID: report.ResumePID,
		},
	})

	if v.logger != nil {
		v.logger.Info("resume check",
			"verdict", report.Verdict.String(),
			"forced", report.Forced,
			"resumePID", report.ResumePID)
		if report.Verdict == marker.VerdictUnclean {
			for i, ok := range report.SectorOK {
				if !ok {
					v.logger.Warn("marker sector hash mismatch", "sector", i)
				}
			}
		}
	}

	return d, nil
}
