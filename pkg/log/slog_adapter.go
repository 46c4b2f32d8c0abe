package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see suspend-cycle events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.HWTime != 0 {
		attrs = append(attrs, slog.Uint64("hw_time_ms", event.HWTime))
	}

	// Add type-specific attributes
	switch {
	case event.Message != nil:
		attrs = append(attrs, slog.String("opcode", event.Message.Opcode.String()))
		if event.Message.Token != nil {
			attrs = append(attrs, slog.Uint64("token", uint64(*event.Message.Token)))
		}
		if event.Message.Order != nil {
			attrs = append(attrs, slog.String("order", event.Message.Order.String()))
		}
		if event.Message.Status != nil {
			attrs = append(attrs, slog.String("status", event.Message.Status.String()))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
		if event.StateChange.Tranche != nil {
			attrs = append(attrs, slog.String("tranche", event.StateChange.Tranche.String()))
		}
	case event.Marker != nil:
		attrs = append(attrs,
			slog.String("verdict", event.Marker.Verdict),
			slog.Bool("forced", event.Marker.Forced),
			slog.Uint64("resume_pid", uint64(event.Marker.ResumePID)),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "susres", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
