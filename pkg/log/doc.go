// Package log provides structured event tracing for the suspend/resume
// service.
//
// This package defines the Logger interface and Event types for capturing
// suspend-cycle events: the messages arriving at the orchestrator, session
// state transitions, and marker verdicts. It is separate from operational
// logging (slog) - the trace is a complete machine-readable record of a
// suspend cycle for debugging power-path problems after the fact.
//
// # Basic Usage
//
// Applications configure tracing by providing a Logger implementation:
//
//	// For development: log to console via slog
//	susres.WithTraceLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/haven/susres.strace")
//	susres.WithTraceLogger(fl)
//
//	// Both: use MultiLogger
//	susres.WithTraceLogger(log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fl,
//	))
//
// # File Format
//
// Trace files are a CBOR event stream with .strace extension. The Reader
// type streams them back, optionally filtered; the susres-sim binary can
// replay them.
package log
