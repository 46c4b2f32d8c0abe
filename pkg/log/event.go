package log

import (
	"time"

	"github.com/haven-os/susres-go/pkg/wire"
)

// Event represents one trace event from the suspend/resume service.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision, host
	// clock; the hardware millisecond clock appears in HWTime).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID correlates events of one suspend session (UUID).
	// Empty for events outside a session.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// HWTime is the hardware time source reading in milliseconds,
	// when one was taken for this event.
	HWTime uint64 `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"5,keyasint,omitempty"` // Operations arriving at the orchestrator
	StateChange *StateChangeEvent `cbor:"6,keyasint,omitempty"` // Session state transitions
	Marker      *MarkerEvent      `cbor:"7,keyasint,omitempty"` // Boot-side marker verdicts
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"` // Errors
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates an operation message.
	CategoryMessage Category = 0
	// CategoryState indicates a session state change.
	CategoryState Category = 1
	// CategoryMarker indicates a marker write or verification.
	CategoryMarker Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryMarker:
		return "MARKER"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one operation processed by the orchestrator.
type MessageEvent struct {
	// Opcode of the operation.
	Opcode wire.Opcode `cbor:"1,keyasint"`

	// Token named by the operation, if any.
	Token *wire.Token `cbor:"2,keyasint,omitempty"`

	// Order carried by a REGISTER operation.
	Order *wire.Order `cbor:"3,keyasint,omitempty"`

	// Status the operation resolved to, for operations answered
	// synchronously.
	Status *wire.Status `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures a session state transition.
type StateChangeEvent struct {
	// OldState and NewState are session state names.
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason explains the transition (e.g. "timeout", "tranche ready").
	Reason string `cbor:"3,keyasint,omitempty"`

	// Tranche is the tranche the session was in, when relevant.
	Tranche *wire.Order `cbor:"4,keyasint,omitempty"`
}

// MarkerEvent captures a marker verification outcome.
type MarkerEvent struct {
	// Verdict is the marker verdict name (NO_RESUME, CLEAN, UNCLEAN).
	Verdict string `cbor:"1,keyasint"`

	// Forced indicates the marker recorded a forced suspend.
	Forced bool `cbor:"2,keyasint,omitempty"`

	// ResumePID is the process id extracted from the marker.
	ResumePID uint32 `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error event.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`

	// Context describes what was being attempted.
	Context string `cbor:"2,keyasint,omitempty"`
}
