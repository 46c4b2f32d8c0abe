package wire

import "fmt"

// Token identifies a registered subscriber. Tokens are dense: the Nth
// registration receives token N, so the orchestrator's subscriber table
// indexes directly by token.
type Token uint32

// Message is one operation submitted to the suspend/resume service.
//
// CBOR encoding (integer keys, deterministic ordering):
//
//	{
//	  1: opcode,   // uint8
//	  2: token,    // uint32, SUSPEND_READY / WAS_SUSPEND_CLEAN
//	  3: order,    // uint8, REGISTER
//	  4: vector    // uint32, REBOOT_VECTOR
//	}
//
// Fields irrelevant to the opcode are omitted from the encoding and
// ignored on receipt.
type Message struct {
	Opcode Opcode `cbor:"1,keyasint"`
	Token  Token  `cbor:"2,keyasint,omitempty"`
	Order  Order  `cbor:"3,keyasint,omitempty"`
	Vector uint32 `cbor:"4,keyasint,omitempty"`
}

// Validate checks that the message is well-formed for its opcode.
func (m *Message) Validate() error {
	if !m.Opcode.IsValid() {
		return fmt.Errorf("unknown opcode: %d", m.Opcode)
	}
	if m.Opcode == OpRegister && !m.Order.IsValid() {
		return fmt.Errorf("invalid order: %d", m.Order)
	}
	return nil
}

// Result is the orchestrator's answer to a blocking message.
//
// CBOR encoding:
//
//	{
//	  1: status,   // uint8
//	  2: token,    // uint32, REGISTER answers
//	  3: clean     // bool, WAS_SUSPEND_CLEAN answers
//	}
type Result struct {
	Status Status `cbor:"1,keyasint"`
	Token  Token  `cbor:"2,keyasint,omitempty"`
	Clean  bool   `cbor:"3,keyasint,omitempty"`
}

// IsSuccess returns true if the result indicates success.
func (r *Result) IsSuccess() bool {
	return r.Status.IsSuccess()
}
