// Package wire defines the typed message surface of the suspend/resume
// service.
//
// Every operation the orchestrator accepts is a Message carrying an Opcode
// plus opcode-specific fields. In-process the messages travel through the
// orchestrator's queue as plain structs; for trace capture and scenario
// replay they encode as CBOR (RFC 8949) maps with integer keys.
//
// # Opcode Dispatch
//
// The orchestrator matches on Opcode exhaustively. Opcodes outside the
// defined range are answered with StatusUnknownOpcode rather than dropped,
// so a misbuilt caller fails loudly.
package wire
