package wire

// Opcode identifies a suspend/resume service operation.
type Opcode uint8

const (
	// OpRegister registers a suspend subscriber and assigns its token.
	OpRegister Opcode = 0

	// OpRequestSuspend asks the orchestrator to begin a suspend cycle.
	// The caller blocks until the cycle resolves.
	OpRequestSuspend Opcode = 1

	// OpSuspendingNow gates the caller across the power transition.
	// The caller blocks until resume, or is answered immediately when
	// no suspend cycle is active.
	OpSuspendingNow Opcode = 2

	// OpSuspendReady marks one subscriber ready for power removal.
	OpSuspendReady Opcode = 3

	// OpSuspendTimeout is sent by the timeout watcher when a suspend
	// cycle overruns its deadline. Internal; ignored outside a cycle.
	OpSuspendTimeout Opcode = 4

	// OpWasSuspendClean reports whether a subscriber answered in time
	// during the most recently concluded cycle.
	OpWasSuspendClean Opcode = 5

	// OpSuspendAllow re-enables acceptance of suspend requests.
	OpSuspendAllow Opcode = 6

	// OpSuspendDeny disables acceptance of suspend requests.
	OpSuspendDeny Opcode = 7

	// OpPowerOff forces an immediate power-down, bypassing the
	// subscriber handshake. Irrecoverable.
	OpPowerOff Opcode = 8

	// OpRebootRequest arms a reboot; a confirm opcode must follow.
	OpRebootRequest Opcode = 9

	// OpRebootCpuConfirm executes a CPU-only reboot if one is armed.
	OpRebootCpuConfirm Opcode = 10

	// OpRebootSocConfirm executes a whole-SoC reboot if one is armed.
	OpRebootSocConfirm Opcode = 11

	// OpRebootVector stores the address the CPU vectors to after reboot.
	OpRebootVector Opcode = 12
)

// IsValid reports whether the opcode is one the service defines.
func (o Opcode) IsValid() bool {
	return o <= OpRebootVector
}

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpRegister:
		return "REGISTER"
	case OpRequestSuspend:
		return "REQUEST_SUSPEND"
	case OpSuspendingNow:
		return "SUSPENDING_NOW"
	case OpSuspendReady:
		return "SUSPEND_READY"
	case OpSuspendTimeout:
		return "SUSPEND_TIMEOUT"
	case OpWasSuspendClean:
		return "WAS_SUSPEND_CLEAN"
	case OpSuspendAllow:
		return "SUSPEND_ALLOW"
	case OpSuspendDeny:
		return "SUSPEND_DENY"
	case OpPowerOff:
		return "POWER_OFF"
	case OpRebootRequest:
		return "REBOOT_REQUEST"
	case OpRebootCpuConfirm:
		return "REBOOT_CPU_CONFIRM"
	case OpRebootSocConfirm:
		return "REBOOT_SOC_CONFIRM"
	case OpRebootVector:
		return "REBOOT_VECTOR"
	default:
		return "UNKNOWN"
	}
}

// Order is the tranche a subscriber is notified in. Tranches quiesce
// strictly in order: every Early subscriber reports ready before any
// Normal subscriber is notified, and likewise Normal before Last.
type Order uint8

const (
	// OrderEarly subscribers are notified first. For services whose
	// shutdown unblocks others (e.g. a co-processor manager).
	OrderEarly Order = 0

	// OrderNormal is the default tranche.
	OrderNormal Order = 1

	// OrderLast subscribers quiesce after everything above them, e.g. a
	// storage layer that must flush while the block device is still up.
	OrderLast Order = 2
)

// IsValid reports whether the order is a defined tranche.
func (o Order) IsValid() bool {
	return o <= OrderLast
}

// String returns the tranche name.
func (o Order) String() string {
	switch o {
	case OrderEarly:
		return "EARLY"
	case OrderNormal:
		return "NORMAL"
	case OrderLast:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}

// Status represents an operation outcome.
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusDenied indicates suspension is currently disallowed or a
	// prior timeout has not yet cleared.
	StatusDenied Status = 1

	// StatusTimeout indicates the suspend cycle was abandoned because
	// one or more subscribers missed the readiness deadline.
	StatusTimeout Status = 2

	// StatusInvalidToken indicates the message named a token that was
	// never registered.
	StatusInvalidToken Status = 3

	// StatusInvalidParameter indicates a field value is out of range.
	StatusInvalidParameter Status = 4

	// StatusUnknownOpcode indicates an opcode outside the defined range.
	StatusUnknownOpcode Status = 5

	// StatusEngineFault indicates the hardware engine rejected the
	// suspend entry.
	StatusEngineFault Status = 6
)

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusDenied:
		return "DENIED"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusInvalidToken:
		return "INVALID_TOKEN"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusUnknownOpcode:
		return "UNKNOWN_OPCODE"
	case StatusEngineFault:
		return "ENGINE_FAULT"
	default:
		return "UNKNOWN"
	}
}
