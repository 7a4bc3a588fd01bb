// Package reg defines the collaborator boundary spec.md §6 places
// outside this module's scope: a target's register file and run
// control. internal/gdbserver depends only on this interface — no
// Cortex-M/RISC-V core-logic implementation of it lives in this
// repository (spec.md §1's explicit Non-goal).
package reg

// Core is the register/run-control surface a GDB dispatcher drives.
// Implementations translate these calls into whatever core-specific
// debug sequence the target architecture requires (Cortex-M's
// DCRSR/DCRDR dance, RISC-V's abstract-command DMI protocol, …) using
// the ADIv5 or RISC-V DMI primitives this module exposes.
type Core interface {
	// ReadReg returns the current value of register n in the target's
	// GDB register numbering.
	ReadReg(n int) (uint32, error)

	// WriteReg sets register n to value.
	WriteReg(n int, value uint32) error

	// Halt stops the core, returning once the halt is confirmed.
	Halt() error

	// Resume resumes execution. If stepOnly is true, the core is
	// single-stepped instead of run freely.
	Resume(stepOnly bool) error

	// HaltPoll reports whether the core is currently halted, and if
	// so, the reason (a GDB stop-reply signal number).
	HaltPoll() (halted bool, signal int, err error)

	// Reset resets the target, optionally holding it in reset
	// (assertOnly) rather than releasing it immediately.
	Reset(assertOnly bool) error
}
