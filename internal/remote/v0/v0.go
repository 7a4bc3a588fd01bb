// Package v0 is the fallback remote-protocol path: no ADIv5
// acceleration at all (spec.md §4.3.2), reached whenever "!HC#"
// errors or reports a version below 1. Accelerator exists so every
// negotiated version shares one type (matching internal/probe's
// uniform handling), but every method reports remote.NotSupported —
// v0 has no DP/AP layer, and a caller that wants a target on a v0
// probe must drive it through remote.Raw's bit-level SWD/JTAG
// primitives directly instead.
package v0

import "github.com/kc1fsz/swdbridge/internal/remote"

// Accelerator is the no-op remote.Accelerator for negotiated version
// v0.
type Accelerator struct{}

func New(*remote.Conn) remote.Accelerator {
	return Accelerator{}
}

func (Accelerator) Version() remote.Version { return remote.V0 }
func (Accelerator) HeaderOverhead() int      { return 0 }

func (Accelerator) DPRead(byte, byte) (uint32, error)       { return 0, remote.NotSupported{} }
func (Accelerator) APRead(byte, byte, byte) (uint32, error) { return 0, remote.NotSupported{} }
func (Accelerator) APWrite(byte, byte, byte, uint32) error  { return remote.NotSupported{} }

func (Accelerator) LowAccess(byte, bool, byte, uint32) (uint32, error) {
	return 0, remote.NotSupported{}
}

func (Accelerator) MemRead(byte, byte, uint32, uint32, []byte) error {
	return remote.NotSupported{}
}

func (Accelerator) MemWrite(byte, byte, uint32, remote.Alignment, uint32, []byte) error {
	return remote.NotSupported{}
}

// NewRaw builds the raw sequence driver for a v0-negotiated connection.
func NewRaw(conn *remote.Conn) *remote.Raw {
	return remote.NewRaw(conn, remote.V0)
}
