// Package riscv implements the RISC-V DMI (Debug Module Interface)
// handle of spec.md §3: a parallel, simpler sibling to the ADIv5
// DP/AP layer, used only when a v4 probe's accelerations bitmap
// carries the RISC-V bit (spec.md §4.3.7). It deliberately does not
// reach into internal/adiv5 or vice versa — they share nothing but the
// same remote.Conn underneath.
package riscv

import (
	"errors"

	"github.com/kc1fsz/swdbridge/internal/remote"
)

// DMI is the RISC-V Debug Module Interface handle (spec.md §3): device
// index, idle-cycle count, address width in bits, and a latched fault
// code from the last failing operation.
type DMI struct {
	acc        remote.RISCVAccelerator
	devIndex   byte
	idleCycles int
	addrWidth  int
	fault      uint32
}

// New builds a DMI handle bound to acc (typically a v4 Accelerator
// type-asserted to remote.RISCVAccelerator by the caller after
// checking the accelerations bitmap for remote.AccelRISCV).
func New(acc remote.RISCVAccelerator, devIndex byte, idleCycles, addrWidth int) *DMI {
	return &DMI{acc: acc, devIndex: devIndex, idleCycles: idleCycles, addrWidth: addrWidth}
}

// Fault reports the latched fault code from the last failed Read or
// Write, mirroring the DP fault latch's "consult after a suspect
// batch" contract (spec.md §4.3.8).
func (d *DMI) Fault() uint32 { return d.fault }

// Read performs a DMI register read at addr. A probe-reported failure
// (ok == false) is not itself an error — the abstract operation
// completed, the target op associated with it did not — and is
// returned to the caller to handle (spec.md §4.3.7's (ok, value)
// shape).
func (d *DMI) Read(addr uint32) (ok bool, value uint32, err error) {
	ok, value, err = d.acc.DMIRead(d.devIndex, d.idleCycles, d.addrWidth, addr)
	var fault *remote.Fault
	if errors.As(err, &fault) {
		d.fault = fault.Code
	}
	return ok, value, err
}

// Write performs a DMI register write of value to addr.
func (d *DMI) Write(addr, value uint32) (ok bool, err error) {
	ok, err = d.acc.DMIWrite(d.devIndex, d.idleCycles, d.addrWidth, addr, value)
	var fault *remote.Fault
	if errors.As(err, &fault) {
		d.fault = fault.Code
	}
	return ok, err
}
