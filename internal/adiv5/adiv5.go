// Package adiv5 implements the abstract Debug-Port / Access-Port
// operation surface of spec.md §4.2: DP read, AP read/write, raw
// low-access, and alignment-aware bulk memory read/write, dispatched
// through whichever remote-protocol version has been negotiated for
// the underlying connection.
package adiv5

import (
	"errors"

	"github.com/kc1fsz/swdbridge/internal/remote"
)

// DP is a Debug Port handle (spec.md §3): one per connected target,
// holding the device index (JTAG chain position), a latched fault
// code, the negotiated DP version, and an optional SWD-multidrop
// TARGETSEL value.
type DP struct {
	acc       remote.Accelerator
	devIndex  byte
	version   int
	targetSel *uint32
	fault     uint32
}

// NewDP builds a DP bound to an already-negotiated Accelerator. version
// is the DP architecture version (independent of the remote-protocol
// Version), relevant only to v4 SWD-multidrop selection.
func NewDP(acc remote.Accelerator, devIndex byte, version int) *DP {
	return &DP{acc: acc, devIndex: devIndex, version: version}
}

// Fault returns the DP's latched fault code, set by the last operation
// that received a probe FAULT response (spec.md §4.2's fault-latching
// contract). Callers consult this after a suspect batch rather than on
// every call, mirroring how ADIv5 surfaces sticky-err to the debugger.
func (dp *DP) Fault() uint32 { return dp.fault }

// ClearFault resets the latch, typically after the caller has read and
// acted on it (e.g. issuing an ABORT write).
func (dp *DP) ClearFault() { dp.fault = 0 }

// SetTargetSel records the SWD-multidrop TARGETSEL value on the handle
// (spec.md §4.3.6); nil clears it. The DP's own operations do not send
// the recorded value to the probe.
func (dp *DP) SetTargetSel(sel *uint32) { dp.targetSel = sel }

func (dp *DP) latch(err error) error {
	var f *remote.Fault
	if errors.As(err, &f) {
		dp.fault = f.Code
	}
	return err
}

// DPRead implements spec.md §4.2's dp_read(dp, address) -> u32.
func (dp *DP) DPRead(addr byte) (uint32, error) {
	v, err := dp.acc.DPRead(dp.devIndex, addr)
	return v, dp.latch(err)
}

// RawAccess implements spec.md §4.2's raw_access: a single posted
// DP/AP cycle, used by callers (typically a higher-level reg/run-
// control collaborator) that need the raw posted-read semantics ADIv5
// defines rather than one of the named dp_read/ap_read contracts.
func (dp *DP) RawAccess(readNotWrite bool, addr byte, value uint32) (uint32, error) {
	v, err := dp.acc.LowAccess(dp.devIndex, readNotWrite, addr, value)
	return v, dp.latch(err)
}

// AP is an Access Port handle (spec.md §3): a back-reference to its
// owning DP, an 8-bit AP-select index, and a cached CSW control word.
// ADIv6 targets additionally carry a 64-bit DP-resource-bus AP base
// address in place of the AP-select index.
type AP struct {
	dp     *DP
	apSel  byte
	csw    uint32
	apBase uint64 // ADIv6 only
	adiv6  bool
}

// NewAP builds an ADIv5-style AP bound to dp, with AP-select index
// apSel and initial CSW value csw.
func NewAP(dp *DP, apSel byte, csw uint32) *AP {
	return &AP{dp: dp, apSel: apSel, csw: csw}
}

// NewADIv6AP builds an ADIv6-style AP addressed by a DP-resource-bus
// base address rather than an 8-bit AP-select index (spec.md §3).
func NewADIv6AP(dp *DP, apBase uint64, csw uint32) *AP {
	return &AP{dp: dp, apBase: apBase, csw: csw, adiv6: true}
}

// CSW returns the AP's cached control/status word.
func (ap *AP) CSW() uint32 { return ap.csw }

// SetCSW updates the cached control/status word used by subsequent
// reads and writes.
func (ap *AP) SetCSW(csw uint32) { ap.csw = csw }

// APRead implements spec.md §4.2's ap_read(ap, address) -> u32. ADIv6
// APs have no per-register read/write shorthand in the accelerator
// surface (spec.md only defines bulk mem_read/mem_write for ADIv6) —
// calling APRead on one is a caller error surfaced as NotSupported.
func (ap *AP) APRead(addr byte) (uint32, error) {
	if ap.adiv6 {
		return 0, remote.NotSupported{}
	}
	v, err := ap.dp.acc.APRead(ap.dp.devIndex, ap.apSel, addr)
	return v, ap.dp.latch(err)
}

// APWrite implements spec.md §4.2's ap_write(ap, address, value) -> ().
func (ap *AP) APWrite(addr byte, value uint32) error {
	if ap.adiv6 {
		return remote.NotSupported{}
	}
	return ap.dp.latch(ap.dp.acc.APWrite(ap.dp.devIndex, ap.apSel, addr, value))
}

// MemRead implements spec.md §4.2's mem_read(ap, destination, source,
// length) -> (): a bulk read with implicit CSW-controlled width.
func (ap *AP) MemRead(addr uint32, dst []byte) error {
	if ap.adiv6 {
		a6, ok := ap.dp.acc.(remote.ADIv6Accelerator)
		if !ok {
			return remote.NotSupported{}
		}
		return ap.dp.latch(a6.MemReadADIv6(ap.dp.devIndex, ap.apBase, ap.csw, addr, dst))
	}
	return ap.dp.latch(ap.dp.acc.MemRead(ap.dp.devIndex, ap.apSel, ap.csw, addr, dst))
}

// MemWrite implements spec.md §4.2's mem_write(ap, destination, source,
// length, alignment) -> (): alignment governs both the per-cycle width
// and the wire packetization (spec.md §4.3.4).
func (ap *AP) MemWrite(align remote.Alignment, addr uint32, src []byte) error {
	if align.Width() > 1 {
		if addr%uint32(align.Width()) != 0 {
			return remote.ParamError{}
		}
		if len(src)%align.Width() != 0 {
			return remote.ParamError{}
		}
	}
	if ap.adiv6 {
		a6, ok := ap.dp.acc.(remote.ADIv6Accelerator)
		if !ok {
			return remote.NotSupported{}
		}
		return ap.dp.latch(a6.MemWriteADIv6(ap.dp.devIndex, ap.apBase, ap.csw, align, addr, src))
	}
	return ap.dp.latch(ap.dp.acc.MemWrite(ap.dp.devIndex, ap.apSel, ap.csw, align, addr, src))
}
