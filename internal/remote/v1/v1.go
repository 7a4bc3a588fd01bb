// Package v1 implements the v1_adiv5 remote-protocol path (spec.md
// §4.3.2): single-width (32-bit) addresses and 32-bit AP-select
// semantics, dispatched through the 'H' high-level packet family.
package v1

import (
	"fmt"

	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
)

// memShape is v1's memory-request shape. v2 and v3 declare their own
// with the same 32-bit address width and header overhead (spec.md only
// widens the address field, and so the overhead constant, starting at
// v4); v3's uses the "Am"/"Aw" packet types.
var memShape = remote.MemReqShape{
	ReadType:  "Hm",
	WriteType: "Hw",
	AddrWidth: 8,
	Overhead:  34,
}

// Accelerator implements remote.Accelerator for negotiated version v1.
type Accelerator struct {
	conn *remote.Conn
}

func New(conn *remote.Conn) remote.Accelerator {
	return &Accelerator{conn: conn}
}

func (a *Accelerator) Version() remote.Version { return remote.V1 }
func (a *Accelerator) HeaderOverhead() int      { return memShape.Overhead }

func (a *Accelerator) DPRead(devIndex byte, addr byte) (uint32, error) {
	return readWord(a.conn, "Hd"+wirefmt.Hex8(uint64(devIndex), 2)+wirefmt.Hex8(uint64(addr), 2))
}

func (a *Accelerator) APRead(devIndex, apSel, addr byte) (uint32, error) {
	body := fmt.Sprintf("Ha%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), wirefmt.Hex8(uint64(apSel), 2), wirefmt.Hex8(uint64(addr), 2))
	return readWord(a.conn, body)
}

func (a *Accelerator) APWrite(devIndex, apSel, addr byte, value uint32) error {
	body := fmt.Sprintf("HW%s%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), wirefmt.Hex8(uint64(apSel), 2), wirefmt.Hex8(uint64(addr), 2), wirefmt.Hex8(uint64(value), 8))
	_, err := a.conn.Request(body, remote.TargetTimeout)
	return err
}

// LowAccess issues a single posted DP/AP cycle (spec.md §3's raw_access).
func (a *Accelerator) LowAccess(devIndex byte, readNotWrite bool, addr byte, value uint32) (uint32, error) {
	rnw := "0"
	if readNotWrite {
		rnw = "1"
	}
	body := fmt.Sprintf("Hl%s%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), rnw, wirefmt.Hex8(uint64(addr), 2), wirefmt.Hex8(uint64(value), 8))
	return readWord(a.conn, body)
}

func (a *Accelerator) MemRead(devIndex, apSel byte, csw uint32, addr uint32, dst []byte) error {
	return remote.DoMemRead(a.conn, memShape, devIndex, apSel, csw, addr, dst)
}

func (a *Accelerator) MemWrite(devIndex, apSel byte, csw uint32, align remote.Alignment, addr uint32, src []byte) error {
	return remote.DoMemWrite(a.conn, memShape, memShape.Overhead, devIndex, apSel, csw, align, addr, src)
}

func readWord(conn *remote.Conn, body string) (uint32, error) {
	payload, err := conn.Request(body, remote.TargetTimeout)
	if err != nil {
		return 0, err
	}
	v, _, err := wirefmt.ParseHex8(payload, 8)
	if err != nil {
		return 0, &remote.CommError{Err: err}
	}
	return uint32(v), nil
}
