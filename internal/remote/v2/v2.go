// Package v2 implements the v2_jtag remote-protocol path (spec.md
// §4.3.2): identical ADIv5 acceleration to v1, plus the jtagtap_cycle
// primitive (remote.Raw.JTAGCycle, gated on the negotiated version
// rather than duplicated here).
package v2

import (
	"fmt"

	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
)

var memShape = remote.MemReqShape{
	ReadType:  "Hm",
	WriteType: "Hw",
	AddrWidth: 8,
	Overhead:  34,
}

// Accelerator implements remote.Accelerator for negotiated version v2.
type Accelerator struct {
	conn *remote.Conn
}

func New(conn *remote.Conn) remote.Accelerator {
	return &Accelerator{conn: conn}
}

func (a *Accelerator) Version() remote.Version { return remote.V2 }
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
