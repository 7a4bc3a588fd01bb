// Package v3 implements the v3_adiv5 remote-protocol path (spec.md
// §4.3.2): the 'A' ADIv5-accelerator packet family, still single-width
// (32-bit) addresses, plus the 's' SPI subsystem. Structured
// fault/exception reporting (the other v3 addition) is handled
// uniformly by remote.DecodeResponse for every version that sends the
// longer 'E' error payload — there is nothing version-specific to add
// here for it.
package v3

import (
	"fmt"

	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
)

var memShape = remote.MemReqShape{
	ReadType:  "Am",
	WriteType: "Aw",
	AddrWidth: 8,
	Overhead:  34,
}

// Accelerator implements remote.Accelerator and remote.SPIAccelerator
// for negotiated version v3.
type Accelerator struct {
	conn *remote.Conn
}

func New(conn *remote.Conn) remote.Accelerator {
	return &Accelerator{conn: conn}
}

func (a *Accelerator) Version() remote.Version { return remote.V3 }
func (a *Accelerator) HeaderOverhead() int      { return memShape.Overhead }

func (a *Accelerator) DPRead(devIndex byte, addr byte) (uint32, error) {
	return readWord(a.conn, "Ad"+wirefmt.Hex8(uint64(devIndex), 2)+wirefmt.Hex8(uint64(addr), 2))
}

func (a *Accelerator) APRead(devIndex, apSel, addr byte) (uint32, error) {
	body := fmt.Sprintf("Aa%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), wirefmt.Hex8(uint64(apSel), 2), wirefmt.Hex8(uint64(addr), 2))
	return readWord(a.conn, body)
}

func (a *Accelerator) APWrite(devIndex, apSel, addr byte, value uint32) error {
	body := fmt.Sprintf("AW%s%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), wirefmt.Hex8(uint64(apSel), 2), wirefmt.Hex8(uint64(addr), 2), wirefmt.Hex8(uint64(value), 8))
	_, err := a.conn.Request(body, remote.TargetTimeout)
	return err
}

func (a *Accelerator) LowAccess(devIndex byte, readNotWrite bool, addr byte, value uint32) (uint32, error) {
	rnw := "0"
	if readNotWrite {
		rnw = "1"
	}
	body := fmt.Sprintf("Al%s%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), rnw, wirefmt.Hex8(uint64(addr), 2), wirefmt.Hex8(uint64(value), 8))
	return readWord(a.conn, body)
}

func (a *Accelerator) MemRead(devIndex, apSel byte, csw uint32, addr uint32, dst []byte) error {
	return remote.DoMemRead(a.conn, memShape, devIndex, apSel, csw, addr, dst)
}

func (a *Accelerator) MemWrite(devIndex, apSel byte, csw uint32, align remote.Alignment, addr uint32, src []byte) error {
	return remote.DoMemWrite(a.conn, memShape, memShape.Overhead, devIndex, apSel, csw, align, addr, src)
}

// SPIBegin asserts chip-select for devIndex's SPI bus (spec.md §4.3.1's
// 's' packet-type family).
func (a *Accelerator) SPIBegin(devIndex byte) error {
	_, err := a.conn.Request("sB"+wirefmt.Hex8(uint64(devIndex), 2), remote.TargetTimeout)
	return err
}

// SPIXfer shifts out out's bytes and returns the bytes shifted in.
func (a *Accelerator) SPIXfer(devIndex byte, out []byte) ([]byte, error) {
	body := "sX" + wirefmt.Hex8(uint64(devIndex), 2) + wirefmt.Hex8(uint64(len(out)), 8) + wirefmt.Bytes(out)
	payload, err := a.conn.Request(body, remote.TargetTimeout)
	if err != nil {
		return nil, err
	}
	in, err := wirefmt.ParseBytes(payload)
	if err != nil {
		return nil, &remote.CommError{Err: err}
	}
	return in, nil
}

// SPIEnd deasserts chip-select.
func (a *Accelerator) SPIEnd(devIndex byte) error {
	_, err := a.conn.Request("sE"+wirefmt.Hex8(uint64(devIndex), 2), remote.TargetTimeout)
	return err
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
