// Package v4 implements the capability-negotiated remote-protocol path
// (spec.md §4.3.2, §4.3.6, §4.3.7): the 'A' ADIv5 accelerator with
// 64-bit-capable addresses, the '6' ADIv6 accelerator, the 'R' RISC-V
// DMI accelerator, and the shared 's' SPI subsystem. Every method is
// always present on Accelerator's method set (the interfaces it
// implements don't vary at runtime), but each ADIv5/ADIv6/RISC-V method
// checks the negotiated accelerations bitmap before dispatching a wire
// request, per spec.md §8's testable property that a probe lacking a
// bit never reaches the version-specific accelerated implementation
// for it. The shared SPI subsystem has no corresponding acceleration
// bit and is always dispatched.
package v4

import (
	"fmt"

	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
)

var adiv5Shape = remote.MemReqShape{
	ReadType:  "Am",
	WriteType: "Aw",
	AddrWidth: 16,
	Overhead:  42,
}

var adiv6Shape = remote.MemReqShape{
	ReadType:  "6m",
	WriteType: "6w",
	AddrWidth: 16,
	Overhead:  57,
}

// Accelerator implements remote.Accelerator, remote.ADIv6Accelerator,
// remote.SPIAccelerator, and remote.RISCVAccelerator for negotiated
// version v4.
type Accelerator struct {
	conn *remote.Conn
	caps remote.Capabilities
}

func New(conn *remote.Conn, caps remote.Capabilities) remote.Accelerator {
	return &Accelerator{conn: conn, caps: caps}
}

func (a *Accelerator) Version() remote.Version { return remote.V4 }
func (a *Accelerator) HeaderOverhead() int      { return adiv5Shape.Overhead }

func (a *Accelerator) DPRead(devIndex byte, addr byte) (uint32, error) {
	if !a.caps.Accelerations.Has(remote.AccelADIv5) {
		return 0, remote.NotSupported{}
	}
	return readWord(a.conn, "Ad"+wirefmt.Hex8(uint64(devIndex), 2)+wirefmt.Hex8(uint64(addr), 2))
}

func (a *Accelerator) APRead(devIndex, apSel, addr byte) (uint32, error) {
	if !a.caps.Accelerations.Has(remote.AccelADIv5) {
		return 0, remote.NotSupported{}
	}
	body := fmt.Sprintf("Aa%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), wirefmt.Hex8(uint64(apSel), 2), wirefmt.Hex8(uint64(addr), 2))
	return readWord(a.conn, body)
}

func (a *Accelerator) APWrite(devIndex, apSel, addr byte, value uint32) error {
	if !a.caps.Accelerations.Has(remote.AccelADIv5) {
		return remote.NotSupported{}
	}
	body := fmt.Sprintf("AW%s%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), wirefmt.Hex8(uint64(apSel), 2), wirefmt.Hex8(uint64(addr), 2), wirefmt.Hex8(uint64(value), 8))
	_, err := a.conn.Request(body, remote.TargetTimeout)
	return err
}

func (a *Accelerator) LowAccess(devIndex byte, readNotWrite bool, addr byte, value uint32) (uint32, error) {
	if !a.caps.Accelerations.Has(remote.AccelADIv5) {
		return 0, remote.NotSupported{}
	}
	rnw := "0"
	if readNotWrite {
		rnw = "1"
	}
	body := fmt.Sprintf("Al%s%s%s%s", wirefmt.Hex8(uint64(devIndex), 2), rnw, wirefmt.Hex8(uint64(addr), 2), wirefmt.Hex8(uint64(value), 8))
	return readWord(a.conn, body)
}

func (a *Accelerator) MemRead(devIndex, apSel byte, csw uint32, addr uint32, dst []byte) error {
	if !a.caps.Accelerations.Has(remote.AccelADIv5) {
		return remote.NotSupported{}
	}
	return remote.DoMemRead(a.conn, adiv5Shape, devIndex, apSel, csw, addr, dst)
}

func (a *Accelerator) MemWrite(devIndex, apSel byte, csw uint32, align remote.Alignment, addr uint32, src []byte) error {
	if !a.caps.Accelerations.Has(remote.AccelADIv5) {
		return remote.NotSupported{}
	}
	return remote.DoMemWrite(a.conn, adiv5Shape, adiv5Shape.Overhead, devIndex, apSel, csw, align, addr, src)
}

// MemReadADIv6 and MemWriteADIv6 use the 64-bit DP-resource-bus AP base
// address in place of the 8-bit AP-select index (spec.md §3's ADIv6 AP
// handle).
func (a *Accelerator) MemReadADIv6(devIndex byte, apBase uint64, csw uint32, addr uint32, dst []byte) error {
	if !a.caps.Accelerations.Has(remote.AccelADIv6) {
		return remote.NotSupported{}
	}
	return doADIv6Read(a.conn, devIndex, apBase, csw, addr, dst)
}

func (a *Accelerator) MemWriteADIv6(devIndex byte, apBase uint64, csw uint32, align remote.Alignment, addr uint32, src []byte) error {
	if !a.caps.Accelerations.Has(remote.AccelADIv6) {
		return remote.NotSupported{}
	}
	return doADIv6Write(a.conn, devIndex, apBase, csw, align, addr, src)
}

func doADIv6Read(conn *remote.Conn, devIndex byte, apBase uint64, csw uint32, addr uint32, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	blockSize := remote.ReadBlockSize(int(conn.FrameCap()))
	offset := 0
	for offset < len(dst) {
		n := blockSize
		if remaining := len(dst) - offset; n > remaining {
			n = remaining
		}
		body := fmt.Sprintf("%s%s%s%s%s%s",
			adiv6Shape.ReadType,
			wirefmt.Hex8(uint64(devIndex), 2),
			wirefmt.Hex8(apBase, 16),
			wirefmt.Hex8(uint64(csw), 8),
			wirefmt.Hex8(uint64(addr)+uint64(offset), 16),
			wirefmt.Hex8(uint64(n), 8),
		)
		payload, err := conn.Request(body, remote.TargetTimeout)
		if err != nil {
			return err
		}
		chunk, err := wirefmt.ParseBytes(payload)
		if err != nil {
			return &remote.CommError{Err: err}
		}
		if len(chunk) != n {
			return &remote.CommError{Err: fmt.Errorf("remote: short ADIv6 block, expected %d bytes, got %d", n, len(chunk))}
		}
		copy(dst[offset:], chunk)
		offset += n
	}
	return nil
}

func doADIv6Write(conn *remote.Conn, devIndex byte, apBase uint64, csw uint32, align remote.Alignment, addr uint32, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	blockSize := remote.WriteBlockSize(int(conn.FrameCap()), adiv6Shape.Overhead, align)
	if blockSize <= 0 {
		return &remote.CommError{Err: fmt.Errorf("remote: wire capacity too small for one aligned ADIv6 block")}
	}
	offset := 0
	for offset < len(src) {
		n := blockSize
		if remaining := len(src) - offset; n > remaining {
			n = remaining
		}
		body := fmt.Sprintf("%s%s%s%s%s%s%s%s",
			adiv6Shape.WriteType,
			wirefmt.Hex8(uint64(devIndex), 2),
			wirefmt.Hex8(apBase, 16),
			wirefmt.Hex8(uint64(csw), 8),
			wirefmt.Hex8(uint64(align), 2),
			wirefmt.Hex8(uint64(addr)+uint64(offset), 16),
			wirefmt.Hex8(uint64(n), 8),
			wirefmt.Bytes(src[offset:offset+n]),
		)
		if _, err := conn.Request(body, remote.TargetTimeout); err != nil {
			return err
		}
		offset += n
	}
	return nil
}

// SPIBegin, SPIXfer and SPIEnd mirror v3's SPI subsystem (spec.md
// §4.3.1), unchanged by v4's capability negotiation.
func (a *Accelerator) SPIBegin(devIndex byte) error {
	_, err := a.conn.Request("sB"+wirefmt.Hex8(uint64(devIndex), 2), remote.TargetTimeout)
	return err
}

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

func (a *Accelerator) SPIEnd(devIndex byte) error {
	_, err := a.conn.Request("sE"+wirefmt.Hex8(uint64(devIndex), 2), remote.TargetTimeout)
	return err
}

// DMIRead and DMIWrite implement the RISC-V DMI accelerator (spec.md
// §4.3.7). idleCycles and addrWidth are per-target parameters the
// caller (internal/riscv) threads through on every request.
func (a *Accelerator) DMIRead(devIndex byte, idleCycles, addrWidth int, addr uint32) (bool, uint32, error) {
	if !a.caps.Accelerations.Has(remote.AccelRISCV) {
		return false, 0, remote.NotSupported{}
	}
	body := fmt.Sprintf("Rd%s%s%s%s",
		wirefmt.Hex8(uint64(devIndex), 2),
		wirefmt.Hex8(uint64(idleCycles), 2),
		wirefmt.Hex8(uint64(addrWidth), 2),
		wirefmt.Hex8(uint64(addr), 8),
	)
	payload, err := a.conn.Request(body, remote.TargetTimeout)
	if err != nil {
		return false, 0, err
	}
	if len(payload) < 1 {
		return false, 0, &remote.CommError{Err: fmt.Errorf("remote: short DMI read response")}
	}
	ok := payload[0] == '1'
	v, _, err := wirefmt.ParseHex8(payload[1:], 8)
	if err != nil {
		return false, 0, &remote.CommError{Err: err}
	}
	return ok, uint32(v), nil
}

func (a *Accelerator) DMIWrite(devIndex byte, idleCycles, addrWidth int, addr, value uint32) (bool, error) {
	if !a.caps.Accelerations.Has(remote.AccelRISCV) {
		return false, remote.NotSupported{}
	}
	body := fmt.Sprintf("Rw%s%s%s%s%s",
		wirefmt.Hex8(uint64(devIndex), 2),
		wirefmt.Hex8(uint64(idleCycles), 2),
		wirefmt.Hex8(uint64(addrWidth), 2),
		wirefmt.Hex8(uint64(addr), 8),
		wirefmt.Hex8(uint64(value), 8),
	)
	payload, err := a.conn.Request(body, remote.TargetTimeout)
	if err != nil {
		return false, err
	}
	return len(payload) > 0 && payload[0] == '1', nil
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
