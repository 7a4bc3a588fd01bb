package remote

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
)

// Generic wraps the version-independent link-layer commands of spec.md
// §4.3.3; every negotiated version shares these.
type Generic struct {
	conn *Conn
}

func NewGeneric(conn *Conn) *Generic {
	return &Generic{conn: conn}
}

// ProtocolStart sends "GA" and returns the probe's identification string.
func (g *Generic) ProtocolStart() (string, error) {
	return g.conn.Request("GA", TargetTimeout)
}

// TargetVoltage sends "GV" and returns the voltage string verbatim —
// its exact format (e.g. "3.3V") is probe-defined.
func (g *Generic) TargetVoltage() (string, error) {
	return g.conn.Request("GV", TargetTimeout)
}

func (g *Generic) SetPower(on bool) error {
	_, err := g.conn.Request("GP"+onOffChar(on), TargetTimeout)
	return err
}

func (g *Generic) GetPower() (bool, error) {
	payload, err := g.conn.Request("Gp", TargetTimeout)
	if err != nil {
		return false, err
	}
	return payload == "1", nil
}

func (g *Generic) SetReset(assert bool) error {
	_, err := g.conn.Request("GZ"+onOffChar(assert), TargetTimeout)
	return err
}

func (g *Generic) GetReset() (bool, error) {
	payload, err := g.conn.Request("Gz", TargetTimeout)
	if err != nil {
		return false, err
	}
	return payload == "1", nil
}

// FreqFixed is the probe-side sentinel for "comms frequency cannot be
// changed" (spec.md §4.3.3's GET frequency response).
const FreqFixed = 0xffffffff

func (g *Generic) SetFrequency(hz uint32) error {
	_, err := g.conn.Request("GF"+wirefmt.Hex8(uint64(hz), 8), TargetTimeout)
	return err
}

func (g *Generic) GetFrequency() (uint32, error) {
	payload, err := g.conn.Request("Gf", TargetTimeout)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(payload, 16, 32)
	if err != nil {
		return 0, &CommError{Err: err}
	}
	return uint32(v), nil
}

func (g *Generic) EnableTargetClock(on bool) error {
	_, err := g.conn.Request("GE"+onOffChar(on), TargetTimeout)
	return err
}

// JTAGDevice is a chain entry added via AddJTAGDevice (spec.md §3's JTAG
// device record).
type JTAGDevice struct {
	Index          byte
	IRLen          int
	IRPrescan      int
	IRPostscan     int
	DRPrescan      int
	DRPostscan     int
}

// AddJTAGDevice sends "HJ<index:2><...>" to register a device in the
// probe's JTAG chain model.
func (g *Generic) AddJTAGDevice(dev JTAGDevice) error {
	body := fmt.Sprintf("HJ%s%s%s%s%s%s",
		wirefmt.Hex8(uint64(dev.Index), 2),
		wirefmt.Hex8(uint64(dev.IRLen), 2),
		wirefmt.Hex8(uint64(dev.IRPrescan), 2),
		wirefmt.Hex8(uint64(dev.IRPostscan), 2),
		wirefmt.Hex8(uint64(dev.DRPrescan), 2),
		wirefmt.Hex8(uint64(dev.DRPostscan), 2),
	)
	_, err := g.conn.Request(body, TargetTimeout)
	return err
}

func onOffChar(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SWDMultidrop implements the v4 DP-version/TARGETSEL selection of
// spec.md §4.3.6, sent before initializing a DP.
type SWDMultidrop struct {
	conn *Conn
}

func NewSWDMultidrop(conn *Conn) *SWDMultidrop {
	return &SWDMultidrop{conn: conn}
}

// SelectDPVersion sends "AV<version:2>" (spec.md §4.3.6).
func (m *SWDMultidrop) SelectDPVersion(version int) error {
	_, err := m.conn.Request("AV"+wirefmt.Hex8(uint64(version), 2), time.Second)
	return err
}

// SelectTarget sends "AT<targetsel:8>" for SWD multidrop (spec.md §4.3.6).
func (m *SWDMultidrop) SelectTarget(targetSel uint32) error {
	_, err := m.conn.Request("AT"+wirefmt.Hex8(uint64(targetSel), 8), time.Second)
	return err
}
