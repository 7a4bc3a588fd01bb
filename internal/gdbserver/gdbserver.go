// Package gdbserver wires the GDB packet transport (internal/rsp) to
// the ADIv5 access layer (internal/adiv5) and the register/run-control
// collaborator (internal/reg). It implements the minimal command
// dispatcher spec.md's overview diagram marks as an "external
// collaborator" — only the glue needed to exercise a target end to
// end, not a from-scratch GDB stub (spec.md §1's explicit Non-goal:
// "emulating a GDB stub from first principles").
package gdbserver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kc1fsz/swdbridge/internal/adiv5"
	"github.com/kc1fsz/swdbridge/internal/reg"
	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/riscv"
	"github.com/kc1fsz/swdbridge/internal/rsp"
)

// Server dispatches one GDB connection's packets against a single
// target. It implements both rsp.Dispatcher (for ordinary `$`-framed
// GDB packets) and rsp.RemoteControlHandler (for the `!`-framed
// monitor channel of spec.md §4.5).
type Server struct {
	Transport *rsp.Transport
	AP        *adiv5.AP
	Core      reg.Core
	Conn      *remote.Conn
	Logger    *log.Logger

	// DMI is non-nil only when the attached probe negotiated the
	// RISC-V DMI acceleration bit; it backs the "monitor dmi ..."
	// commands rather than reg.Core, since building a full RISC-V
	// abstract-command core (halt/resume/register access over DMI) is
	// out of scope here (spec.md §1's explicit Non-goal).
	DMI *riscv.DMI

	// NumRegs is the register count 'g'/'G' read/write, target-specific
	// (e.g. 16 general-purpose + xpsr for Cortex-M). Not specified by
	// spec.md, which treats reg_read/reg_write as an opaque
	// collaborator; callers set this to match their reg.Core.
	NumRegs int
}

// Handle implements rsp.Dispatcher.
func (s *Server) Handle(packet string) (reply string, closeSession bool) {
	if packet == "" {
		return "", false
	}

	switch {
	case packet == "?":
		return s.haltStatus(), false

	case packet == "g":
		return s.readAllRegs(), false

	case strings.HasPrefix(packet, "G"):
		return s.writeAllRegs(packet[1:]), false

	case strings.HasPrefix(packet, "m"):
		return s.readMem(packet[1:]), false

	case strings.HasPrefix(packet, "M"):
		return s.writeMem(packet[1:]), false

	case packet == "c" || packet == "s":
		return s.resume(packet == "s"), false

	case packet == "QStartNoAckMode":
		s.Transport.SetNoAckMode(true)
		return "OK", false

	case strings.HasPrefix(packet, "qRcmd,"):
		return s.monitor(packet[len("qRcmd,"):]), false

	case strings.HasPrefix(packet, "qSupported"):
		return "PacketSize=4000;QStartNoAckMode+", false

	case packet == "D":
		return "OK", true

	default:
		return "", false // empty reply: "unsupported", per GDB RSP convention
	}
}

// HandleRemoteControl implements rsp.RemoteControlHandler: a payload
// captured between `!` and `#` on the same socket (spec.md §4.5) is
// forwarded verbatim to the probe and the response logged — this is
// the "poke probe controls via the same TCP connection" escape hatch,
// not itself part of the GDB command set.
func (s *Server) HandleRemoteControl(payload []byte) {
	if s.Conn == nil {
		return
	}
	resp, err := s.Conn.Request(string(payload), remote.TargetTimeout)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("remote-control request failed", "payload", string(payload), "err", err)
		}
		return
	}
	if s.Logger != nil {
		s.Logger.Info("remote-control response", "payload", string(payload), "response", resp)
	}
}

func (s *Server) haltStatus() string {
	halted, signal, err := s.Core.HaltPoll()
	if err != nil || !halted {
		return ""
	}
	return fmt.Sprintf("S%02x", signal)
}

func (s *Server) readAllRegs() string {
	var b strings.Builder
	for n := 0; n < s.NumRegs; n++ {
		v, err := s.Core.ReadReg(n)
		if err != nil {
			return "E01"
		}
		b.WriteString(leHex32(v))
	}
	return b.String()
}

func (s *Server) writeAllRegs(hexData string) string {
	if len(hexData) != s.NumRegs*8 {
		return "E02"
	}
	for n := 0; n < s.NumRegs; n++ {
		v, err := parseLEHex32(hexData[n*8 : n*8+8])
		if err != nil {
			return "E02"
		}
		if err := s.Core.WriteReg(n, v); err != nil {
			return "E03"
		}
	}
	return "OK"
}

func (s *Server) readMem(args string) string {
	addr, length, err := parseAddrLen(args)
	if err != nil {
		return "E01"
	}
	dst := make([]byte, length)
	if err := s.AP.MemRead(addr, dst); err != nil {
		return errorReply(err)
	}
	return hex.EncodeToString(dst)
}

func (s *Server) writeMem(args string) string {
	parts := strings.SplitN(args, ":", 2)
	if len(parts) != 2 {
		return "E01"
	}
	addr, length, err := parseAddrLen(parts[0])
	if err != nil {
		return "E01"
	}
	data, err := hex.DecodeString(parts[1])
	if err != nil || uint32(len(data)) != length {
		return "E02"
	}
	if err := s.AP.MemWrite(remote.AlignByte, addr, data); err != nil {
		return errorReply(err)
	}
	return "OK"
}

func (s *Server) resume(stepOnly bool) string {
	if err := s.Core.Resume(stepOnly); err != nil {
		return "E04"
	}
	return s.haltStatus()
}

// monitor decodes a qRcmd payload's hex-encoded command. "dmi read
// <addr>" and "dmi write <addr> <value>" (hex, no 0x prefix) are
// handled directly against s.DMI when present; everything else
// forwards through the same remote-control path as an inbound "!"
// frame, replying with the hex-encoded response text GDB's "monitor"
// command expects.
func (s *Server) monitor(hexCmd string) string {
	cmd, err := hex.DecodeString(hexCmd)
	if err != nil {
		return "E01"
	}

	if reply, handled := s.monitorDMI(string(cmd)); handled {
		return hex.EncodeToString([]byte(reply + "\n"))
	}

	if s.Conn == nil {
		return hex.EncodeToString([]byte("no probe connection\n"))
	}
	resp, err := s.Conn.Request(string(cmd), remote.TargetTimeout)
	if err != nil {
		return hex.EncodeToString([]byte(err.Error() + "\n"))
	}
	return hex.EncodeToString([]byte(resp + "\n"))
}

// monitorDMI handles the "dmi read <addr>"/"dmi write <addr> <value>"
// monitor subcommands against s.DMI (spec.md §4.3.7's dmi_read/
// dmi_write), returning handled=false for any other command so
// monitor falls through to the generic probe passthrough.
func (s *Server) monitorDMI(cmd string) (reply string, handled bool) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 || fields[0] != "dmi" {
		return "", false
	}
	if s.DMI == nil {
		return "dmi: probe did not negotiate RISC-V acceleration", true
	}

	switch {
	case len(fields) == 3 && fields[1] == "read":
		addr, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			return "dmi read: bad address " + fields[2], true
		}
		ok, value, err := s.DMI.Read(uint32(addr))
		if err != nil {
			return fmt.Sprintf("dmi read: %v", err), true
		}
		return fmt.Sprintf("dmi read 0x%x: ok=%t value=0x%08x", addr, ok, value), true

	case len(fields) == 4 && fields[1] == "write":
		addr, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			return "dmi write: bad address " + fields[2], true
		}
		value, err := strconv.ParseUint(fields[3], 16, 32)
		if err != nil {
			return "dmi write: bad value " + fields[3], true
		}
		ok, err := s.DMI.Write(uint32(addr), uint32(value))
		if err != nil {
			return fmt.Sprintf("dmi write: %v", err), true
		}
		return fmt.Sprintf("dmi write 0x%x: ok=%t", addr, ok), true

	default:
		return "usage: monitor dmi read <addr> | monitor dmi write <addr> <value>", true
	}
}

// errorReply maps a (possibly block-wrapped) remote error onto the GDB
// error codes spec.md §7 defines. It unwraps with errors.As rather than
// type-asserting the top-level error directly, since a failure from the
// bulk mem_read/mem_write block loop (internal/remote/memio.go) reaches
// here wrapped in *blockError.
func errorReply(err error) string {
	var fault *remote.Fault
	if errors.As(err, &fault) {
		return "E05"
	}
	var exc *remote.Exception
	if errors.As(err, &exc) {
		return "E06"
	}
	if errors.As(err, &remote.NotSupported{}) {
		return "E07"
	}
	if errors.As(err, &remote.ParamError{}) {
		return "E08"
	}
	return "E09"
}

func parseAddrLen(s string) (addr uint32, length uint32, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("gdbserver: malformed addr,length %q", s)
	}
	a, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return 0, 0, err
	}
	l, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(a), uint32(l), nil
}

// leHex32 encodes v as GDB's register wire format: little-endian byte
// order, hex-encoded.
func leHex32(v uint32) string {
	b := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return hex.EncodeToString(b)
}

func parseLEHex32(s string) (uint32, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 4 {
		return 0, fmt.Errorf("gdbserver: malformed register value %q", s)
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}
