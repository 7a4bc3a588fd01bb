// Package session threads the state that the original C firmware-host
// tooling kept as process globals (spec.md §9 Design Note: "replace
// globals ... with an explicit session/context struct threaded through
// calls") through an explicit struct instead: the NoAck flag, the open
// serial line, and the logger every other package receives by
// reference.
package session

import (
	"github.com/charmbracelet/log"

	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/rsp"
	"github.com/kc1fsz/swdbridge/internal/serial"
)

// Session holds everything attached to one debugger connection's
// lifetime: the serial link to the probe, the negotiated remote
// protocol, and the GDB transport's NoAck state.
type Session struct {
	Logger *log.Logger

	Port *serial.Port
	Line *serial.Line
	Conn *remote.Conn

	Negotiated remote.Negotiated
	Transport  *rsp.Transport
}

// Close releases the serial port. It does not close the GDB TCP
// connection, which outlives any single negotiation and is owned by
// the caller.
func (s *Session) Close() error {
	if s.Port == nil {
		return nil
	}
	return s.Port.Close()
}

// NoAckMode reports whether the GDB transport for this session has
// entered NoAck mode (spec.md §3's NoAck flag: process-wide for the
// duration of one debugger session, never reset mid-session).
func (s *Session) NoAckMode() bool {
	if s.Transport == nil {
		return false
	}
	return s.Transport.NoAckMode()
}
