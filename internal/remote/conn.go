package remote

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
	"github.com/kc1fsz/swdbridge/internal/serial"
)

// FrameCap bounds a request/response frame's payload, per spec.md §6:
// 1024 bytes on v3+ firmware, 256 bytes on v0.
type FrameCap int

const (
	FrameCapLegacy FrameCap = 256
	FrameCapModern FrameCap = 1024
)

// Conn is the wire-level request/response cycle shared by every
// negotiated protocol version and the version-independent generic
// commands (spec.md §4.3.1).
type Conn struct {
	line     *serial.Line
	cap      FrameCap
	logger   *log.Logger
}

// NewConn wraps an already-open serial line. The frame cap starts at the
// legacy size and is widened by the caller once version negotiation
// (spec.md §4.3.2) confirms v3+ firmware.
func NewConn(line *serial.Line, logger *log.Logger) *Conn {
	return &Conn{line: line, cap: FrameCapLegacy, logger: logger}
}

// SetFrameCap widens or narrows the frame size bound after negotiation.
func (c *Conn) SetFrameCap(cap FrameCap) {
	c.cap = cap
}

// FrameCap reports the current bound.
func (c *Conn) FrameCap() FrameCap {
	return c.cap
}

// Request sends "!" + body + "#" and returns the decoded payload of the
// response, or a typed error per DecodeResponse. A write failure or a
// response timeout is wrapped in *CommError, never left to propagate a
// raw I/O error to callers (spec.md §9 Design Note: no process exit on a
// timed-out probe read).
func (c *Conn) Request(body string, timeout time.Duration) (string, error) {
	frame := wirefmt.Frame(body)
	if c.logger != nil {
		c.logger.Debug("remote tx", "frame", frame)
	}
	if err := c.line.Write([]byte(frame)); err != nil {
		return "", &CommError{Err: err}
	}

	resp, err := c.line.ReadResponse(int(c.cap), timeout)
	if err != nil {
		return "", &CommError{Err: err}
	}
	if c.logger != nil {
		c.logger.Debug("remote rx", "response", resp)
	}

	return DecodeResponse(resp)
}
