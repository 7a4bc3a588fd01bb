// Package serial turns the host serial-port byte stream into framed
// remote-protocol messages and back (spec.md §4.4, component [D]).
//
// It is adapted from the teacher's serial_port.go, which wrapped
// github.com/pkg/term the same way; the difference is that every
// timeout here is a parameter rather than a compile-time constant, and a
// timed-out read returns a typed error instead of the teacher's -1
// sentinel (or, on some of its call sites, an outright os.Exit).
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

// Supported baud rates, mirroring the teacher's serial_port_open switch.
var supportedBauds = map[int]bool{
	1200: true, 2400: true, 4800: true, 9600: true,
	19200: true, 38400: true, 57600: true, 115200: true,
	230400: true, 460800: true, 921600: true,
}

// fder is satisfied by both *term.Term and *os.File; Port needs the raw
// descriptor to drive select(2) directly, since pkg/term has no built-in
// read timeout.
type fder interface {
	io.ReadWriteCloser
	Fd() uintptr
}

// Port is a raw-mode serial connection to a probe. The underlying
// descriptor is an fder so tests can substitute a pty file descriptor for
// the real github.com/pkg/term connection Open returns.
type Port struct {
	rwc    fder
	fd     uintptr
	name   string
	logger *log.Logger
}

// Open opens devicename in raw mode at the given baud rate. baud == 0
// leaves the port's current speed alone, per the teacher's convention.
func Open(devicename string, baud int, logger *log.Logger) (*Port, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %q: %w", devicename, err)
	}

	if baud != 0 {
		if !supportedBauds[baud] {
			t.Close()
			return nil, fmt.Errorf("serial: unsupported baud rate %d", baud)
		}
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("serial: set speed %d on %q: %w", baud, devicename, err)
		}
	}

	p := newPort(t, devicename, logger)
	if logger != nil {
		logger.Debug("serial port opened", "device", devicename, "baud", baud)
	}
	return p, nil
}

// NewPortFromFile wraps an already-open descriptor (a pty master, or
// any other fder) as a Port, bypassing Open's term.Open/baud-rate
// dance. Used by internal/remote's tests to stand in for a real probe
// connection the same way internal/serial's own tests do.
func NewPortFromFile(f fder, name string, logger *log.Logger) *Port {
	return newPort(f, name, logger)
}

func newPort(rwc fder, name string, logger *log.Logger) *Port {
	return &Port{
		rwc:    rwc,
		fd:     rwc.Fd(),
		name:   name,
		logger: logger,
	}
}

// Close releases the underlying file descriptor.
func (p *Port) Close() error {
	if p == nil || p.rwc == nil {
		return nil
	}
	return p.rwc.Close()
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string {
	return p.name
}

// Write sends the full request, retrying partial writes until the whole
// buffer is sent or the descriptor errors (spec.md §4.4 buffer_write).
func (p *Port) Write(data []byte) error {
	for len(data) > 0 {
		n, err := p.rwc.Write(data)
		if err != nil {
			return fmt.Errorf("serial: write to %q: %w", p.name, err)
		}
		if n == 0 {
			return fmt.Errorf("serial: write to %q made no progress", p.name)
		}
		data = data[n:]
	}
	return nil
}

// ErrTimeout is returned by ReadByte when no byte arrives within the
// requested timeout. It replaces the negative sentinel of spec.md §4.4;
// callers (internal/remote) translate it into a communication-failure
// result rather than exiting the process (spec.md §9 Design Note).
var ErrTimeout = fmt.Errorf("serial: read timeout")

// ReadByte blocks for up to timeout waiting for a single byte.
func (p *Port) ReadByte(timeout time.Duration) (byte, error) {
	ready, err := p.waitReadable(timeout)
	if err != nil {
		return 0, err
	}
	if !ready {
		return 0, ErrTimeout
	}

	buf := make([]byte, 1)
	n, err := p.rwc.Read(buf)
	if err != nil {
		if err == io.EOF {
			return 0, fmt.Errorf("serial: %q closed: %w", p.name, io.EOF)
		}
		return 0, fmt.Errorf("serial: read from %q: %w", p.name, err)
	}
	if n != 1 {
		return 0, fmt.Errorf("serial: short read from %q", p.name)
	}
	return buf[0], nil
}

// waitReadable blocks until the descriptor has data available or timeout
// elapses, using select(2) the way the teacher's kiss.go pseudo-terminal
// code does before reading, to avoid stalling the whole process on an
// idle probe.
func (p *Port) waitReadable(timeout time.Duration) (bool, error) {
	var fdSet unix.FdSet
	fd := int(p.fd)
	fdSet.Bits[fd/64] |= 1 << (uint(fd) % 64)

	tv := unix.NsecToTimeval(timeout.Nanoseconds())

	n, err := unix.Select(fd+1, &fdSet, nil, nil, &tv)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("serial: select on %q: %w", p.name, err)
	}
	return n > 0, nil
}
