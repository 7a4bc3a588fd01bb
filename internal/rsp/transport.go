package rsp

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// maxPacketLen bounds the GDB payload buffer; spec.md leaves this
	// implementation-defined, matching qSupported's PacketSize answer.
	maxPacketLen = 16 * 1024

	ackTimeout = 2 * time.Second
	maxRetries = 3
)

// RemoteControlHandler processes a completed remote-control frame
// (spec.md §4.5). It is the "external collaborator" the interleaved
// capture hands finished frames to.
type RemoteControlHandler interface {
	HandleRemoteControl(payload []byte)
}

// Transport is a single GDB connection's packet transport. One Transport
// owns one net.Conn for the lifetime of a debugger session; there is no
// package-level NoAck flag or connection (spec.md §9 Design Note) — both
// are fields here.
type Transport struct {
	conn   net.Conn
	r      *bufio.Reader
	logger *log.Logger
	rc     RemoteControlHandler

	noAck bool

	state  State
	buf    []byte
	csum   byte
	rxHi   byte
}

// New creates a Transport over an already-accepted GDB connection. rc may
// be nil if remote-control packets are not supported on this connection.
func New(conn net.Conn, rc RemoteControlHandler, logger *log.Logger) *Transport {
	return &Transport{
		conn:   conn,
		r:      bufio.NewReader(conn),
		logger: logger,
		rc:     rc,
		state:  Idle,
	}
}

// SetNoAckMode implements spec.md §4.1's NoAck flag invariants: disabling
// NoAck while it is set emits one final ACK before returning.
func (t *Transport) SetNoAckMode(enable bool) {
	if t.noAck && !enable {
		t.conn.Write([]byte{'+'})
	}
	t.noAck = enable
}

// NoAckMode reports whether NoAck mode is currently active.
func (t *Transport) NoAckMode() bool {
	return t.noAck
}

// EOT is the sentinel payload GetPacket returns when the connection sends
// 0x04 (Ctrl-D), signalling the debugger wants to close the session.
var EOT = []byte{eot}

// GetPacket blocks until one complete, accepted GDB packet is captured,
// returning its decoded payload. Remote-control frames (spec.md §4.5) are
// consumed and dispatched internally without returning from GetPacket; a
// bad checksum is NACKed and discarded without returning either — only a
// successfully accepted GDB packet, or EOT, causes GetPacket to return.
func (t *Transport) GetPacket() ([]byte, error) {
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			return nil, err
		}

		switch t.state {
		case Idle:
			switch c {
			case startOfGdb:
				t.beginGdbCapture()
			case startOfRC:
				t.beginRemoteCapture()
			case eot:
				return EOT, nil
			default:
				// discard
			}

		case GdbCapture:
			switch c {
			case startOfGdb:
				t.beginGdbCapture()
			case endOfGdb:
				t.state = ChecksumUpper
			case escapeChar:
				t.csum += c
				t.state = GdbEscape
			default:
				if len(t.buf) >= maxPacketLen {
					t.resetToIdle()
					continue
				}
				t.csum += c
				t.buf = append(t.buf, c)
			}

		case GdbEscape:
			if len(t.buf) >= maxPacketLen {
				t.resetToIdle()
				continue
			}
			t.csum += c
			t.buf = append(t.buf, c^0x20)
			t.state = GdbCapture

		case ChecksumUpper:
			nibble, ok := hexNibble(c)
			if !ok {
				t.nack()
				t.resetToIdle()
				continue
			}
			t.rxHi = nibble
			t.state = ChecksumLower

		case ChecksumLower:
			nibble, ok := hexNibble(c)
			if !ok {
				t.nack()
				t.resetToIdle()
				continue
			}
			received := t.rxHi<<4 | nibble
			payload := t.buf
			t.resetToIdle()

			if t.noAck {
				// NoAck mode skips verification entirely (spec.md §4.1).
				return payload, nil
			}
			if received != checksum8(payload) {
				t.conn.Write([]byte{'-'})
				continue
			}
			t.conn.Write([]byte{'+'})
			return payload, nil

		case RemoteCapture:
			switch c {
			case startOfGdb:
				t.beginGdbCapture()
			case startOfRC:
				t.beginRemoteCapture()
			case endOfGdb:
				payload := t.buf
				t.resetToIdle()
				if t.rc != nil {
					t.rc.HandleRemoteControl(payload)
				}
			default:
				if len(t.buf) >= maxPacketLen {
					t.resetToIdle()
					continue
				}
				t.buf = append(t.buf, c)
			}
		}
	}
}

func (t *Transport) beginGdbCapture() {
	t.buf = t.buf[:0]
	t.csum = 0
	t.state = GdbCapture
}

func (t *Transport) beginRemoteCapture() {
	t.buf = t.buf[:0]
	t.state = RemoteCapture
}

func (t *Transport) resetToIdle() {
	t.buf = t.buf[:0]
	t.csum = 0
	t.state = Idle
}

func (t *Transport) nack() {
	t.conn.Write([]byte{'-'})
}

// PutPacket sends "$" + preamble + (hex-encoded, if hexify) data + "#" +
// checksum, retrying on NACK or ACK timeout up to maxRetries times
// (spec.md §4.1). preamble and data are escaped per the GDB RSP rules;
// the checksum is computed over the unescaped bytes.
func (t *Transport) PutPacket(preamble, data string, hexify bool) error {
	body := preamble
	if hexify {
		body += hex.EncodeToString([]byte(data))
	} else {
		body += data
	}
	escaped := escapeGdb(body)
	sum := checksum8([]byte(body))
	frame := fmt.Sprintf("$%s#%02x", escaped, sum)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if _, err := t.conn.Write([]byte(frame)); err != nil {
			return err
		}
		if t.noAck {
			return nil
		}

		ok, err := t.waitForAck()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if t.logger != nil {
			t.logger.Warn("gdb packet not acked, retrying", "attempt", attempt+1)
		}
	}
	return fmt.Errorf("rsp: put_packet exceeded %d retries", maxRetries)
}

// PutNotification sends "%" + escaped data + "#" + checksum with no ACK
// wait (spec.md §4.1).
func (t *Transport) PutNotification(data string) error {
	escaped := escapeGdb(data)
	sum := checksum8([]byte(data))
	frame := fmt.Sprintf("%%%s#%02x", escaped, sum)
	_, err := t.conn.Write([]byte(frame))
	return err
}

func (t *Transport) waitForAck() (bool, error) {
	t.conn.SetReadDeadline(time.Now().Add(ackTimeout))
	defer t.conn.SetReadDeadline(time.Time{})

	c, err := t.r.ReadByte()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return false, nil
		}
		return false, err
	}
	return c == '+', nil
}

// escapeGdb replaces every '#', '$', and escapeChar byte in s with
// escapeChar followed by the byte XOR 0x20, per spec.md §4.1.
func escapeGdb(s string) string {
	if !strings.ContainsAny(s, "#$}") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '#' || c == '$' || c == escapeChar {
			b.WriteByte(escapeChar)
			b.WriteByte(c ^ 0x20)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}
