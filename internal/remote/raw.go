package remote

import (
	"fmt"
	"time"

	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
)

// Raw exposes the bit-level SWD/JTAG primitives of spec.md §4.3.5. They
// are available on every negotiated version (v0 probes have nothing
// else), so Raw wraps a *Conn directly rather than being part of the
// per-version Accelerator table.
type Raw struct {
	conn    *Conn
	version Version
}

// NewRaw builds the raw-sequence driver for the given connection and
// negotiated version (JTAGCycle reads version to decide whether the
// probe supports it; the tdi/tdo chunking below is the same on every
// version).
func NewRaw(conn *Conn, version Version) *Raw {
	return &Raw{conn: conn, version: version}
}

// maxSeqChunk is the compatibility policy of spec.md §4.3.5: older
// firmware handles at most 32-64 cycles per call, so large TDI/TDO
// transfers are split into chunks no larger than this.
const maxSeqChunk = 64

func (r *Raw) SWDSeqIn(cycles int) (uint32, error) {
	body := fmt.Sprintf("Si%s", wirefmt.Hex8(uint64(cycles), 2))
	payload, err := r.conn.Request(body, TargetTimeout)
	if err != nil {
		return 0, err
	}
	v, _, err := wirefmt.ParseHex8(payload, 8)
	if err != nil {
		return 0, &CommError{Err: err}
	}
	return uint32(v), nil
}

func (r *Raw) SWDSeqInParity(cycles int) (uint32, bool, error) {
	body := fmt.Sprintf("Sp%s", wirefmt.Hex8(uint64(cycles), 2))
	payload, err := r.conn.Request(body, TargetTimeout)
	if err != nil {
		return 0, false, err
	}
	v, rest, err := wirefmt.ParseHex8(payload, 8)
	if err != nil {
		return 0, false, &CommError{Err: err}
	}
	parityOK := len(rest) > 0 && rest[0] == '1'
	return uint32(v), parityOK, nil
}

func (r *Raw) SWDSeqOut(value uint32, cycles int) error {
	body := fmt.Sprintf("So%s%s", wirefmt.Hex8(uint64(cycles), 2), wirefmt.Hex8(uint64(value), 8))
	_, err := r.conn.Request(body, TargetTimeout)
	return err
}

// SWDSeqOutParity emits value, its parity bit, then at least 8 idle
// cycles for ADI-specification conformance (spec.md §4.3.5); the idle
// padding is the probe firmware's job, not something the host appends.
func (r *Raw) SWDSeqOutParity(value uint32, cycles int) error {
	body := fmt.Sprintf("SO%s%s", wirefmt.Hex8(uint64(cycles), 2), wirefmt.Hex8(uint64(value), 8))
	_, err := r.conn.Request(body, TargetTimeout)
	return err
}

func (r *Raw) JTAGReset() error {
	_, err := r.conn.Request("Jr", TargetTimeout)
	return err
}

func (r *Raw) JTAGNext(tms, tdi bool) (tdo bool, err error) {
	body := fmt.Sprintf("Jn%s%s", boolHex(tms), boolHex(tdi))
	payload, err := r.conn.Request(body, TargetTimeout)
	if err != nil {
		return false, err
	}
	return len(payload) > 0 && payload[0] == '1', nil
}

func (r *Raw) JTAGTMSSeq(bits uint64, count int) error {
	body := fmt.Sprintf("Jt%s%s", wirefmt.Hex8(uint64(count), 2), wirefmt.Hex8(bits, 16))
	_, err := r.conn.Request(body, TargetTimeout)
	return err
}

// JTAGTDITDOSeq splits count cycles into chunks of at most maxSeqChunk,
// the compatibility policy spec.md §4.3.5 documents explicitly as a
// firmware limitation rather than a wire-format limit.
func (r *Raw) JTAGTDITDOSeq(out []byte, finalTMS bool, cycles int) ([]byte, error) {
	var in []byte
	remaining := cycles
	offset := 0
	for remaining > 0 {
		chunk := remaining
		if chunk > maxSeqChunk {
			chunk = maxSeqChunk
		}
		chunkBytes := (chunk + 7) / 8
		var outChunk []byte
		if out != nil {
			outChunk = out[offset : offset+chunkBytes]
		}
		isLast := chunk == remaining
		body := fmt.Sprintf("Js%s%s%s", wirefmt.Hex8(uint64(chunk), 2), boolHex(finalTMS && isLast), wirefmt.Bytes(outChunk))
		payload, err := r.conn.Request(body, TargetTimeout)
		if err != nil {
			return nil, err
		}
		chunkIn, err := wirefmt.ParseBytes(payload)
		if err != nil {
			return nil, &CommError{Err: err}
		}
		in = append(in, chunkIn...)
		offset += chunkBytes
		remaining -= chunk
	}
	return in, nil
}

// JTAGCycle is available from v2 onward (spec.md §4.3.2, §4.3.5).
func (r *Raw) JTAGCycle(tms, tdi bool, count int) error {
	if r.version < V2 {
		return NotSupported{}
	}
	body := fmt.Sprintf("Jc%s%s%s", boolHex(tms), boolHex(tdi), wirefmt.Hex8(uint64(count), 4))
	_, err := r.conn.Request(body, TargetTimeout)
	return err
}

func boolHex(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// TargetTimeout is the longer read timeout used while a target operation
// is outstanding (spec.md §4.4: "longer for target operations").
const TargetTimeout = 2 * time.Second
