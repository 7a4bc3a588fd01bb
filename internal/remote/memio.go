package remote

import (
	"fmt"

	"github.com/kc1fsz/swdbridge/internal/remote/wirefmt"
)

// DoMemRead implements the bulk-read loop of spec.md §4.2/§4.3.4: the
// wire request is split into blocks of at most ReadBlockSize(wireCap)
// bytes, issued one after another (DP/AP access is strictly serialized,
// spec.md §5). On any per-block failure the read is aborted and the
// offset is reported in the error — partial data in dst beyond that
// point is left as-is (spec.md's "partial data is undefined").
func DoMemRead(conn *Conn, shape MemReqShape, devIndex, apSel byte, csw uint32, addr uint32, dst []byte) error {
	if len(dst) == 0 {
		return nil // zero-length bulk read is a no-op, spec.md §8.
	}

	blockSize := ReadBlockSize(int(conn.FrameCap()))
	offset := 0
	for offset < len(dst) {
		n := blockSize
		if remaining := len(dst) - offset; n > remaining {
			n = remaining
		}

		req := BuildMemReadRequest(shape, devIndex, apSel, csw, addr+uint32(offset), n)
		payload, err := conn.Request(req, TargetTimeout)
		if err != nil {
			return &blockError{offset: offset, err: err}
		}

		chunk, err := wirefmt.ParseBytes(payload)
		if err != nil {
			return &blockError{offset: offset, err: &CommError{Err: err}}
		}
		if len(chunk) != n {
			return &blockError{offset: offset, err: &CommError{Err: errShortChunk(n, len(chunk))}}
		}
		copy(dst[offset:], chunk)
		offset += n
	}
	return nil
}

// DoMemWrite implements the bulk-write loop of spec.md §4.2/§4.3.4,
// rounding every block down to a multiple of 1<<align so TAR
// auto-increment on the target AP stays aligned.
func DoMemWrite(conn *Conn, shape MemReqShape, overhead int, devIndex, apSel byte, csw uint32, align Alignment, addr uint32, src []byte) error {
	if len(src) == 0 {
		return nil
	}

	blockSize := WriteBlockSize(int(conn.FrameCap()), overhead, align)
	if blockSize <= 0 {
		return &blockError{offset: 0, err: errBlockTooSmall}
	}

	offset := 0
	for offset < len(src) {
		n := blockSize
		if remaining := len(src) - offset; n > remaining {
			n = remaining
		}

		req := BuildMemWriteRequest(shape, devIndex, apSel, csw, align, addr+uint32(offset), src[offset:offset+n])
		if _, err := conn.Request(req, TargetTimeout); err != nil {
			return &blockError{offset: offset, err: err}
		}
		offset += n
	}
	return nil
}

type blockError struct {
	offset int
	err    error
}

func (e *blockError) Error() string {
	return fmt.Sprintf("remote: bulk operation failed at offset %d: %v", e.offset, e.err)
}
func (e *blockError) Unwrap() error { return e.err }

var errBlockTooSmall = fmt.Errorf("remote: wire capacity too small for one aligned block")

func errShortChunk(want, got int) error {
	return fmt.Errorf("remote: short block, expected %d bytes, got %d", want, got)
}
