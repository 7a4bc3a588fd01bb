package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testADIv5Shape = MemReqShape{ReadType: "Am", WriteType: "Aw", AddrWidth: 16, Overhead: 42}

func TestBuildMemReadRequest_FieldOrderAndWidths(t *testing.T) {
	got := BuildMemReadRequest(testADIv5Shape, 0x00, 0x00, 0x23000052, 0x20000000, 10)
	want := "Am" + "00" + "00" + "23000052" + "0000000020000000" + "0000000a"
	assert.Equal(t, want, got)
}

func TestBuildMemWriteRequest_FieldOrderAndWidths(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	got := BuildMemWriteRequest(testADIv5Shape, 0x01, 0x02, 0x23000052, AlignWord, 0x20000004, payload)
	want := "Aw" + "01" + "02" + "23000052" + "02" + "0000000020000004" + "00000004" + "deadbeef"
	assert.Equal(t, want, got)
}

func TestReadBlockSize(t *testing.T) {
	assert.Equal(t, (1024-3)/2, ReadBlockSize(1024))
	assert.Equal(t, (256-3)/2, ReadBlockSize(256))
}

func TestWriteBlockSize_RoundsDownToAlignment(t *testing.T) {
	size := WriteBlockSize(1024, 42, AlignWord)
	assert.Equal(t, 0, size%4)
	assert.LessOrEqual(t, size, (1024-42)/2)
}

func TestWriteBlockSize_ByteAlignmentNoRounding(t *testing.T) {
	assert.Equal(t, (1024-34)/2, WriteBlockSize(1024, 34, AlignByte))
}
