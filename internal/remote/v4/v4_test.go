package v4

import (
	"os"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kc1fsz/swdbridge/internal/remote"
	"github.com/kc1fsz/swdbridge/internal/serial"
)

func openTestConn(t *testing.T) (*remote.Conn, *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		master.Close()
		slave.Close()
	})
	port := serial.NewPortFromFile(master, "pty", nil)
	line := serial.NewLine(port)
	conn := remote.NewConn(line, nil)
	conn.SetFrameCap(remote.FrameCapModern)
	return conn, slave
}

func exchange(t *testing.T, slave *os.File, wantReq, reply string) {
	t.Helper()
	go func() {
		buf := make([]byte, 512)
		n, err := slave.Read(buf)
		if err != nil {
			return
		}
		assert.Equal(t, "!"+wantReq+"#", string(buf[:n]))
		slave.Write([]byte("&" + reply + "#"))
	}()
}

func TestAccelerator_Version(t *testing.T) {
	conn, _ := openTestConn(t)
	acc := New(conn, remote.Capabilities{})
	assert.Equal(t, remote.V4, acc.Version())
	assert.Equal(t, 42, acc.HeaderOverhead())
}

func adiv6Caps() remote.Capabilities {
	return remote.Capabilities{Accelerations: remote.AccelADIv6}
}

func riscvCaps() remote.Capabilities {
	return remote.Capabilities{Accelerations: remote.AccelRISCV}
}

func TestAccelerator_MemReadADIv6_OneBlock(t *testing.T) {
	conn, slave := openTestConn(t)
	apBase := uint64(0x1000000000000000)
	want := "6m00100000000000000023000052000000000800000000000004"
	exchange(t, slave, want, "Kdeadbeef")

	acc := New(conn, adiv6Caps()).(remote.ADIv6Accelerator)
	dst := make([]byte, 4)
	err := acc.MemReadADIv6(0x00, apBase, 0x23000052, 0x08000000, dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, dst)
}

func TestAccelerator_MemReadADIv6_ShortChunkIsError(t *testing.T) {
	conn, slave := openTestConn(t)
	go func() {
		buf := make([]byte, 512)
		slave.Read(buf)
		slave.Write([]byte("&Kdead#")) // only 2 bytes, caller asked for 4
	}()

	acc := New(conn, adiv6Caps()).(remote.ADIv6Accelerator)
	dst := make([]byte, 4)
	err := acc.MemReadADIv6(0x00, 0, 0, 0, dst)
	assert.Error(t, err)
}

// TestAccelerator_MemReadADIv6_WithoutCapabilityIsNotSupported covers
// spec.md §8's testable property: a v4 probe whose accelerations
// bitmap lacks the relevant bit must never reach the wire-level ADIv6
// implementation.
func TestAccelerator_MemReadADIv6_WithoutCapabilityIsNotSupported(t *testing.T) {
	conn, _ := openTestConn(t)
	acc := New(conn, remote.Capabilities{}).(remote.ADIv6Accelerator)
	err := acc.MemReadADIv6(0x00, 0, 0, 0, make([]byte, 4))
	assert.ErrorIs(t, err, remote.NotSupported{})
}

func TestAccelerator_DMIRead(t *testing.T) {
	conn, slave := openTestConn(t)
	want := "Rd000a20000000ab"
	exchange(t, slave, want, "K1000000cd")

	acc := New(conn, riscvCaps()).(remote.RISCVAccelerator)
	ok, v, err := acc.DMIRead(0x00, 0x0a, 0x20, 0xab)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(0xcd), v)
}

func TestAccelerator_DMIWrite_NotOK(t *testing.T) {
	conn, slave := openTestConn(t)
	want := "Rw000a2000000ab0000000cd"
	exchange(t, slave, want, "K0")

	acc := New(conn, riscvCaps()).(remote.RISCVAccelerator)
	ok, err := acc.DMIWrite(0x00, 0x0a, 0x20, 0xab0, 0xcd)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccelerator_DMIRead_WithoutCapabilityIsNotSupported(t *testing.T) {
	conn, _ := openTestConn(t)
	acc := New(conn, remote.Capabilities{}).(remote.RISCVAccelerator)
	_, _, err := acc.DMIRead(0x00, 0x0a, 0x20, 0xab)
	assert.ErrorIs(t, err, remote.NotSupported{})
}

// TestAccelerator_DPRead_WithoutADIv5CapabilityIsNotSupported is the
// literal property spec.md §8 names: "For any v4 probe whose
// acceleration bitmap lacks ADIv5, adiv5_init is never dispatched to a
// version-specific accelerated implementation."
func TestAccelerator_DPRead_WithoutADIv5CapabilityIsNotSupported(t *testing.T) {
	conn, _ := openTestConn(t)
	acc := New(conn, remote.Capabilities{})
	_, err := acc.DPRead(0x00, 0x01)
	assert.ErrorIs(t, err, remote.NotSupported{})
}

func TestAccelerator_DPRead_WithADIv5Capability(t *testing.T) {
	conn, slave := openTestConn(t)
	exchange(t, slave, "Ad0001", "K000000ab")

	acc := New(conn, remote.Capabilities{Accelerations: remote.AccelADIv5})
	v, err := acc.DPRead(0x00, 0x01)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xab), v)
}

func TestAccelerator_SPITransaction(t *testing.T) {
	conn, slave := openTestConn(t)
	go func() {
		buf := make([]byte, 512)

		n, _ := slave.Read(buf)
		assert.Equal(t, "!sB00#", string(buf[:n]))
		slave.Write([]byte("&K#"))

		n, _ = slave.Read(buf)
		assert.Equal(t, "!sX0000000002abcd#", string(buf[:n]))
		slave.Write([]byte("&K1234#"))

		n, _ = slave.Read(buf)
		assert.Equal(t, "!sE00#", string(buf[:n]))
		slave.Write([]byte("&K#"))
	}()

	acc := New(conn, remote.Capabilities{}).(remote.SPIAccelerator)
	require.NoError(t, acc.SPIBegin(0x00))
	in, err := acc.SPIXfer(0x00, []byte{0xab, 0xcd})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, in)
	require.NoError(t, acc.SPIEnd(0x00))
}
