package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kc1fsz/swdbridge/internal/remote"
)

type fakeRISCV struct {
	readOK    bool
	readVal   uint32
	readErr   error
	writeOK   bool
	writeErr  error
	gotRead   [4]int // devIndex, idleCycles, addrWidth, addr
	gotWrite  [5]int
	readCalls int
}

func (f *fakeRISCV) DMIRead(devIndex byte, idleCycles, addrWidth int, addr uint32) (bool, uint32, error) {
	f.readCalls++
	f.gotRead = [4]int{int(devIndex), idleCycles, addrWidth, int(addr)}
	return f.readOK, f.readVal, f.readErr
}

func (f *fakeRISCV) DMIWrite(devIndex byte, idleCycles, addrWidth int, addr, value uint32) (bool, error) {
	f.gotWrite = [5]int{int(devIndex), idleCycles, addrWidth, int(addr), int(value)}
	return f.writeOK, f.writeErr
}

func TestDMI_Read_PassesParametersThrough(t *testing.T) {
	acc := &fakeRISCV{readOK: true, readVal: 0x1234}
	dmi := New(acc, 0x02, 7, 32)

	ok, v, err := dmi.Read(0x40000000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x1234), v)
	assert.Equal(t, [4]int{2, 7, 32, 0x40000000}, acc.gotRead)
}

func TestDMI_Write_PassesParametersThrough(t *testing.T) {
	acc := &fakeRISCV{writeOK: true}
	dmi := New(acc, 0x02, 7, 32)

	ok, err := dmi.Write(0x40000000, 0xcafebabe)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, [5]int{2, 7, 32, 0x40000000, int(uint32(0xcafebabe))}, acc.gotWrite)
}

func TestDMI_Read_LatchesFault(t *testing.T) {
	acc := &fakeRISCV{readErr: &remote.Fault{Code: 0x09}}
	dmi := New(acc, 0, 0, 32)

	_, _, err := dmi.Read(0)
	require.Error(t, err)
	assert.Equal(t, uint32(0x09), dmi.Fault())
}

func TestDMI_Write_LatchesFault(t *testing.T) {
	acc := &fakeRISCV{writeErr: &remote.Fault{Code: 0x0a}}
	dmi := New(acc, 0, 0, 32)

	_, err := dmi.Write(0, 0)
	require.Error(t, err)
	assert.Equal(t, uint32(0x0a), dmi.Fault())
}

func TestDMI_Read_NonFaultErrorDoesNotLatch(t *testing.T) {
	acc := &fakeRISCV{readErr: remote.NotSupported{}}
	dmi := New(acc, 0, 0, 32)

	_, _, err := dmi.Read(0)
	require.Error(t, err)
	assert.Equal(t, uint32(0), dmi.Fault())
}
