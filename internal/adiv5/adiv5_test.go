package adiv5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kc1fsz/swdbridge/internal/remote"
)

// fakeAccelerator is a remote.Accelerator test double that also
// optionally satisfies remote.ADIv6Accelerator, letting tests exercise
// both AP addressing modes without a real probe connection.
type fakeAccelerator struct {
	dpReadVal  uint32
	dpReadErr  error
	apReadErr  error
	apWriteErr error
	memReadErr error
	memWriteErr error
	adiv6ReadErr  error
	adiv6WriteErr error

	lastMemReadAddr uint32
	lastMemWriteSrc []byte
}

func (f *fakeAccelerator) Version() remote.Version { return remote.V4 }
func (f *fakeAccelerator) HeaderOverhead() int      { return 42 }

func (f *fakeAccelerator) DPRead(devIndex, addr byte) (uint32, error) {
	return f.dpReadVal, f.dpReadErr
}
func (f *fakeAccelerator) APRead(devIndex, apSel, addr byte) (uint32, error) {
	return 0, f.apReadErr
}
func (f *fakeAccelerator) APWrite(devIndex, apSel, addr byte, value uint32) error {
	return f.apWriteErr
}
func (f *fakeAccelerator) LowAccess(devIndex byte, readNotWrite bool, addr byte, value uint32) (uint32, error) {
	return 0, nil
}
func (f *fakeAccelerator) MemRead(devIndex, apSel byte, csw uint32, addr uint32, dst []byte) error {
	f.lastMemReadAddr = addr
	return f.memReadErr
}
func (f *fakeAccelerator) MemWrite(devIndex, apSel byte, csw uint32, align remote.Alignment, addr uint32, src []byte) error {
	f.lastMemWriteSrc = src
	return f.memWriteErr
}

// blockErr mimics the *blockError wrapper remote.DoMemRead/DoMemWrite
// apply to every per-block failure (internal/remote/memio.go): it
// carries the underlying probe error behind an Unwrap, the same shape
// a real multi-block mem_read/mem_write failure arrives in.
type blockErr struct{ err error }

func (e *blockErr) Error() string { return "adiv5_test: block error: " + e.err.Error() }
func (e *blockErr) Unwrap() error { return e.err }

// adiv6Accelerator wraps fakeAccelerator to additionally implement
// remote.ADIv6Accelerator for AP.adiv6 test cases.
type adiv6Accelerator struct {
	*fakeAccelerator
}

func (f adiv6Accelerator) MemReadADIv6(devIndex byte, apBase uint64, csw uint32, addr uint32, dst []byte) error {
	f.lastMemReadAddr = addr
	return f.adiv6ReadErr
}
func (f adiv6Accelerator) MemWriteADIv6(devIndex byte, apBase uint64, csw uint32, align remote.Alignment, addr uint32, src []byte) error {
	f.lastMemWriteSrc = src
	return f.adiv6WriteErr
}

func TestDP_DPRead_LatchesFault(t *testing.T) {
	acc := &fakeAccelerator{dpReadErr: &remote.Fault{Code: 0x05}}
	dp := NewDP(acc, 0, 0)

	_, err := dp.DPRead(0x00)
	require.Error(t, err)
	assert.Equal(t, uint32(0x05), dp.Fault())
}

func TestDP_ClearFault(t *testing.T) {
	acc := &fakeAccelerator{dpReadErr: &remote.Fault{Code: 0x05}}
	dp := NewDP(acc, 0, 0)
	dp.DPRead(0)
	require.Equal(t, uint32(0x05), dp.Fault())
	dp.ClearFault()
	assert.Equal(t, uint32(0), dp.Fault())
}

func TestDP_DPRead_NonFaultErrorDoesNotLatch(t *testing.T) {
	acc := &fakeAccelerator{dpReadErr: remote.NotSupported{}}
	dp := NewDP(acc, 0, 0)
	_, err := dp.DPRead(0)
	require.Error(t, err)
	assert.Equal(t, uint32(0), dp.Fault())
}

func TestAP_APRead_LatchesFaultThroughDP(t *testing.T) {
	acc := &fakeAccelerator{apReadErr: &remote.Fault{Code: 0x07}}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0, 0)

	_, err := ap.APRead(0x0c)
	require.Error(t, err)
	assert.Equal(t, uint32(0x07), dp.Fault())
}

func TestAP_APRead_NotSupportedOnADIv6(t *testing.T) {
	acc := &fakeAccelerator{}
	dp := NewDP(acc, 0, 0)
	ap := NewADIv6AP(dp, 0x1000, 0)

	_, err := ap.APRead(0x00)
	assert.ErrorIs(t, err, remote.NotSupported{})
}

func TestAP_APWrite_NotSupportedOnADIv6(t *testing.T) {
	acc := &fakeAccelerator{}
	dp := NewDP(acc, 0, 0)
	ap := NewADIv6AP(dp, 0x1000, 0)

	err := ap.APWrite(0x00, 0)
	assert.ErrorIs(t, err, remote.NotSupported{})
}

func TestAP_MemRead_DispatchesADIv5(t *testing.T) {
	acc := &fakeAccelerator{}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0x01, 0x23000052)

	dst := make([]byte, 4)
	require.NoError(t, ap.MemRead(0x20000000, dst))
	assert.Equal(t, uint32(0x20000000), acc.lastMemReadAddr)
}

func TestAP_MemRead_DispatchesADIv6(t *testing.T) {
	inner := &fakeAccelerator{}
	acc := adiv6Accelerator{inner}
	dp := NewDP(acc, 0, 0)
	ap := NewADIv6AP(dp, 0x1000000000000000, 0x23000052)

	dst := make([]byte, 4)
	require.NoError(t, ap.MemRead(0x08000000, dst))
	assert.Equal(t, uint32(0x08000000), inner.lastMemReadAddr)
}

func TestAP_MemRead_ADIv6WithoutAccelerator_NotSupported(t *testing.T) {
	acc := &fakeAccelerator{} // does not implement remote.ADIv6Accelerator
	dp := NewDP(acc, 0, 0)
	ap := NewADIv6AP(dp, 0x1000, 0)

	dst := make([]byte, 4)
	err := ap.MemRead(0, dst)
	assert.ErrorIs(t, err, remote.NotSupported{})
}

func TestAP_MemWrite_RejectsMisalignedAddress(t *testing.T) {
	acc := &fakeAccelerator{}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0, 0)

	err := ap.MemWrite(remote.AlignWord, 0x20000001, make([]byte, 4))
	assert.ErrorIs(t, err, remote.ParamError{})
}

func TestAP_MemWrite_RejectsMisalignedLength(t *testing.T) {
	acc := &fakeAccelerator{}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0, 0)

	err := ap.MemWrite(remote.AlignWord, 0x20000000, make([]byte, 3))
	assert.ErrorIs(t, err, remote.ParamError{})
}

func TestAP_MemWrite_ByteAlignmentNeedsNoAlignmentCheck(t *testing.T) {
	acc := &fakeAccelerator{}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0, 0)

	err := ap.MemWrite(remote.AlignByte, 0x20000001, []byte{0x01, 0x02, 0x03})
	assert.NoError(t, err)
}

func TestAP_CSW_GetSet(t *testing.T) {
	acc := &fakeAccelerator{}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0, 0x23000042)
	assert.Equal(t, uint32(0x23000042), ap.CSW())
	ap.SetCSW(0x23000052)
	assert.Equal(t, uint32(0x23000052), ap.CSW())
}

// TestAP_MemRead_LatchesFaultThroughBlockWrapper reproduces a real
// multi-block mem_read failure: the probe error arrives wrapped behind
// *blockError (internal/remote/memio.go), and DP.latch must still find
// it via errors.As rather than a direct type assertion.
func TestAP_MemRead_LatchesFaultThroughBlockWrapper(t *testing.T) {
	acc := &fakeAccelerator{memReadErr: &blockErr{err: &remote.Fault{Code: 0x13}}}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0, 0)

	err := ap.MemRead(0x20000000, make([]byte, 4))
	require.Error(t, err)
	assert.Equal(t, uint32(0x13), dp.Fault())
}

func TestAP_MemWrite_LatchesFaultThroughBlockWrapper(t *testing.T) {
	acc := &fakeAccelerator{memWriteErr: &blockErr{err: &remote.Fault{Code: 0x14}}}
	dp := NewDP(acc, 0, 0)
	ap := NewAP(dp, 0, 0)

	err := ap.MemWrite(remote.AlignByte, 0x20000000, []byte{0x01})
	require.Error(t, err)
	assert.Equal(t, uint32(0x14), dp.Fault())
}
