package remote

// Version is the negotiated remote-protocol version (spec.md §3's
// "Remote-protocol version record").
type Version int

const (
	V0 Version = iota
	V1
	V2
	V3
	V4
)

func (v Version) String() string {
	switch v {
	case V0:
		return "v0"
	case V1:
		return "v1"
	case V2:
		return "v2"
	case V3:
		return "v3"
	case V4:
		return "v4"
	default:
		return "unknown"
	}
}

// Alignment is the memory-I/O alignment tag of spec.md §3: it constrains
// both the per-cycle target memory width and the bulk-write block size
// (§4.2).
type Alignment int

const (
	AlignByte Alignment = iota
	AlignHalfword
	AlignWord
	AlignDoubleword
)

// Width returns 1<<a, the cycle width in bytes.
func (a Alignment) Width() int {
	return 1 << uint(a)
}

// Accelerator is the per-version function table of spec.md §3 and §9:
// "express this as a trait/interface implemented per version, with the
// DP handle holding a trait object... instantiate the DP generic over
// the version at attach time." Every version implements it; v0 probes
// have no DP/AP layer at all (spec.md §4.3.2), so v0.Accelerator answers
// every DP/AP/memory method with NotSupported and v0 targets are driven
// through raw SWD/JTAG sequences directly.
type Accelerator interface {
	Version() Version

	// HeaderOverhead is the request-format overhead in bytes the
	// bulk-write block-size calculation of spec.md §4.2 subtracts
	// before dividing by two: 34 for v1-v3, 42 for v4 (ADIv5 requests),
	// 0 for v0. v4's ADIv6 requests use 57 internally.
	HeaderOverhead() int

	DPRead(devIndex byte, addr byte) (uint32, error)
	APRead(devIndex, apSel, addr byte) (uint32, error)
	APWrite(devIndex, apSel, addr byte, value uint32) error
	LowAccess(devIndex byte, readNotWrite bool, addr byte, value uint32) (uint32, error)

	MemRead(devIndex, apSel byte, csw uint32, addr uint32, dst []byte) error
	MemWrite(devIndex, apSel byte, csw uint32, align Alignment, addr uint32, src []byte) error
}

// ADIv6Accelerator is implemented by v4 probes whose accelerations
// bitmap includes AccelADIv6 (spec.md §3, §4.3.6).
type ADIv6Accelerator interface {
	MemReadADIv6(devIndex byte, apBase uint64, csw uint32, addr uint32, dst []byte) error
	MemWriteADIv6(devIndex byte, apBase uint64, csw uint32, align Alignment, addr uint32, src []byte) error
}

// SPIAccelerator is implemented by v3+ probes (spec.md §4.3.1's 's'
// packet-type family).
type SPIAccelerator interface {
	SPIBegin(devIndex byte) error
	SPIXfer(devIndex byte, out []byte) ([]byte, error)
	SPIEnd(devIndex byte) error
}

// RISCVAccelerator is implemented by v4 probes whose accelerations
// bitmap includes AccelRISCV (spec.md §4.3.7).
type RISCVAccelerator interface {
	DMIRead(devIndex byte, idleCycles, addrWidth int, addr uint32) (ok bool, value uint32, err error)
	DMIWrite(devIndex byte, idleCycles, addrWidth int, addr, value uint32) (ok bool, err error)
}

// Bitmap is a capability bitmap negotiated at v4 attach (spec.md §3).
type Bitmap uint32

// Accelerations bitmap bits (spec.md §3, §4.3.2).
const (
	AccelADIv5 Bitmap = 1 << iota
	AccelCortexAR
	AccelRISCV
	AccelADIv6
)

// Architectures bitmap bits.
const (
	ArchCortexM Bitmap = 1 << iota
	ArchCortexAR
	ArchRISCV32
	ArchRISCV64
)

// Target-family bitmap bits.
const (
	FamilySTM32 Bitmap = 1 << iota
	FamilyNXPKinetis
	FamilyRP
	FamilySAM
	FamilyLPC
)

// Has reports whether bit is set in the bitmap.
func (b Bitmap) Has(bit Bitmap) bool {
	return b&bit != 0
}
