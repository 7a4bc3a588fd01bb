package wirefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHex8_FixedWidth(t *testing.T) {
	assert.Equal(t, "0000002a", Hex8(42, 8))
	assert.Equal(t, "2a", Hex8(42, 2))
	assert.Equal(t, "000000000000002a", Hex8(42, 16))
}

func TestHex8RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		digits := rapid.SampledFrom([]int{2, 8, 16}).Draw(t, "digits")
		maxVal := uint64(1)<<(uint(digits)*4) - 1
		v := rapid.Uint64Range(0, maxVal).Draw(t, "v")

		encoded := Hex8(v, digits)
		require.Len(t, encoded, digits)

		got, rest, err := ParseHex8(encoded+"trailing", digits)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, "trailing", rest)
	})
}

func TestParseHex8_ShortInput(t *testing.T) {
	_, _, err := ParseHex8("ab", 8)
	assert.Error(t, err)
}

func TestBytesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "data")
		encoded := Bytes(data)
		decoded, err := ParseBytes(encoded)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})
}

func TestFrame(t *testing.T) {
	assert.Equal(t, "!GA#", Frame("GA"))
}
