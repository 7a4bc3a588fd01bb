// Package wirefmt packs and unpacks the fixed-width hex fields every
// remote-protocol request/response uses (spec.md §4.3.1), grounded on the
// teacher's small single-purpose wire helpers (base91.go, hex_dump.go).
package wirefmt

import (
	"encoding/hex"
	"fmt"
)

// Hex8 formats v in lowercase hex, zero-padded to at least digits
// characters (a wider value is not truncated) —
// spec.md §4.3.4's "<8 hex>"/"<16 hex>"-style fixed-width fields.
func Hex8(v uint64, digits int) string {
	return fmt.Sprintf("%0*x", digits, v)
}

// ParseHex8 parses exactly digits hex characters from s at the start,
// returning the value and the remainder of s.
func ParseHex8(s string, digits int) (uint64, string, error) {
	if len(s) < digits {
		return 0, "", fmt.Errorf("wirefmt: need %d hex digits, got %q", digits, s)
	}
	var v uint64
	if _, err := fmt.Sscanf(s[:digits], "%x", &v); err != nil {
		return 0, "", fmt.Errorf("wirefmt: parsing %q as hex: %w", s[:digits], err)
	}
	return v, s[digits:], nil
}

// Bytes hex-encodes data, lowercase, matching spec.md's "hex fields use
// lowercase 0-9a-f".
func Bytes(data []byte) string {
	return hex.EncodeToString(data)
}

// ParseBytes decodes a lowercase-hex string back to bytes.
func ParseBytes(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// Frame wraps body between the start-of-message '!' and end-of-message
// '#' markers (spec.md §4.3.1).
func Frame(body string) string {
	return "!" + body + "#"
}
