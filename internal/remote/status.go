package remote

import (
	"encoding/hex"
	"fmt"
)

// Status bytes a response frame can start with (spec.md §4.3.1).
const (
	StatusOK          = 'K'
	StatusError       = 'E'
	StatusParam       = 'P'
	StatusNotSupported = 'N'
)

const (
	errKindFault     = 3
	errKindException = 4
)

// DecodeResponse implements the fault-propagation contract of spec.md
// §4.2: resp is a response frame's content with the leading '&' and
// trailing '#' already stripped by the line-framing layer. It returns
// the payload following the status byte on success ('K'), or a typed
// error (*Fault, *Exception, ParamError, NotSupported, or a generic
// error for a malformed/unexpected status).
func DecodeResponse(resp string) (string, error) {
	if len(resp) < 1 {
		return "", &CommError{Err: fmt.Errorf("remote: empty response")}
	}

	status := resp[0]
	rest := resp[1:]

	switch status {
	case StatusOK:
		return rest, nil

	case StatusError:
		kind, code, err := decodeErrorPayload(rest)
		if err != nil {
			return "", &CommError{Err: err}
		}
		switch kind {
		case errKindFault:
			return "", &Fault{Code: code}
		case errKindException:
			return "", &Exception{Code: code}
		default:
			return "", fmt.Errorf("remote: unexpected error kind 0x%x in response %q", kind, resp)
		}

	case StatusParam:
		return "", ParamError{}

	case StatusNotSupported:
		return "", NotSupported{}

	default:
		return "", fmt.Errorf("remote: unexpected status byte %q in response %q", status, resp)
	}
}

// decodeErrorPayload decodes the hex payload of an 'E' response: its
// bytes, in wire (little-endian) order, are [kind, code...]. Per spec.md
// §4.2, the low byte is the error kind and the upper bytes are the
// fault/exception code.
func decodeErrorPayload(hexPayload string) (kind byte, code uint32, err error) {
	raw, err := hex.DecodeString(hexPayload)
	if err != nil {
		return 0, 0, fmt.Errorf("remote: decoding error payload %q: %w", hexPayload, err)
	}
	if len(raw) == 0 {
		return 0, 0, fmt.Errorf("remote: empty error payload")
	}
	kind = raw[0]
	for i := len(raw) - 1; i >= 1; i-- {
		code = code<<8 | uint32(raw[i])
	}
	return kind, code, nil
}
