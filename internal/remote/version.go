package remote

import (
	"strconv"
	"time"
)

// Capabilities holds the three independent bitmaps negotiated at attach
// on v4 probes (spec.md §3).
type Capabilities struct {
	Accelerations Bitmap
	Architectures Bitmap
	Families      Bitmap
}

// Negotiated is the result of Negotiate: the selected version, its
// Accelerator (every version's methods return remote.NotSupported for
// v0, which has no ADIv5 acceleration at all), and the v4 capability
// bitmaps (zero value on v0-v3).
type Negotiated struct {
	Version      Version
	Accelerator  Accelerator
	Capabilities Capabilities
}

// AcceleratorFactory builds a version's Accelerator from a Conn. The
// per-version packages (internal/remote/v1..v4) each provide one; taking
// factories as parameters here, rather than importing those packages
// directly, keeps this package free of a dependency on its own
// subpackages and lets tests substitute fakes.
type AcceleratorFactories struct {
	V0 func(*Conn) Accelerator
	V1 func(*Conn) Accelerator
	V2 func(*Conn) Accelerator
	V3 func(*Conn) Accelerator
	V4 func(*Conn, Capabilities) Accelerator
}

// Negotiate performs the attach-time handshake of spec.md §4.3.2: "!HC#"
// selects the version, and v4 probes are further queried for their
// accelerations bitmap via "!HA#" (and, if the RISC-V bit is set,
// "!RP#" for DTM protocol discovery; its response is not kept, since
// its result isn't part of the Accelerator surface).
func Negotiate(conn *Conn, factories AcceleratorFactories) (Negotiated, error) {
	payload, err := conn.Request("HC", time.Second)
	if err != nil {
		// Spec.md §4.3.2: an error response falls back to v0 — this is
		// not itself a CommError-worthy failure, it's how an old probe
		// answers "I don't understand HC".
		return Negotiated{Version: V0, Accelerator: factories.V0(conn)}, nil
	}

	ver, err := strconv.ParseUint(payload, 16, 8)
	if err != nil || ver < 1 {
		return Negotiated{Version: V0, Accelerator: factories.V0(conn)}, nil
	}

	switch {
	case ver == 1:
		return Negotiated{Version: V1, Accelerator: factories.V1(conn)}, nil
	case ver == 2:
		return Negotiated{Version: V2, Accelerator: factories.V2(conn)}, nil
	case ver == 3:
		conn.SetFrameCap(FrameCapModern)
		return Negotiated{Version: V3, Accelerator: factories.V3(conn)}, nil
	default: // >= 4
		conn.SetFrameCap(FrameCapModern)
		caps, err := negotiateV4Capabilities(conn)
		if err != nil {
			return Negotiated{}, err
		}
		return Negotiated{
			Version:      V4,
			Accelerator:  factories.V4(conn, caps),
			Capabilities: caps,
		}, nil
	}
}

func negotiateV4Capabilities(conn *Conn) (Capabilities, error) {
	payload, err := conn.Request("HA", time.Second)
	if err != nil {
		return Capabilities{}, err
	}
	accel, err := strconv.ParseUint(payload, 16, 32)
	if err != nil {
		return Capabilities{}, &CommError{Err: err}
	}

	caps := Capabilities{Accelerations: Bitmap(accel)}

	if caps.Accelerations.Has(AccelRISCV) {
		// "!RP#" learns the supported RISC-V DTM protocols; spec.md
		// §4.3.2 mentions it only as a conditional follow-up and
		// doesn't define its response shape beyond "RISC-V DTM
		// protocols", so the payload is discarded rather than parsed;
		// only a failure other than NotSupported aborts negotiation.
		if _, err := conn.Request("RP", time.Second); err != nil {
			if _, ok := err.(NotSupported); !ok {
				return Capabilities{}, err
			}
		}
	}

	return caps, nil
}
