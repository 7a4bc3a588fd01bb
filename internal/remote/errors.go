package remote

import "fmt"

// CommError wraps a host-side communication failure: short read,
// timeout, or a write that never landed (spec.md §7 taxonomy level 3).
// Per the Design Note in spec.md §9, this is a typed result rather than
// the source's process-exit behavior — callers decide whether the
// failure is fatal for their operation.
type CommError struct {
	Err error
}

func (e *CommError) Error() string { return fmt.Sprintf("remote: communication failure: %v", e.Err) }
func (e *CommError) Unwrap() error { return e.Err }

// Fault is a probe-raised FAULT response (spec.md §7 level 2): the
// operation returns a zero/empty default and Code is latched into the
// owning DP's fault field by the caller.
type Fault struct {
	Code uint32
}

func (f *Fault) Error() string { return fmt.Sprintf("remote: fault 0x%08x", f.Code) }

// Exception is a probe-raised EXCEPTION response (spec.md §7 level 1):
// a target-visible exception that should propagate eagerly through any
// enclosing bulk operation loop rather than be swallowed.
type Exception struct {
	Code uint32
}

func (e *Exception) Error() string { return fmt.Sprintf("remote: exception 0x%08x", e.Code) }

// NotSupported is the probe's 'N' response: the negotiated version or
// its capability bitmap doesn't support the requested operation.
type NotSupported struct{}

func (NotSupported) Error() string { return "remote: not supported" }

// ParamError is the probe's 'P' response: a firmware-side parameter
// error, logged as a firmware-bug diagnostic by the caller rather than
// treated as fatal.
type ParamError struct{}

func (ParamError) Error() string { return "remote: parameter error" }
