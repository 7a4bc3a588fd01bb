package gdbserver

import "github.com/kc1fsz/swdbridge/internal/reg"

// NoCore is a reg.Core stub for targets that have not been wired up
// with a real Cortex-M/RISC-V core-logic collaborator (spec.md §6:
// reg_read/reg_write/halt_resume/halt_poll/reset are explicitly a
// separate collaborator's responsibility, out of this module's
// scope). It lets Server run with memory-only access — 'm'/'M' work
// against the ADIv5 AP directly — while every register/run-control
// command reports a clean error instead of silently returning zeros.
type NoCore struct{}

var _ reg.Core = NoCore{}

func (NoCore) ReadReg(int) (uint32, error)  { return 0, errNoCore }
func (NoCore) WriteReg(int, uint32) error   { return errNoCore }
func (NoCore) Halt() error                  { return errNoCore }
func (NoCore) Resume(bool) error            { return errNoCore }
func (NoCore) Reset(bool) error             { return errNoCore }
func (NoCore) HaltPoll() (bool, int, error) { return false, 0, errNoCore }

var errNoCore = coreError("gdbserver: no register/run-control collaborator configured for this target")

type coreError string

func (e coreError) Error() string { return string(e) }
