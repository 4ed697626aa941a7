package cpu

import "fmt"

type TrapCause uint8

//go:generate stringer -type=TrapCause -linecomment

const (
	InstrBusError TrapCause = iota // instruction bus error
	LoadBusError                   // load bus error
	StoreBusError                  // store bus error
)

// Trap records a bus error taken by the core.
type Trap struct {
	Cause TrapCause
	Addr  uint32
	Cycle uint64
}

func (t Trap) String() string {
	return fmt.Sprintf("%s at %#08x (cycle %d)", t.Cause, t.Addr, t.Cycle)
}
