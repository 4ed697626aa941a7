// Package cpu defines the contract between the SoC and its CPU core, and the
// set of supported core variants.
//
// Cores are bus-functional models: they drive their instruction and data
// masters the way the real core would, without implementing the instruction
// set. The instruction master fetches sequentially from the reset address,
// the data master performs queued accesses.
package cpu

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"socgen/hw/hwio"
)

// IRQSource provides the interrupt pending vector sampled by the core.
type IRQSource interface {
	Vector() uint32
}

// Core is implemented by all CPU variants.
type Core interface {
	Name() string
	Arch() string

	IBus() *hwio.Port // instruction fetch master
	DBus() *hwio.Port // data access master

	ResetAddr() uint32
	DataWidth() int
	ByteOrder() hwio.ByteOrder
	IRQWidth() int

	// ConnectIRQ connects the interrupt pending input of the core.
	ConnectIRQ(src IRQSource)
	// Pending returns the interrupt vector sampled during the last tick.
	Pending() uint32

	Reset()
	// Drive drives the requests of both masters for the current tick.
	Drive()
	// Sample samples the responses of both masters at the end of the tick.
	Sample()

	// Queue queues a data access, performed in order on the data master.
	Queue(acc Access)
	// Completed returns (and forgets) the data accesses completed so far.
	Completed() []Completion
	// OnFetch registers a function called on every acknowledged
	// instruction fetch.
	OnFetch(func(addr, word uint32))

	Halted() bool
	Traps() []Trap
	Cycles() uint64
}

// Config holds the parameters shared by all variants.
type Config struct {
	ResetAddr uint32
	Shape     hwio.Shape

	// Artifact optionally pins the netlist of the core, used by external
	// synthesis tools. It's verified, never fetched.
	Artifact *Artifact
}

// Desc describes a CPU variant.
type Desc struct {
	Name string
	Arch string
	New  func(Config) Core
}

// All supported CPU variants, by name.
var All = map[string]Desc{
	"minerva":  minerva,
	"vexriscv": vexriscv,
}

// Names returns the names of the supported variants, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(All))
}

// An UnsupportedCPUError is returned when selecting an unknown variant.
type UnsupportedCPUError struct {
	Name string
}

func (e *UnsupportedCPUError) Error() string {
	return fmt.Sprintf("unsupported cpu %q (supported: %s)", e.Name, strings.Join(Names(), ", "))
}

// New creates the core named name.
func New(name string, cfg Config) (Core, error) {
	desc, ok := All[name]
	if !ok {
		return nil, &UnsupportedCPUError{Name: name}
	}
	if cfg.Shape == (hwio.Shape{}) {
		cfg.Shape = hwio.DefaultShape
	}
	if err := cfg.Shape.Validate(); err != nil {
		return nil, fmt.Errorf("cpu %s: %w", name, err)
	}
	if cfg.Artifact != nil {
		if err := cfg.Artifact.Verify(); err != nil {
			return nil, fmt.Errorf("cpu %s: %w", name, err)
		}
	}
	core := desc.New(cfg)
	core.Reset()
	return core, nil
}
