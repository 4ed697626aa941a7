// Package periph implements the memory-mapped peripherals of the SoC.
//
// Register-level behaviour is kept to what's needed to exercise the bus and
// the interrupt lines; register layouts follow the usual CSR conventions
// (word-aligned registers, event status/pending/enable triplet).
package periph

import (
	"socgen/hw/hwio"
)

// Peripheral is a bus slave advancing with the SoC clock.
type Peripheral interface {
	hwio.Slave
	// Tick advances the peripheral by one clock cycle.
	Tick()
	// Span returns the minimum window size needed by the peripheral.
	Span() uint32
}

// Interrupter is implemented by peripherals having an interrupt output.
type Interrupter interface {
	IRQ() *hwio.Line
}

// events is the event block shared by peripherals raising interrupts: status
// reflects the current level of the event sources, pending latches them until
// cleared by writing 1, enable selects which pending events assert the
// interrupt line.
type events struct {
	status  uint32
	pending uint32
	enable  uint32
}

func (ev *events) raise(mask uint32) {
	ev.status |= mask
	ev.pending |= mask
}

func (ev *events) lower(mask uint32) {
	ev.status &^= mask
}

func (ev *events) level() bool {
	return ev.pending&ev.enable != 0
}
