// Package intc implements the interrupt aggregator of the SoC: it gathers the
// interrupt lines of the peripherals into a single pending vector, read by
// the CPU.
//
// The aggregator doesn't latch, mask nor prioritize interrupts: the bit
// position of a line is its identity for the CPU interrupt logic.
package intc

import (
	"fmt"

	"socgen/emu/log"
	"socgen/hw/hwio"
)

// MaxWidth is the widest supported vector.
const MaxWidth = 32

// Source is an interrupt line registered at a bit of the vector.
type Source struct {
	Name string
	Bit  int
	Line *hwio.Line
}

// A DuplicateBitError is returned when registering a line at an already
// used bit position.
type DuplicateBitError struct {
	Bit      int
	Name     string
	Existing string
}

func (e *DuplicateBitError) Error() string {
	return fmt.Sprintf("irq %q: bit %d already used by %q", e.Name, e.Bit, e.Existing)
}

// A BitRangeError is returned when registering a line outside the vector.
type BitRangeError struct {
	Bit   int
	Name  string
	Width int
}

func (e *BitRangeError) Error() string {
	return fmt.Sprintf("irq %q: bit %d out of range [0, %d)", e.Name, e.Bit, e.Width)
}

type Aggregator struct {
	width   int
	sources [MaxWidth]*Source
	frozen  bool
}

// New returns an aggregator producing a vector of width bits.
func New(width int) (*Aggregator, error) {
	if width < 1 || width > MaxWidth {
		return nil, fmt.Errorf("invalid interrupt vector width %d (want 1 to %d)", width, MaxWidth)
	}
	return &Aggregator{width: width}, nil
}

func (a *Aggregator) Width() int { return a.width }

// Add registers line at the given bit of the vector.
func (a *Aggregator) Add(name string, line *hwio.Line, bit int) error {
	if a.frozen {
		return hwio.ErrFrozen
	}
	if bit < 0 || bit >= a.width {
		return &BitRangeError{Bit: bit, Name: name, Width: a.width}
	}
	if cur := a.sources[bit]; cur != nil {
		return &DuplicateBitError{Bit: bit, Name: name, Existing: cur.Name}
	}
	a.sources[bit] = &Source{Name: name, Bit: bit, Line: line}

	log.ModIntc.DebugZ("irq added").
		String("name", name).
		Int("bit", bit).
		End()
	return nil
}

// Freeze forbids any further registration.
func (a *Aggregator) Freeze() { a.frozen = true }

// Vector returns the current level of all the lines, bit i reflecting the
// line registered at i. Unregistered bits read as 0.
func (a *Aggregator) Vector() uint32 {
	var v uint32
	for bit, src := range a.sources[:a.width] {
		if src != nil && src.Line.Level() {
			hwio.SetBit32(&v, uint(bit))
		}
	}
	return v
}

// Sources returns the registered lines, sorted by bit.
func (a *Aggregator) Sources() []Source {
	var srcs []Source
	for _, src := range a.sources[:a.width] {
		if src != nil {
			srcs = append(srcs, *src)
		}
	}
	return srcs
}

// Lookup returns the name of the line registered at bit.
func (a *Aggregator) Lookup(bit int) (string, bool) {
	if bit < 0 || bit >= a.width || a.sources[bit] == nil {
		return "", false
	}
	return a.sources[bit].Name, true
}
