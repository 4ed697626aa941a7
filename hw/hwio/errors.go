package hwio

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned when registering on a component after composition.
var ErrFrozen = errors.New("registration after composition is not allowed")

// Window is an address window, that is the half-open range [Base, Base+Size).
type Window struct {
	Base uint32
	Size uint32
}

// End returns the first address past the window.
func (w Window) End() uint64 {
	return uint64(w.Base) + uint64(w.Size)
}

// Contains reports whether addr is inside the window.
func (w Window) Contains(addr uint32) bool {
	return addr >= w.Base && uint64(addr) < w.End()
}

// Overlaps reports whether w and o share at least one address.
func (w Window) Overlaps(o Window) bool {
	return uint64(w.Base) < o.End() && uint64(o.Base) < w.End()
}

func (w Window) String() string {
	return fmt.Sprintf("[%#08x-%#08x)", w.Base, w.End())
}

// An OverlapError is returned when a window intersects an already mapped one.
type OverlapError struct {
	Name     string // slave being mapped
	Window   Window
	Other    string // slave already mapped
	OtherWin Window
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("window %s of %q overlaps window %s of %q", e.Window, e.Name, e.OtherWin, e.Other)
}

// An AlignmentError is returned when a window size is not a power of two,
// when its base is not aligned on its size, or when it doesn't fit the bus
// address space.
type AlignmentError struct {
	Name   string
	Window Window
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("invalid window base=%#08x size=%#x for %q: %s", e.Window.Base, e.Window.Size, e.Name, e.Reason)
}

// A ShapeError is returned when connecting a port whose shape doesn't match
// the bus it's connected to.
type ShapeError struct {
	Bus  string
	Port string
	Want Shape
	Got  Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("port %q has shape %s, bus %q wants %s", e.Port, e.Got, e.Bus, e.Want)
}

func checkWindow(name string, w Window, shape Shape) error {
	switch {
	case !IsPow2(uint64(w.Size)):
		return &AlignmentError{Name: name, Window: w, Reason: "size is not a power of two"}
	case w.Base&(w.Size-1) != 0:
		return &AlignmentError{Name: name, Window: w, Reason: "base is not aligned on size"}
	case w.Size < shape.WordBytes():
		return &AlignmentError{Name: name, Window: w, Reason: "size is smaller than a data word"}
	case w.End() > shape.AddrSpace():
		return &AlignmentError{Name: name, Window: w, Reason: fmt.Sprintf("window exceeds the %#x address space", shape.AddrSpace())}
	}
	return nil
}
