package hwio

import (
	"sort"

	"socgen/emu/log"
)

// Binding associates a slave to the address window it's mapped at.
type Binding struct {
	Name   string
	Window Window
	Slave  Slave
}

// Decoder routes the transactions presented on its upstream port to the one
// slave whose window contains the transaction address.
type Decoder struct {
	Name string

	shape  Shape
	slaves []Binding // sorted by base
	frozen bool

	errors uint64 // accesses to unmapped addresses
}

func NewDecoder(name string, shape Shape) *Decoder {
	return &Decoder{Name: name, shape: shape}
}

// Map maps slave s at window [base, base+size). The window size must be a
// power of two, base must be aligned on size and the window can't overlap
// any already mapped window. On error, the decoder is left untouched.
func (d *Decoder) Map(name string, s Slave, base, size uint32) error {
	if d.frozen {
		return ErrFrozen
	}
	if got := s.Port().Shape; got != d.shape {
		return &ShapeError{Bus: d.Name, Port: name, Want: d.shape, Got: got}
	}

	w := Window{Base: base, Size: size}
	if err := checkWindow(name, w, d.shape); err != nil {
		return err
	}
	for _, b := range d.slaves {
		if b.Window.Overlaps(w) {
			return &OverlapError{Name: name, Window: w, Other: b.Name, OtherWin: b.Window}
		}
	}

	i := sort.Search(len(d.slaves), func(i int) bool { return d.slaves[i].Window.Base > base })
	d.slaves = append(d.slaves, Binding{})
	copy(d.slaves[i+1:], d.slaves[i:])
	d.slaves[i] = Binding{Name: name, Window: w, Slave: s}

	log.ModHwIo.DebugZ("mapping slave").
		String("bus", d.Name).
		String("slave", name).
		Hex32("base", base).
		Hex32("size", size).
		End()
	return nil
}

// Freeze forbids any further mapping.
func (d *Decoder) Freeze() { d.frozen = true }

// Lookup returns the binding whose window contains addr.
func (d *Decoder) Lookup(addr uint32) (Binding, bool) {
	i := sort.Search(len(d.slaves), func(i int) bool { return d.slaves[i].Window.Base > addr })
	if i == 0 {
		return Binding{}, false
	}
	b := d.slaves[i-1]
	if !b.Window.Contains(addr) {
		return Binding{}, false
	}
	return b, true
}

// Bindings returns the mapped slaves, sorted by base address.
func (d *Decoder) Bindings() []Binding {
	return append([]Binding(nil), d.slaves...)
}

// Errors returns the number of transfers terminated with a bus error since
// the decoder creation.
func (d *Decoder) Errors() uint64 { return d.errors }

// Eval routes the transaction presented on up. The selected slave sees the
// address relative to its window base, all other slaves see an idle bus.
// Transfers to unmapped addresses are terminated with a bus error.
func (d *Decoder) Eval(up *Port) {
	up.Response = Response{}
	for i := range d.slaves {
		p := d.slaves[i].Slave.Port()
		p.Request = Request{}
		p.Response = Response{}
	}
	if !up.Cyc {
		return
	}

	b, ok := d.Lookup(up.Adr)
	if !ok {
		if up.Stb {
			d.errors++
			up.Err = true
			log.ModHwIo.DebugZ("unmapped access").
				String("bus", d.Name).
				Hex32("addr", up.Adr).
				Bool("we", up.We).
				End()
		}
		return
	}

	p := b.Slave.Port()
	p.Request = up.Request
	p.Adr = up.Adr - b.Window.Base
	b.Slave.Eval()
	up.Response = p.Response
}
