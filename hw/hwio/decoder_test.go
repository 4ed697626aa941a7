package hwio_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"socgen/hw/hwio"
)

// testSlave records the last request it served.
type testSlave struct {
	port hwio.Port
	mem  *hwio.Mem

	last  hwio.Request
	evals int
}

func newTestSlave(tb testing.TB, name string, size uint32) *testSlave {
	tb.Helper()

	mem, err := hwio.NewMem(name, size, hwio.DefaultShape, hwio.MemFlagReadWrite)
	if err != nil {
		tb.Fatal(err)
	}
	return &testSlave{
		port: hwio.Port{Name: name, Shape: hwio.DefaultShape},
		mem:  mem,
	}
}

func (s *testSlave) Port() *hwio.Port { return &s.port }

func (s *testSlave) Eval() {
	s.evals++
	s.last = s.port.Request
	s.port.Response = s.mem.Serve(&s.port.Request)
}

type testBus struct {
	t   testing.TB
	dec *hwio.Decoder
	up  *hwio.Port
}

func newTestBus(tb testing.TB) *testBus {
	return &testBus{
		t:   tb,
		dec: hwio.NewDecoder("bus", hwio.DefaultShape),
		up:  hwio.NewPort("up", hwio.DefaultShape),
	}
}

func (b *testBus) mustMap(name string, s hwio.Slave, base, size uint32) {
	b.t.Helper()
	if err := b.dec.Map(name, s, base, size); err != nil {
		b.t.Fatalf("Map(%s, %#x, %#x) failed: %v", name, base, size, err)
	}
}

func (b *testBus) write32(addr, val uint32) hwio.Response {
	b.up.Request = hwio.Request{Cyc: true, Stb: true, We: true, Adr: addr, DatW: val, Sel: 0xf}
	b.dec.Eval(b.up)
	return b.up.Response
}

func (b *testBus) read32(addr uint32) hwio.Response {
	b.up.Request = hwio.Request{Cyc: true, Stb: true, Adr: addr, Sel: 0xf}
	b.dec.Eval(b.up)
	return b.up.Response
}

func (b *testBus) wantRead32(addr uint32, want uint32) {
	b.t.Helper()

	rsp := b.read32(addr)
	if !rsp.Ack || rsp.Err {
		b.t.Errorf("Read32(%08X) ack=%t err=%t, want ack", addr, rsp.Ack, rsp.Err)
	}
	if rsp.DatR != want {
		b.t.Errorf("Read32(%08X) = %08X, want %08X", addr, rsp.DatR, want)
	}
}

func TestDecoderOverlap(t *testing.T) {
	bus := newTestBus(t)
	rom := newTestSlave(t, "rom", 0x4000)
	ram := newTestSlave(t, "ram", 0x2000)
	bus.mustMap("rom", rom, 0x0000, 0x4000)
	bus.mustMap("ram", ram, 0x4000, 0x2000)

	before := bus.dec.Bindings()

	err := bus.dec.Map("periph", newTestSlave(t, "periph", 0x1000), 0x3000, 0x1000)
	var overlap *hwio.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("Map of overlapping window returned %v, want *OverlapError", err)
	}
	if overlap.Other != "rom" {
		t.Errorf("overlap reported against %q, want rom", overlap.Other)
	}

	// Decoder state is left untouched.
	after := bus.dec.Bindings()
	if diff := cmp.Diff(names(before), names(after)); diff != "" {
		t.Errorf("bindings changed after failed Map (-before +after):\n%s", diff)
	}
}

func names(bs []hwio.Binding) []string {
	var s []string
	for _, b := range bs {
		s = append(s, b.Name)
	}
	return s
}

func TestDecoderAlignment(t *testing.T) {
	tests := []struct {
		name       string
		base, size uint32
	}{
		{name: "size not pow2", base: 0x0000, size: 0x3000},
		{name: "base not aligned", base: 0x1000, size: 0x2000},
		{name: "zero size", base: 0x0000, size: 0},
		{name: "smaller than a word", base: 0x0000, size: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newTestBus(t)
			err := bus.dec.Map("s", newTestSlave(t, "s", 0x1000), tt.base, tt.size)
			var aerr *hwio.AlignmentError
			if !errors.As(err, &aerr) {
				t.Fatalf("Map(%#x, %#x) = %v, want *AlignmentError", tt.base, tt.size, err)
			}
			if len(bus.dec.Bindings()) != 0 {
				t.Errorf("failed Map left a binding")
			}
		})
	}
}

func TestDecoderShapeMismatch(t *testing.T) {
	bus := newTestBus(t)
	s := newTestSlave(t, "narrow", 0x1000)
	s.port.Shape = hwio.Shape{AddrWidth: 30, DataWidth: 16, Granularity: 8}

	var serr *hwio.ShapeError
	if err := bus.dec.Map("narrow", s, 0, 0x1000); !errors.As(err, &serr) {
		t.Fatalf("Map = %v, want *ShapeError", err)
	}
}

func TestDecoderFrozen(t *testing.T) {
	bus := newTestBus(t)
	bus.dec.Freeze()
	if err := bus.dec.Map("s", newTestSlave(t, "s", 0x1000), 0, 0x1000); !errors.Is(err, hwio.ErrFrozen) {
		t.Fatalf("Map after Freeze = %v, want ErrFrozen", err)
	}
}

func TestDecoderRoute(t *testing.T) {
	bus := newTestBus(t)
	rom := newTestSlave(t, "rom", 0x4000)
	ram := newTestSlave(t, "ram", 0x2000)
	io := newTestSlave(t, "io", 0x1000)

	// Map out of order, lookups must still work.
	bus.mustMap("io", io, 0xf0000000, 0x1000)
	bus.mustMap("ram", ram, 0x4000, 0x2000)
	bus.mustMap("rom", rom, 0x0000, 0x4000)

	if got := names(bus.dec.Bindings()); !cmp.Equal(got, []string{"rom", "ram", "io"}) {
		t.Errorf("bindings = %v, want sorted by base", got)
	}

	bus.write32(0x4010, 0xdeadbeef)
	if ram.last.Adr != 0x10 {
		t.Errorf("ram saw address %#x, want 0x10", ram.last.Adr)
	}
	if ram.mem.Words[4] != 0xdeadbeef {
		t.Errorf("ram word 4 = %08X, want DEADBEEF", ram.mem.Words[4])
	}
	bus.wantRead32(0x4010, 0xdeadbeef)
	bus.wantRead32(0x0010, 0)

	bus.write32(0xf0000ffc, 0x12345678)
	if io.last.Adr != 0xffc {
		t.Errorf("io saw address %#x, want 0xffc", io.last.Adr)
	}

	// Other fields are forwarded unchanged.
	bus.up.Request = hwio.Request{Cyc: true, Stb: true, Adr: 0x20, Sel: 0x3, CTI: hwio.IncrAddr, BTE: hwio.Wrap4}
	bus.dec.Eval(bus.up)
	want := hwio.Request{Cyc: true, Stb: true, Adr: 0x20, Sel: 0x3, CTI: hwio.IncrAddr, BTE: hwio.Wrap4}
	if diff := cmp.Diff(want, rom.last); diff != "" {
		t.Errorf("rom request mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderBusError(t *testing.T) {
	bus := newTestBus(t)
	rom := newTestSlave(t, "rom", 0x4000)
	ram := newTestSlave(t, "ram", 0x2000)
	bus.mustMap("rom", rom, 0x0000, 0x4000)
	bus.mustMap("ram", ram, 0x4000, 0x2000)

	rsp := bus.read32(0x8000)
	if !rsp.Err || rsp.Ack {
		t.Errorf("Read32(8000) ack=%t err=%t, want bus error", rsp.Ack, rsp.Err)
	}
	if rom.evals != 0 || ram.evals != 0 {
		t.Errorf("slaves evaluated on unmapped access: rom=%d ram=%d", rom.evals, ram.evals)
	}
	if rom.port.Ack || ram.port.Ack {
		t.Errorf("slave acknowledge asserted on unmapped access")
	}
	if got := bus.dec.Errors(); got != 1 {
		t.Errorf("Errors() = %d, want 1", got)
	}

	// The bus keeps working after an error.
	bus.wantRead32(0x4000, 0)
}

func TestDecoderIdle(t *testing.T) {
	bus := newTestBus(t)
	rom := newTestSlave(t, "rom", 0x4000)
	bus.mustMap("rom", rom, 0, 0x4000)

	bus.read32(0x10)
	bus.up.Request = hwio.Request{}
	bus.dec.Eval(bus.up)

	if rom.port.Cyc {
		t.Errorf("slave still selected on idle bus")
	}
	if bus.up.Ack || bus.up.Err {
		t.Errorf("idle bus returned a response: %+v", bus.up.Response)
	}
}

func TestDecoderDisjointWindows(t *testing.T) {
	bus := newTestBus(t)
	windows := []struct{ base, size uint32 }{
		{0x0000, 0x1000},
		{0x0800, 0x0800},
		{0x1000, 0x1000},
		{0x0000, 0x10000},
		{0x1800, 0x0800},
		{0x2000, 0x2000},
		{0x3000, 0x1000},
		{0x8000, 0x8000},
	}
	for _, w := range windows {
		bus.dec.Map("s", newTestSlave(t, "s", 0x1000), w.base, w.size)
	}

	bs := bus.dec.Bindings()
	for i := range bs {
		for j := range bs {
			if i != j && bs[i].Window.Overlaps(bs[j].Window) {
				t.Errorf("windows %s and %s overlap", bs[i].Window, bs[j].Window)
			}
		}
	}
	if len(bs) != 4 {
		t.Errorf("got %d bindings, want 4", len(bs))
	}
}
