package hwio

import "testing"

func TestReg32(t *testing.T) {
	r := Reg32{Value: 0x11, RoMask: 0xF0}

	if got := r.Read32(0); got != 0x11 {
		t.Errorf("invalid read: %x", got)
	}

	r.Write32(0, 0x77, 0xffffffff)
	if r.Value != 0x17 {
		t.Errorf("rwmask not respected: %x", r.Value)
	}
	r.Write32(0, 0xaa, 0x0f)
	if r.Value != 0x1a {
		t.Errorf("write mask not respected: %x", r.Value)
	}
}

func TestReg32SelMask(t *testing.T) {
	r := Reg32{Value: 0x11223344}
	r.Write32(0, 0xaabbccdd, SelMask32(0b0101))
	if r.Value != 0x11bb33dd {
		t.Errorf("Value = %08x, want 11bb33dd", r.Value)
	}
}

func TestReg32Flags(t *testing.T) {
	ro := Reg32{Name: "ro", Value: 0xcafe, Flags: ReadOnlyFlag}
	ro.Write32(0, 0, 0xffffffff)
	if ro.Value != 0xcafe {
		t.Errorf("readonly register written: %x", ro.Value)
	}

	wo := Reg32{Name: "wo", Value: 0xcafe, Flags: WriteOnlyFlag}
	if got := wo.Read32(0); got != 0 {
		t.Errorf("writeonly register read = %x, want 0", got)
	}
}

func TestReg32Callbacks(t *testing.T) {
	var olds, vals []uint32
	r := Reg32{
		Value:   1,
		ReadCb:  func(val uint32) uint32 { return val * 2 },
		WriteCb: func(old, val uint32) { olds, vals = append(olds, old), append(vals, val) },
	}

	r.Write32(0, 5, 0xffffffff)
	if len(olds) != 1 || olds[0] != 1 || vals[0] != 5 {
		t.Errorf("write callback got old=%v val=%v", olds, vals)
	}
	if got := r.Read32(0); got != 10 {
		t.Errorf("Read32 = %d, want 10", got)
	}
}
