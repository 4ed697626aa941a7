package hwio

import (
	"fmt"

	"socgen/emu/log"
)

// RegBank maps the registers of a structure at fixed offsets within a
// peripheral window.
//
// Registers are Reg32 fields with a struct tag "hwio", containing the
// following comma-separated options:
//
//	offset=0x12     Byte-offset of the register within the bank. There is no
//	                default value: without it, the register is not part of
//	                the bank.
//	bank=NN         Ordinal bank number (default 0). A structure can expose
//	                multiple banks.
//	reset=0x34      Value of the register at reset.
//	rwmask=0xff     Mask of the writable bits (default: all).
//	readonly        Writes are ignored (and logged).
//	writeonly       Reads return 0 (and are logged).
//	rcb[=Name]      Call the Read<FIELD> method (or Name) on read.
//	wcb[=Name]      Call the Write<FIELD> method (or Name) on write.
type RegBank struct {
	Name string

	regs  map[uint32]*Reg32
	shape Shape
}

// NewRegBank initializes the registers of bank and gathers those belonging
// to bank number bankNum.
func NewRegBank(name string, bank any, bankNum int, shape Shape) (*RegBank, error) {
	if err := InitRegs(bank); err != nil {
		return nil, err
	}
	infos, err := bankGetRegs(bank, bankNum)
	if err != nil {
		return nil, err
	}

	rb := &RegBank{
		Name:  name,
		regs:  make(map[uint32]*Reg32, len(infos)),
		shape: shape,
	}
	for _, ri := range infos {
		if ri.offset%shape.WordBytes() != 0 {
			return nil, fmt.Errorf("register %s.%s: offset %#x is not word aligned", name, ri.name, ri.offset)
		}
		if _, dup := rb.regs[ri.offset]; dup {
			return nil, fmt.Errorf("register %s.%s: offset %#x already used", name, ri.name, ri.offset)
		}
		rb.regs[ri.offset] = ri.regPtr.(*Reg32)
	}
	return rb, nil
}

// Serve performs the transfer described by req. Offsets without register
// read as zero and ignore writes; they're still acknowledged since the
// address belongs to the peripheral window.
func (rb *RegBank) Serve(req *Request) Response {
	if !req.Active() {
		return Response{}
	}
	off := req.Adr &^ (rb.shape.WordBytes() - 1)
	reg := rb.regs[off]
	if reg == nil {
		log.ModHwIo.DebugZ("access to unmapped register").
			String("bank", rb.Name).
			Hex32("offset", off).
			Bool("we", req.We).
			End()
		return Response{Ack: true}
	}
	if req.We {
		reg.Write32(off, req.DatW, SelMask32(req.Sel))
		return Response{Ack: true}
	}
	return Response{Ack: true, DatR: reg.Read32(off)}
}
