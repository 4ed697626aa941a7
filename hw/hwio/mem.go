package hwio

import (
	"fmt"

	"socgen/emu/log"
)

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlagReadOnly  MemFlags = (1 << iota) // bus writes are ignored
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Mem is a linear, word-organized memory area. Its length in words must be
// a power of two; addresses wrap around.
type Mem struct {
	Name  string   // name of the memory area (for debugging)
	Words []uint32 // actual memory buffer, one entry per data word
	Flags MemFlags // flags determining how the memory can be accessed from the bus

	shift uint   // log2 of the number of address units per word
	mask  uint32 // word index mask
	dmask uint32 // data mask
}

// NewMem allocates a memory of size address units (bytes on an 8-bit
// granularity bus).
func NewMem(name string, size uint32, shape Shape, flags MemFlags) (*Mem, error) {
	nwords := size / shape.WordBytes()
	if !IsPow2(uint64(nwords)) {
		return nil, fmt.Errorf("memory %q: size %#x is not a power of two number of words", name, size)
	}
	return &Mem{
		Name:  name,
		Words: make([]uint32, nwords),
		Flags: flags,
		shift: uint(log2(uint64(shape.WordBytes()))),
		mask:  nwords - 1,
		dmask: uint32(uint64(1)<<shape.DataWidth - 1),
	}, nil
}

// Size returns the memory size, in address units.
func (m *Mem) Size() uint32 {
	return uint32(len(m.Words)) << m.shift
}

func (m *Mem) index(addr uint32) uint32 {
	return (addr >> m.shift) & m.mask
}

// Read returns the word containing addr.
func (m *Mem) Read(addr uint32) uint32 {
	return m.Words[m.index(addr)]
}

// Write writes the lanes of val selected by sel into the word containing
// addr. It returns false if the memory is read-only.
func (m *Mem) Write(addr, val uint32, sel uint8) bool {
	if m.Flags&MemFlagReadOnly != 0 {
		if m.Flags&MemFlagNoROLog == 0 {
			log.ModMem.ErrorZ("write to read-only memory").
				String("name", m.Name).
				Hex32("addr", addr).
				Hex32("val", val).
				End()
		}
		return false
	}
	i := m.index(addr)
	mask := SelMask32(sel) & m.dmask
	m.Words[i] = m.Words[i]&^mask | val&mask
	return true
}

// Serve performs the transfer described by req and returns the response.
// Memories always acknowledge, read-only memories ignore writes.
func (m *Mem) Serve(req *Request) Response {
	if !req.Active() {
		return Response{}
	}
	if req.We {
		m.Write(req.Adr, req.DatW, req.Sel)
		return Response{Ack: true}
	}
	return Response{Ack: true, DatR: m.Read(req.Adr)}
}
