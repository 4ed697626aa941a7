package periph

import (
	"errors"
	"fmt"

	"socgen/emu/log"
	"socgen/hw/hwio"
)

// ErrSealed is returned when loading a memory after its contents have been
// frozen.
var ErrSealed = errors.New("memory contents are sealed")

// SRAM is a RAM or ROM peripheral. A ROM ignores bus writes; both can be
// initialized with Load until Seal is called.
type SRAM struct {
	Name     string
	Mem      *hwio.Mem
	Writable bool

	port   hwio.Port
	sealed bool
}

func NewSRAM(name string, size uint32, writable bool, shape hwio.Shape) (*SRAM, error) {
	flags := hwio.MemFlagReadWrite
	if !writable {
		flags = hwio.MemFlagReadOnly
	}
	mem, err := hwio.NewMem(name, size, shape, flags)
	if err != nil {
		return nil, err
	}
	return &SRAM{
		Name:     name,
		Mem:      mem,
		Writable: writable,
		port:     hwio.Port{Name: name, Shape: shape},
	}, nil
}

func (s *SRAM) Port() *hwio.Port { return &s.port }
func (s *SRAM) Eval()            { s.port.Response = s.Mem.Serve(&s.port.Request) }
func (s *SRAM) Tick()            {}
func (s *SRAM) Span() uint32     { return s.Mem.Size() }

// Capacity returns the memory size, in words.
func (s *SRAM) Capacity() int {
	return len(s.Mem.Words)
}

// Load sets the initial contents of the memory: words are stored from offset
// 0, the rest of the memory is cleared.
func (s *SRAM) Load(words []uint64) error {
	if s.sealed {
		return ErrSealed
	}
	if len(words) > s.Capacity() {
		return fmt.Errorf("%s: %d words don't fit in %d", s.Name, len(words), s.Capacity())
	}
	limit := uint64(1)<<s.port.Shape.DataWidth - 1
	for i, w := range words {
		if w > limit {
			return fmt.Errorf("%s: word %d (%#x) larger than the data bus", s.Name, i, w)
		}
	}

	clear(s.Mem.Words)
	for i, w := range words {
		s.Mem.Words[i] = uint32(w)
	}
	log.ModMem.InfoZ("memory loaded").
		String("name", s.Name).
		Int("words", len(words)).
		Int("capacity", s.Capacity()).
		End()
	return nil
}

// Seal freezes the memory contents: further calls to Load fail and bus writes
// are ignored, even on a RAM.
func (s *SRAM) Seal() {
	s.sealed = true
	s.Mem.Flags |= hwio.MemFlagReadOnly
}
