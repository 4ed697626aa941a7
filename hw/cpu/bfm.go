package cpu

import (
	"socgen/emu/log"
	"socgen/hw/hwio"
)

// Access is a data access to perform on the data master.
type Access struct {
	Write bool
	Addr  uint32
	Data  uint32 // written data
	Sel   uint8  // byte-select mask, zero means the whole word
}

// Completion is a data access terminated by the bus.
type Completion struct {
	Access
	Data uint32 // read data
	Err  bool
}

// bfm is the bus-functional model shared by all the variants. A variant
// only differs by its identity and the way it fetches instructions.
type bfm struct {
	name      string
	arch      string
	shape     hwio.Shape
	resetAddr uint32
	order     hwio.ByteOrder
	irqWidth  int
	burstLen  int // instruction fetch burst length, in words (1 means classic cycles)

	ibus hwio.Port
	dbus hwio.Port

	irq     IRQSource
	pending uint32

	pc      uint32
	beat    int
	halted  bool
	onFetch func(addr, word uint32)

	queue []Access
	done  []Completion
	traps []Trap

	cycles uint64
}

func newBFM(name, arch string, cfg Config, burstLen int) *bfm {
	return &bfm{
		name:      name,
		arch:      arch,
		shape:     cfg.Shape,
		resetAddr: cfg.ResetAddr,
		order:     hwio.LittleEndian,
		irqWidth:  32,
		burstLen:  burstLen,
		ibus:      hwio.Port{Name: name + ".ibus", Shape: cfg.Shape},
		dbus:      hwio.Port{Name: name + ".dbus", Shape: cfg.Shape},
	}
}

func (c *bfm) Name() string              { return c.name }
func (c *bfm) Arch() string              { return c.arch }
func (c *bfm) IBus() *hwio.Port          { return &c.ibus }
func (c *bfm) DBus() *hwio.Port          { return &c.dbus }
func (c *bfm) ResetAddr() uint32         { return c.resetAddr }
func (c *bfm) DataWidth() int            { return c.shape.DataWidth }
func (c *bfm) ByteOrder() hwio.ByteOrder { return c.order }
func (c *bfm) IRQWidth() int             { return c.irqWidth }
func (c *bfm) ConnectIRQ(src IRQSource)  { c.irq = src }
func (c *bfm) Pending() uint32           { return c.pending }
func (c *bfm) Halted() bool              { return c.halted }
func (c *bfm) Traps() []Trap             { return c.traps }
func (c *bfm) Cycles() uint64            { return c.cycles }

func (c *bfm) OnFetch(fn func(addr, word uint32)) { c.onFetch = fn }

func (c *bfm) Queue(acc Access) {
	c.queue = append(c.queue, acc)
}

func (c *bfm) Completed() []Completion {
	done := c.done
	c.done = nil
	return done
}

func (c *bfm) wordBytes() uint32 {
	return c.shape.WordBytes()
}

func (c *bfm) Reset() {
	c.pc = c.resetAddr &^ (c.wordBytes() - 1)
	c.beat = int(c.pc/c.wordBytes()) % c.burstLen
	c.halted = false
	c.pending = 0
	c.queue = nil
	c.done = nil
	c.traps = nil
	c.cycles = 0
	c.ibus.Request = hwio.Request{}
	c.dbus.Request = hwio.Request{}

	log.ModCPU.InfoZ("reset").
		String("cpu", c.name).
		Hex32("pc", c.pc).
		End()
}

func (c *bfm) Drive() {
	c.pending = 0
	if c.irq != nil {
		c.pending = c.irq.Vector() & uint32(uint64(1)<<c.irqWidth-1)
	}

	c.ibus.Request = hwio.Request{}
	if !c.halted {
		c.ibus.Request = hwio.Request{
			Cyc: true,
			Stb: true,
			Adr: c.pc,
			Sel: c.shape.SelMask(),
			CTI: hwio.Classic,
		}
		if c.burstLen > 1 {
			c.ibus.BTE = hwio.Linear
			c.ibus.CTI = hwio.IncrAddr
			if c.beat == c.burstLen-1 {
				c.ibus.CTI = hwio.EndOfBurst
			}
		}
	}

	c.dbus.Request = hwio.Request{}
	if len(c.queue) > 0 {
		acc := c.queue[0]
		sel := acc.Sel
		if sel == 0 {
			sel = c.shape.SelMask()
		}
		c.dbus.Request = hwio.Request{
			Cyc:  true,
			Stb:  true,
			We:   acc.Write,
			Adr:  acc.Addr &^ (c.wordBytes() - 1),
			DatW: acc.Data,
			Sel:  sel,
			CTI:  hwio.Classic,
		}
	}
}

func (c *bfm) Sample() {
	defer func() { c.cycles++ }()

	switch {
	case c.ibus.Ack:
		if c.onFetch != nil {
			c.onFetch(c.pc, c.ibus.DatR)
		}
		c.pc += c.wordBytes()
		c.beat = (c.beat + 1) % c.burstLen
	case c.ibus.Err:
		c.trap(InstrBusError, c.pc)
		c.halted = true
	}

	if len(c.queue) > 0 && (c.dbus.Ack || c.dbus.Err) {
		acc := c.queue[0]
		c.queue = c.queue[1:]
		c.done = append(c.done, Completion{Access: acc, Data: c.dbus.DatR, Err: c.dbus.Err})
		if c.dbus.Err {
			cause := LoadBusError
			if acc.Write {
				cause = StoreBusError
			}
			c.trap(cause, acc.Addr)
		}
	}
}

func (c *bfm) trap(cause TrapCause, addr uint32) {
	t := Trap{Cause: cause, Addr: addr, Cycle: c.cycles}
	c.traps = append(c.traps, t)
	log.ModCPU.WarnZ("bus error").
		String("cpu", c.name).
		Stringer("cause", cause).
		Hex32("addr", addr).
		Uint("cycle", c.cycles).
		End()
}
