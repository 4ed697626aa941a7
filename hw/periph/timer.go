package periph

import (
	"fmt"

	"socgen/hw/hwio"
)

const evZero = 1 << 0 // counter reached zero

// Timer is a down-counter. When enabled, the counter decrements every clock
// cycle; when it reaches zero it's reloaded and the zero event is raised.
type Timer struct {
	Name string

	Reload    hwio.Reg32 `hwio:"offset=0x00,wcb"`
	En        hwio.Reg32 `hwio:"offset=0x04,rwmask=0x1"`
	Ctr       hwio.Reg32 `hwio:"offset=0x08,wcb"`
	EvStatus  hwio.Reg32 `hwio:"offset=0x10,readonly,rcb"`
	EvPending hwio.Reg32 `hwio:"offset=0x14,rcb,wcb"`
	EvEnable  hwio.Reg32 `hwio:"offset=0x18,rwmask=0x1,wcb"`

	width int
	mask  uint32
	port  hwio.Port
	regs  *hwio.RegBank
	irq   hwio.Line
	ev    events
}

func NewTimer(name string, width int, shape hwio.Shape) (*Timer, error) {
	if width < 1 || width > 32 {
		return nil, fmt.Errorf("timer %s: invalid width %d", name, width)
	}
	t := &Timer{
		Name:  name,
		width: width,
		mask:  uint32(uint64(1)<<width - 1),
		port:  hwio.Port{Name: name, Shape: shape},
	}
	regs, err := hwio.NewRegBank(name, t, 0, shape)
	if err != nil {
		return nil, err
	}
	t.regs = regs
	return t, nil
}

func (t *Timer) Port() *hwio.Port { return &t.port }
func (t *Timer) IRQ() *hwio.Line  { return &t.irq }
func (t *Timer) Span() uint32     { return 0x20 }
func (t *Timer) Width() int       { return t.width }

func (t *Timer) Eval() {
	t.port.Response = t.regs.Serve(&t.port.Request)
	t.irq.Set(t.ev.level())
}

func (t *Timer) Tick() {
	if t.En.Value&1 != 0 {
		if t.Ctr.Value == 0 {
			t.Ctr.Value = t.Reload.Value
			t.ev.raise(evZero)
		} else {
			t.Ctr.Value--
			t.ev.lower(evZero)
		}
	}
	t.irq.Set(t.ev.level())
}

func (t *Timer) WriteRELOAD(_, val uint32) { t.Reload.Value = val & t.mask }
func (t *Timer) WriteCTR(_, val uint32)    { t.Ctr.Value = val & t.mask }

func (t *Timer) ReadEVSTATUS(uint32) uint32  { return t.ev.status }
func (t *Timer) ReadEVPENDING(uint32) uint32 { return t.ev.pending }

func (t *Timer) WriteEVPENDING(_, val uint32) {
	t.ev.pending &^= val
}

func (t *Timer) WriteEVENABLE(_, val uint32) {
	t.ev.enable = val
}
