package periph

import (
	"fmt"
	"io"

	"socgen/emu/log"
	"socgen/hw/hwio"
)

const (
	evRxRdy = 1 << iota // a byte has been received
	evRxErr             // receive overrun
	evTxMty             // transmitter empty
)

// UART is an asynchronous serial port. The transmitter takes 10 bit times
// (start, 8 data bits, stop) to send a byte, a bit time being Divisor clock
// cycles. Sent bytes are written to Out as soon as they're accepted.
type UART struct {
	Name string
	Out  io.Writer

	Divisor   hwio.Reg32 `hwio:"offset=0x00,rwmask=0xffff"`
	RxData    hwio.Reg32 `hwio:"offset=0x04,readonly,rcb"`
	RxRdy     hwio.Reg32 `hwio:"offset=0x08,readonly"`
	RxErr     hwio.Reg32 `hwio:"offset=0x0c,readonly"`
	TxData    hwio.Reg32 `hwio:"offset=0x10,writeonly,rwmask=0xff,wcb"`
	TxRdy     hwio.Reg32 `hwio:"offset=0x14,readonly,reset=1"`
	EvStatus  hwio.Reg32 `hwio:"offset=0x20,readonly,rcb"`
	EvPending hwio.Reg32 `hwio:"offset=0x24,rcb,wcb"`
	EvEnable  hwio.Reg32 `hwio:"offset=0x28,rwmask=0x7,wcb"`

	port   hwio.Port
	regs   *hwio.RegBank
	irq    hwio.Line
	ev     events
	txBusy int
	outErr bool // output failure already logged
}

func NewUART(name string, divisor uint32, out io.Writer, shape hwio.Shape) (*UART, error) {
	if divisor == 0 || divisor > 0xffff {
		return nil, fmt.Errorf("uart %s: invalid divisor %d", name, divisor)
	}
	u := &UART{
		Name: name,
		Out:  out,
		port: hwio.Port{Name: name, Shape: shape},
	}
	regs, err := hwio.NewRegBank(name, u, 0, shape)
	if err != nil {
		return nil, err
	}
	u.regs = regs
	u.Divisor.Value = divisor
	u.ev.status = evTxMty
	return u, nil
}

func (u *UART) Port() *hwio.Port { return &u.port }
func (u *UART) IRQ() *hwio.Line  { return &u.irq }
func (u *UART) Span() uint32     { return 0x40 }

func (u *UART) Eval() {
	u.port.Response = u.regs.Serve(&u.port.Request)
	u.irq.Set(u.ev.level())
}

func (u *UART) Tick() {
	if u.txBusy > 0 {
		u.txBusy--
		if u.txBusy == 0 {
			u.TxRdy.Value = 1
			u.ev.raise(evTxMty)
		}
	}
	u.irq.Set(u.ev.level())
}

// Receive simulates the reception of a byte. An unread byte is overwritten
// and flags a receive error.
func (u *UART) Receive(b byte) {
	if u.RxRdy.Value != 0 {
		u.RxErr.Value = 1
		u.ev.raise(evRxErr)
	}
	u.RxData.Value = uint32(b)
	u.RxRdy.Value = 1
	u.ev.raise(evRxRdy)
	u.irq.Set(u.ev.level())
}

func (u *UART) ReadRXDATA(val uint32) uint32 {
	u.RxRdy.Value = 0
	u.RxErr.Value = 0
	u.ev.lower(evRxRdy | evRxErr)
	return val
}

func (u *UART) WriteTXDATA(_, val uint32) {
	if u.TxRdy.Value == 0 {
		log.ModPeriph.WarnZ("uart tx overrun").
			String("name", u.Name).
			Hex8("data", uint8(val)).
			End()
		return
	}
	if u.Out != nil {
		if _, err := u.Out.Write([]byte{byte(val)}); err != nil && !u.outErr {
			u.outErr = true
			log.ModPeriph.ErrorZ("uart output failed").
				String("name", u.Name).
				Error("err", err).
				End()
		}
	}
	u.TxRdy.Value = 0
	u.txBusy = 10 * int(u.Divisor.Value)
	u.ev.lower(evTxMty)
}

func (u *UART) ReadEVSTATUS(uint32) uint32  { return u.ev.status }
func (u *UART) ReadEVPENDING(uint32) uint32 { return u.ev.pending }

func (u *UART) WriteEVPENDING(_, val uint32) {
	u.ev.pending &^= val
}

func (u *UART) WriteEVENABLE(_, val uint32) {
	u.ev.enable = val
}
