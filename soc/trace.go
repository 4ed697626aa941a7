package soc

import (
	"io"

	"socgen/emu/log"
	"socgen/hw/hwio"
)

// tracer writes one line per bus transfer, in the form:
//
//	00000012  minerva.ibus   R  00000040  00001010  ACK
//
// Tracing stops at the first write error.
type tracer struct {
	w      io.Writer
	buf    []byte
	failed bool
}

func hexEncode32(dst []byte, v uint32) {
	const hextable = "0123456789abcdef"
	for i := 7; i >= 0; i-- {
		dst[i] = hextable[v&0x0f]
		v >>= 4
	}
}

func (t *tracer) write(tick uint64, arb *hwio.Arbiter) {
	if t.failed {
		return
	}
	id, ok := arb.Grant()
	if !ok {
		return
	}
	bus := arb.Bus()
	if !bus.Active() {
		return
	}

	const nameWidth = 14
	buf := t.buf[:0]

	var tmp [8]byte
	hexEncode32(tmp[:], uint32(tick))
	buf = append(buf, tmp[:]...)
	buf = append(buf, ' ', ' ')

	name := arb.Master(id).Name
	buf = append(buf, name...)
	for i := len(name); i < nameWidth; i++ {
		buf = append(buf, ' ')
	}
	buf = append(buf, ' ')

	data := bus.DatR
	if bus.We {
		buf = append(buf, 'W')
		data = bus.DatW
	} else {
		buf = append(buf, 'R')
	}
	buf = append(buf, ' ', ' ')

	hexEncode32(tmp[:], bus.Adr)
	buf = append(buf, tmp[:]...)
	buf = append(buf, ' ', ' ')

	switch {
	case bus.Ack:
		hexEncode32(tmp[:], data)
		buf = append(buf, tmp[:]...)
		buf = append(buf, "  ACK"...)
	case bus.Err:
		buf = append(buf, "--------  ERR"...)
	default:
		buf = append(buf, "--------  WAIT"...)
	}
	buf = append(buf, '\n')

	t.buf = buf
	if _, err := t.w.Write(buf); err != nil {
		t.failed = true
		log.ModSoC.ErrorZ("bus trace write failed").
			Uint("tick", tick).
			Error("err", err).
			End()
	}
}
