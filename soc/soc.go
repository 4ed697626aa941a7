// Package soc composes a system-on-chip from a CPU core, memories and
// peripherals, and simulates it cycle by cycle.
//
// The CPU instruction and data masters share a single bus through a
// round-robin arbiter; an address decoder routes each transaction to the
// slave owning the address. Peripheral interrupt lines are gathered into the
// interrupt vector of the CPU.
package soc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"

	"socgen/emu/log"
	"socgen/fw"
	"socgen/hw/cpu"
	"socgen/hw/hwio"
	"socgen/hw/intc"
	"socgen/hw/periph"
)

// SupportedClock is the only system clock frequency supported, in Hz.
const SupportedClock = 75_000_000

// simDivisor is the UART divisor used in simulation mode.
const simDivisor = 5

// An UnsupportedClockError is returned for clock frequencies other than
// SupportedClock.
type UnsupportedClockError struct {
	Freq uint64
}

func (e *UnsupportedClockError) Error() string {
	return fmt.Sprintf("unsupported clock frequency %dHz (want %dHz)", e.Freq, SupportedClock)
}

// A ComposeError is returned when a SoC can't be composed. Step identifies
// the composition step that failed.
type ComposeError struct {
	Step string
	Err  error
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("compose: %s: %v", e.Step, e.Err)
}

func (e *ComposeError) Unwrap() error { return e.Err }

// Option configures optional SoC behaviors.
type Option func(*options)

type options struct {
	trace   io.Writer
	uartOut io.Writer
}

// WithTrace writes a trace of the system bus transfers to w.
func WithTrace(w io.Writer) Option {
	return func(o *options) { o.trace = w }
}

// WithUARTOutput writes the bytes sent by UARTs to w (default os.Stdout).
func WithUARTOutput(w io.Writer) Option {
	return func(o *options) { o.uartOut = w }
}

// SoC is a composed system-on-chip. It's not safe for concurrent use.
type SoC struct {
	Config Config

	CPU     cpu.Core
	Arbiter *hwio.Arbiter
	Decoder *hwio.Decoder
	Intc    *intc.Aggregator
	Image   *fw.Image // nil if booting from zeroed memory

	periphs []periph.Peripheral // in configuration order
	byName  map[string]periph.Peripheral

	trace *tracer
	ticks uint64
}

// Compose builds the SoC described by cfg. Nothing is returned if any step
// fails.
func Compose(cfg Config, opts ...Option) (*SoC, error) {
	o := options{uartOut: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	fail := func(step string, err error) (*SoC, error) {
		log.ModSoC.WarnZ("composition failed").
			String("step", step).
			Error("err", err).
			End()
		return nil, &ComposeError{Step: step, Err: err}
	}

	shape := hwio.DefaultShape

	core, err := cpu.New(cfg.CPU, cpu.Config{
		ResetAddr: cfg.ResetAddr,
		Shape:     shape,
		Artifact:  cfg.Artifact,
	})
	if err != nil {
		return fail("cpu", err)
	}
	if cfg.ClockFreq != SupportedClock {
		return fail("clock", &UnsupportedClockError{Freq: cfg.ClockFreq})
	}
	if err := cfg.Validate(); err != nil {
		return fail("config", err)
	}

	soc := &SoC{
		Config:  cfg,
		CPU:     core,
		Arbiter: hwio.NewArbiter("sysbus", shape),
		Decoder: hwio.NewDecoder("sysbus", shape),
		byName:  make(map[string]periph.Peripheral),
	}

	// Instruction master first, it wins the first arbitration.
	for _, p := range []*hwio.Port{core.IBus(), core.DBus()} {
		if _, err := soc.Arbiter.Add(p); err != nil {
			return fail("arbiter", err)
		}
	}

	for _, pc := range cfg.Periphs {
		p, err := newPeriph(pc, &cfg, &o, shape)
		if err != nil {
			return fail("periph", err)
		}
		size := pc.Size
		if size == 0 {
			size = p.Span()
		}
		if size < p.Span() {
			return fail("periph", configErrorf(pc.Name, "size 0x%x smaller than register span 0x%x", size, p.Span()))
		}
		if err := soc.Decoder.Map(pc.Name, p, pc.Addr, size); err != nil {
			return fail("periph", err)
		}
		soc.periphs = append(soc.periphs, p)
		soc.byName[pc.Name] = p
	}

	if cfg.IRQWidth != 0 && cfg.IRQWidth != core.IRQWidth() {
		return fail("irq", configErrorf("irq_width", "%d doesn't match %s interrupt vector width %d",
			cfg.IRQWidth, core.Name(), core.IRQWidth()))
	}
	soc.Intc, err = intc.New(core.IRQWidth())
	if err != nil {
		return fail("irq", err)
	}
	for _, pc := range cfg.Periphs {
		if pc.IRQ == nil {
			continue
		}
		irq := soc.byName[pc.Name].(periph.Interrupter).IRQ()
		if err := soc.Intc.Add(pc.Name, irq, *pc.IRQ); err != nil {
			return fail("irq", err)
		}
	}

	core.ConnectIRQ(soc.Intc)

	if err := soc.loadFirmware(); err != nil {
		return fail("firmware", err)
	}

	soc.Decoder.Freeze()
	soc.Arbiter.Freeze()
	soc.Intc.Freeze()

	if o.trace != nil {
		soc.trace = &tracer{w: o.trace}
	}

	log.ModSoC.InfoZ("soc composed").
		String("cpu", core.Name()).
		Int("periphs", len(soc.periphs)).
		Hex32("reset", core.ResetAddr()).
		End()
	return soc, nil
}

func newPeriph(pc PeriphConfig, cfg *Config, o *options, shape hwio.Shape) (periph.Peripheral, error) {
	switch pc.Kind {
	case KindROM, KindRAM:
		return periph.NewSRAM(pc.Name, pc.Size, pc.Kind == KindRAM, shape)
	case KindUART:
		div := uint32(cfg.ClockFreq / uint64(pc.Baudrate))
		if cfg.Sim {
			div = simDivisor
		}
		return periph.NewUART(pc.Name, div, o.uartOut, shape)
	case KindTimer:
		return periph.NewTimer(pc.Name, pc.Width, shape)
	}
	return nil, configErrorf(pc.Name, "invalid kind %d", pc.Kind)
}

// loadFirmware loads the firmware image, if any, into the boot memory which
// is then sealed.
func (soc *SoC) loadFirmware() error {
	name, ok := soc.Config.bootMemory()
	if !ok {
		return nil
	}
	boot, ok := soc.byName[name].(*periph.SRAM)
	if !ok {
		return configErrorf("boot", "%q is not a memory", name)
	}

	if b, ok := soc.Decoder.Lookup(soc.CPU.ResetAddr()); !ok || b.Name != name {
		log.ModSoC.WarnZ("reset address outside of boot memory").
			Hex32("reset", soc.CPU.ResetAddr()).
			String("boot", name).
			End()
	}

	if soc.Config.Firmware != "" {
		img, err := fw.Open(soc.Config.Firmware, soc.CPU.DataWidth(), soc.CPU.ByteOrder())
		if err != nil {
			return err
		}
		if err := img.WriteTo(boot); err != nil {
			return err
		}
		soc.Image = img
	}
	boot.Seal()
	return nil
}

// Periph returns the peripheral named name.
func (soc *SoC) Periph(name string) (periph.Peripheral, bool) {
	p, ok := soc.byName[name]
	return p, ok
}

// Ticks returns the number of elapsed clock cycles.
func (soc *SoC) Ticks() uint64 { return soc.ticks }

// Tick advances the whole SoC by one clock cycle.
func (soc *SoC) Tick() {
	for _, p := range soc.periphs {
		p.Tick()
	}

	soc.CPU.Drive()
	soc.Arbiter.Eval(soc.Decoder)
	soc.CPU.Sample()

	if soc.trace != nil {
		soc.trace.write(soc.ticks, soc.Arbiter)
	}
	soc.ticks++
}

// Run runs the SoC for the given number of ticks, or until the CPU halts or
// ctx is done. A zero ticks count means no limit. It returns the number of
// executed ticks.
func (soc *SoC) Run(ctx context.Context, ticks uint64) (uint64, error) {
	log.AddContext(soc)
	defer log.RemoveContext(soc)

	start := soc.ticks
	for ticks == 0 || soc.ticks-start < ticks {
		if soc.CPU.Halted() {
			log.ModSoC.InfoZ("cpu halted").End()
			break
		}
		if err := ctx.Err(); err != nil {
			return soc.ticks - start, err
		}
		soc.Tick()
	}
	return soc.ticks - start, nil
}

// AddLogContext implements log.LogContextAdder.
func (soc *SoC) AddLogContext(entry *log.EntryZ) {
	entry.Uint("tick", soc.ticks)
}

// WriteGraph writes a DOT graph of the bus masters and of the memory map to w.
func (soc *SoC) WriteGraph(w io.Writer) {
	mm := soc.MemoryMap()
	memviz.Map(w, soc.Arbiter, &mm)
}
