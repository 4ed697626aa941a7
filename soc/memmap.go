package soc

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-faster/jx"
)

// Region is an entry of the memory map.
type Region struct {
	Name string
	Kind PeriphKind
	Base uint32
	Size uint32
	IRQ  int // -1 if none
}

// MemoryMap lists the regions of a SoC, sorted by base address.
type MemoryMap struct {
	CPU       string
	ResetAddr uint32
	Regions   []Region
}

// MemoryMap returns the memory map of the SoC.
func (soc *SoC) MemoryMap() MemoryMap {
	irqs := make(map[string]int)
	for _, src := range soc.Intc.Sources() {
		irqs[src.Name] = src.Bit
	}

	mm := MemoryMap{
		CPU:       soc.CPU.Name(),
		ResetAddr: soc.CPU.ResetAddr(),
	}
	for _, b := range soc.Decoder.Bindings() {
		pc, _ := soc.Config.periph(b.Name)
		irq, ok := irqs[b.Name]
		if !ok {
			irq = -1
		}
		mm.Regions = append(mm.Regions, Region{
			Name: b.Name,
			Kind: pc.Kind,
			Base: b.Window.Base,
			Size: b.Window.Size,
			IRQ:  irq,
		})
	}
	return mm
}

// WriteText writes the memory map as a human readable table.
func (mm MemoryMap) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "cpu: %s, reset: 0x%08x\n", mm.CPU, mm.ResetAddr)
	fmt.Fprintf(tw, "NAME\tKIND\tBASE\tEND\tSIZE\tIRQ\n")
	for _, r := range mm.Regions {
		irq := "-"
		if r.IRQ >= 0 {
			irq = fmt.Sprint(r.IRQ)
		}
		end := uint64(r.Base) + uint64(r.Size) - 1
		fmt.Fprintf(tw, "%s\t%s\t0x%08x\t0x%08x\t0x%x\t%s\n", r.Name, r.Kind, r.Base, end, r.Size, irq)
	}
	return tw.Flush()
}

// WriteJSON writes the memory map as JSON.
func (mm MemoryMap) WriteJSON(w io.Writer) error {
	var e jx.Encoder
	e.SetIdent(2)

	e.ObjStart()
	e.FieldStart("cpu")
	e.Str(mm.CPU)
	e.FieldStart("reset_addr")
	e.UInt32(mm.ResetAddr)
	e.FieldStart("regions")
	e.ArrStart()
	for _, r := range mm.Regions {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(r.Name)
		e.FieldStart("kind")
		e.Str(r.Kind.String())
		e.FieldStart("base")
		e.UInt32(r.Base)
		e.FieldStart("size")
		e.UInt32(r.Size)
		e.FieldStart("irq")
		if r.IRQ >= 0 {
			e.Int(r.IRQ)
		} else {
			e.Null()
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}
