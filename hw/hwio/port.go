package hwio

import "fmt"

// Shape describes the widths of a bus. All ports connected to the same
// Decoder or Arbiter must share the same shape.
type Shape struct {
	AddrWidth   int // width of the word address, in bits
	DataWidth   int // width of the data bus, in bits
	Granularity int // smallest addressable unit, in bits
}

// DefaultShape is a 32-bit data bus with byte granularity and a 30-bit word
// address, that is a 4GB byte address space.
var DefaultShape = Shape{AddrWidth: 30, DataWidth: 32, Granularity: 8}

func (s Shape) Validate() error {
	switch s.DataWidth {
	case 8, 16, 32:
	default:
		return fmt.Errorf("unsupported data width %d (want 8, 16 or 32)", s.DataWidth)
	}
	// Byte selects are built one bit per byte lane (see SelMask32).
	if s.Granularity != 8 {
		return fmt.Errorf("unsupported granularity %d (want 8)", s.Granularity)
	}
	if s.AddrWidth < 1 || s.AddrWidth+log2(uint64(s.lanes())) > 32 {
		return fmt.Errorf("unsupported address width %d", s.AddrWidth)
	}
	return nil
}

func (s Shape) lanes() int {
	return s.DataWidth / s.Granularity
}

// WordBytes returns the number of address units (granularity) per data word.
func (s Shape) WordBytes() uint32 {
	return uint32(s.lanes())
}

// AddrSpace returns the size of the address space, in granularity units.
func (s Shape) AddrSpace() uint64 {
	return 1 << (s.AddrWidth + log2(uint64(s.lanes())))
}

// SelMask returns the byte-select mask with all lanes enabled.
func (s Shape) SelMask() uint8 {
	return uint8(1<<s.lanes() - 1)
}

func (s Shape) String() string {
	return fmt.Sprintf("adr:%d/dat:%d/gran:%d", s.AddrWidth, s.DataWidth, s.Granularity)
}

// CTI is the cycle type identifier of a transfer.
type CTI uint8

//go:generate stringer -type=CTI

const (
	Classic    CTI = iota // single transfer
	ConstAddr             // burst, same address for each transfer
	IncrAddr              // burst, incrementing addresses
	EndOfBurst            // last transfer of a burst
)

// BTE is the burst type extension, qualifying incrementing bursts.
type BTE uint8

//go:generate stringer -type=BTE

const (
	Linear BTE = iota
	Wrap4
	Wrap8
	Wrap16
)

// Request gathers the signals driven by a bus master.
//
// Adr is expressed in granularity units (bytes on an 8-bit granularity bus)
// and is always aligned to the data width.
type Request struct {
	Cyc  bool   // a bus cycle is in progress
	Stb  bool   // the current transfer is valid
	We   bool   // write enable
	Adr  uint32 // address
	DatW uint32 // data written by the master
	Sel  uint8  // byte-select mask, one bit per granularity lane
	CTI  CTI
	BTE  BTE
}

// Burst reports whether more transfers follow the current one in the same
// bus cycle.
func (r *Request) Burst() bool {
	return r.CTI == ConstAddr || r.CTI == IncrAddr
}

// Active reports whether the request carries a valid transfer.
func (r *Request) Active() bool {
	return r.Cyc && r.Stb
}

// Response gathers the signals driven by a bus slave.
type Response struct {
	DatR uint32 // data read by the master
	Ack  bool   // transfer acknowledged
	Err  bool   // transfer terminated with an error
}

// Port is one endpoint of a bus: the master drives the Request, the slave
// drives the Response.
type Port struct {
	Name  string
	Shape Shape
	Request
	Response
}

// NewPort returns a port named name with the given shape.
func NewPort(name string, shape Shape) *Port {
	return &Port{Name: name, Shape: shape}
}

func (p *Port) String() string {
	return fmt.Sprintf("%s{cyc:%t stb:%t we:%t adr:%08x sel:%x ack:%t err:%t}",
		p.Name, p.Cyc, p.Stb, p.We, p.Adr, p.Sel, p.Ack, p.Err)
}

// A Slave responds to the transactions addressed to its window.
//
// Eval samples the request currently driven on the slave port and drives the
// port response, combinationally, within the same tick. Slaves needing more
// than one tick leave Ack and Err deasserted.
type Slave interface {
	Port() *Port
	Eval()
}

// A Target evaluates the transaction driven on an upstream port. The Decoder
// is the target of the Arbiter.
type Target interface {
	Eval(up *Port)
}

// Line is a single level-sensitive signal, such as an interrupt output.
type Line struct {
	level bool
}

func (l *Line) Set(level bool) { l.level = level }
func (l *Line) Level() bool    { return l != nil && l.level }
