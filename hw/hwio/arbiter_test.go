package hwio_test

import (
	"errors"
	"testing"

	"socgen/hw/hwio"
)

type testMaster struct {
	port *hwio.Port
	acks int
}

func newArbiterBus(tb testing.TB, nmasters int) (*hwio.Arbiter, *hwio.Decoder, []*testMaster, *testSlave) {
	tb.Helper()

	arb := hwio.NewArbiter("arb", hwio.DefaultShape)
	dec := hwio.NewDecoder("dec", hwio.DefaultShape)
	ram := newTestSlave(tb, "ram", 0x1000)
	if err := dec.Map("ram", ram, 0, 0x1000); err != nil {
		tb.Fatal(err)
	}

	var masters []*testMaster
	for i := range nmasters {
		m := &testMaster{port: hwio.NewPort("m", hwio.DefaultShape)}
		id, err := arb.Add(m.port)
		if err != nil {
			tb.Fatal(err)
		}
		if int(id) != i {
			tb.Fatalf("master %d got ID %d", i, id)
		}
		masters = append(masters, m)
	}
	return arb, dec, masters, ram
}

func request(m *testMaster, addr uint32, cti hwio.CTI) {
	m.port.Request = hwio.Request{Cyc: true, Stb: true, Adr: addr, Sel: 0xf, CTI: cti}
}

func TestArbiterIdle(t *testing.T) {
	arb, dec, _, ram := newArbiterBus(t, 2)
	arb.Eval(dec)

	if _, ok := arb.Grant(); ok {
		t.Errorf("bus granted while no master requests it")
	}
	if ram.evals != 0 {
		t.Errorf("transaction forwarded on idle bus")
	}
}

func TestArbiterFairness(t *testing.T) {
	const nmasters = 3
	arb, dec, masters, _ := newArbiterBus(t, nmasters)

	var grants []int
	for range 4 * nmasters {
		for i, m := range masters {
			request(m, uint32(i*4), hwio.Classic)
		}
		arb.Eval(dec)

		id, ok := arb.Grant()
		if !ok {
			t.Fatal("no grant while all masters request the bus")
		}
		grants = append(grants, int(id))

		for i, m := range masters {
			if m.port.Ack {
				m.acks++
				if i != int(id) {
					t.Errorf("master %d acknowledged while master %d owns the bus", i, id)
				}
			}
		}
	}

	// Any window of 2N ticks grants every master at least once.
	for start := 0; start+2*nmasters <= len(grants); start++ {
		seen := make(map[int]bool)
		for _, g := range grants[start : start+2*nmasters] {
			seen[g] = true
		}
		if len(seen) != nmasters {
			t.Errorf("grants[%d:%d] = %v, some masters starved", start, start+2*nmasters, grants[start:start+2*nmasters])
		}
	}
	for i, m := range masters {
		if m.acks != 4 {
			t.Errorf("master %d got %d acks, want 4", i, m.acks)
		}
	}
}

func TestArbiterBurstRetainsGrant(t *testing.T) {
	arb, dec, masters, ram := newArbiterBus(t, 2)
	m0, m1 := masters[0], masters[1]

	// m0 starts a 4 beats incrementing burst while m1 keeps requesting.
	ctis := []hwio.CTI{hwio.IncrAddr, hwio.IncrAddr, hwio.IncrAddr, hwio.EndOfBurst}
	for beat, cti := range ctis {
		request(m0, uint32(beat*4), cti)
		request(m1, 0x100, hwio.Classic)
		arb.Eval(dec)

		if id, _ := arb.Grant(); id != 0 {
			t.Fatalf("beat %d: grant = %d, want master 0 to keep the bus during its burst", beat, id)
		}
		if ram.last.Adr != uint32(beat*4) {
			t.Errorf("beat %d: slave saw address %#x", beat, ram.last.Adr)
		}
		if m1.port.Ack {
			t.Errorf("beat %d: master 1 acknowledged while not granted", beat)
		}
	}

	// Burst is over, master 1 gets the bus even if m0 keeps requesting.
	request(m0, 0x10, hwio.IncrAddr)
	request(m1, 0x100, hwio.Classic)
	arb.Eval(dec)
	if id, _ := arb.Grant(); id != 1 {
		t.Errorf("after burst: grant = %d, want 1", id)
	}
}

func TestArbiterReleaseOnCycDrop(t *testing.T) {
	arb, dec, masters, _ := newArbiterBus(t, 2)
	m0, m1 := masters[0], masters[1]

	request(m0, 0, hwio.IncrAddr)
	arb.Eval(dec)

	// m0 abandons its burst.
	m0.port.Request = hwio.Request{}
	request(m1, 0x100, hwio.Classic)
	arb.Eval(dec)
	if id, _ := arb.Grant(); id != 1 {
		t.Errorf("grant = %d, want 1 after master 0 dropped its cycle", id)
	}
}

// A slave inserting wait states keeps the master locked until it
// acknowledges.
type slowSlave struct {
	testSlave
	wait int
}

func (s *slowSlave) Eval() {
	s.evals++
	s.last = s.port.Request
	if s.wait > 0 {
		s.wait--
		return
	}
	s.port.Response = s.mem.Serve(&s.port.Request)
}

func TestArbiterWaitStates(t *testing.T) {
	arb := hwio.NewArbiter("arb", hwio.DefaultShape)
	dec := hwio.NewDecoder("dec", hwio.DefaultShape)
	slow := &slowSlave{testSlave: *newTestSlave(t, "slow", 0x1000), wait: 2}
	if err := dec.Map("slow", slow, 0, 0x1000); err != nil {
		t.Fatal(err)
	}
	m0 := &testMaster{port: hwio.NewPort("m0", hwio.DefaultShape)}
	m1 := &testMaster{port: hwio.NewPort("m1", hwio.DefaultShape)}
	arb.Add(m0.port)
	arb.Add(m1.port)

	for tick := range 3 {
		request(m0, 0, hwio.Classic)
		request(m1, 4, hwio.Classic)
		arb.Eval(dec)
		if id, _ := arb.Grant(); id != 0 {
			t.Fatalf("tick %d: grant = %d, want 0 until acknowledge", tick, id)
		}
	}
	if !m0.port.Ack {
		t.Errorf("master 0 never acknowledged")
	}

	request(m0, 0, hwio.Classic)
	request(m1, 4, hwio.Classic)
	arb.Eval(dec)
	if id, _ := arb.Grant(); id != 1 {
		t.Errorf("grant = %d, want 1 once master 0 transfer completed", id)
	}
}

func TestArbiterErrorReachesGrantedMasterOnly(t *testing.T) {
	arb, dec, masters, _ := newArbiterBus(t, 2)
	request(masters[0], 0x8000, hwio.Classic)
	arb.Eval(dec)

	if !masters[0].port.Err {
		t.Errorf("master 0 didn't get the bus error")
	}
	if masters[1].port.Err {
		t.Errorf("master 1 got a bus error while idle")
	}
}

func TestArbiterAddErrors(t *testing.T) {
	arb := hwio.NewArbiter("arb", hwio.DefaultShape)

	var serr *hwio.ShapeError
	p := hwio.NewPort("p", hwio.Shape{AddrWidth: 30, DataWidth: 8, Granularity: 8})
	if _, err := arb.Add(p); !errors.As(err, &serr) {
		t.Errorf("Add = %v, want *ShapeError", err)
	}

	arb.Freeze()
	if _, err := arb.Add(hwio.NewPort("q", hwio.DefaultShape)); !errors.Is(err, hwio.ErrFrozen) {
		t.Errorf("Add after Freeze = %v, want ErrFrozen", err)
	}
}
