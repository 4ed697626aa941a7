package hwio

import (
	"socgen/emu/log"
)

// MasterID identifies a master registered on an Arbiter. IDs are given in
// registration order, starting at 0.
type MasterID int

const noMaster MasterID = -1

// Arbiter shares a single downstream port between several masters.
//
// Masters are granted in round-robin order among those with a cycle in
// progress. The granted master keeps the bus until the end of its cycle:
// while a transfer isn't terminated or a burst continues, the grant can't
// move to another master.
type Arbiter struct {
	Name string

	shape   Shape
	masters []*Port
	frozen  bool

	bus     Port     // downstream port, the only one connected to the target
	grant   MasterID // last granted master
	granted bool     // bus owned during the last evaluation
	locked  bool     // granted master is in the middle of a cycle
}

func NewArbiter(name string, shape Shape) *Arbiter {
	return &Arbiter{
		Name:  name,
		shape: shape,
		bus:   Port{Name: name, Shape: shape},
		grant: noMaster,
	}
}

// Add registers a master port and returns its ID.
func (a *Arbiter) Add(p *Port) (MasterID, error) {
	if a.frozen {
		return noMaster, ErrFrozen
	}
	if p.Shape != a.shape {
		return noMaster, &ShapeError{Bus: a.Name, Port: p.Name, Want: a.shape, Got: p.Shape}
	}
	a.masters = append(a.masters, p)
	id := MasterID(len(a.masters) - 1)

	log.ModHwIo.DebugZ("adding master").
		String("bus", a.Name).
		String("master", p.Name).
		Int("id", int(id)).
		End()
	return id, nil
}

// Freeze forbids any further registration.
func (a *Arbiter) Freeze() { a.frozen = true }

// Masters returns the number of registered masters.
func (a *Arbiter) Masters() int { return len(a.masters) }

// Master returns the port of master id.
func (a *Arbiter) Master(id MasterID) *Port { return a.masters[id] }

// Bus returns the downstream port, as seen by the target after the last
// evaluation.
func (a *Arbiter) Bus() *Port { return &a.bus }

// Grant returns the master which owned the bus during the last evaluation.
func (a *Arbiter) Grant() (MasterID, bool) {
	if !a.granted {
		return noMaster, false
	}
	return a.grant, true
}

// Select returns the master that should own the bus given the current
// requests, or false if no master is requesting the bus.
func (a *Arbiter) Select() (MasterID, bool) {
	n := len(a.masters)
	if n == 0 {
		return noMaster, false
	}
	if a.locked && a.masters[a.grant].Cyc {
		return a.grant, true
	}
	for i := 1; i <= n; i++ {
		id := MasterID((int(a.grant) + i + n) % n)
		if a.masters[id].Cyc {
			return id, true
		}
	}
	return noMaster, false
}

// Eval selects a master, forwards its request to target and routes the
// response back to it. Masters not granted see an empty response.
func (a *Arbiter) Eval(target Target) {
	for _, m := range a.masters {
		m.Response = Response{}
	}

	id, ok := a.Select()
	a.granted = ok
	if !ok {
		a.locked = false
		a.bus.Request = Request{}
		target.Eval(&a.bus)
		return
	}

	if id != a.grant {
		log.ModHwIo.DebugZ("grant").
			String("bus", a.Name).
			String("master", a.masters[id].Name).
			End()
	}
	a.grant = id

	m := a.masters[id]
	a.bus.Request = m.Request
	target.Eval(&a.bus)
	m.Response = a.bus.Response

	done := a.bus.Ack || a.bus.Err
	a.locked = m.Cyc && (!done || (a.bus.Ack && m.Burst()))
}
