// Package funcunit models the floating-point variant's heterogeneous pool
// of multi-cycle execute units. The integer variant is just the degenerate
// case of a pool holding a single Integer unit with latency 1 (see spec
// Design Notes on unifying both variants behind one parameterized core);
// timing/pipeline always dispatches through a Pool, so the two variants
// share one EX-stage implementation.
package funcunit

import (
	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/timing/latch"
)

// Type names a class of functional unit. Every opcode maps to exactly one
// Type via TypeForOpcode.
type Type int

const (
	Integer Type = iota
	Adder
	Multiplier
	Divider
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Adder:
		return "ADDER"
	case Multiplier:
		return "MULTIPLIER"
	case Divider:
		return "DIVIDER"
	default:
		return "UNKNOWN"
	}
}

// TypeForOpcode classifies an opcode into the functional unit type that
// executes it. Address arithmetic (loads, stores), integer ALU ops, and
// branch condition tests all run on an Integer unit; only the FP arithmetic
// opcodes use the Adder/Multiplier/Divider units.
func TypeForOpcode(op isa.Opcode) Type {
	switch op {
	case isa.ADDS, isa.SUBS:
		return Adder
	case isa.MULTS:
		return Multiplier
	case isa.DIVS:
		return Divider
	default:
		return Integer
	}
}

// Unit is one multi-cycle execute unit. While Occupied, Busy counts the
// cycles remaining before the resident instruction's result is ready to
// move into MEM; Latch holds that instruction's precomputed result (ALU
// output, branch condition, store value) since a behavioral simulator has
// no reason to defer the arithmetic itself — only its visibility to MEM —
// once the operands are known at dispatch time.
type Unit struct {
	ID       int
	Type     Type
	Latency  uint32
	Occupied bool
	Busy     uint32
	Inst     isa.Instruction
	Dest     uint32
	DestIsFP bool
	Latch    latch.Register
}

// Pool is the collection of execute units a Simulator dispatches into. A
// pool configured with one Integer unit of latency 1 behaves exactly like a
// classic single-cycle ALU; the FP variant configures one pool entry per
// functional unit named in its timing configuration.
type Pool struct {
	Units []*Unit
}

// NewPool returns an empty pool. Use AddUnit to populate it.
func NewPool() *Pool {
	return &Pool{}
}

// AddUnit appends a new unit of the given type and latency and returns it.
func (p *Pool) AddUnit(t Type, latency uint32) *Unit {
	u := &Unit{ID: len(p.Units), Type: t, Latency: latency}
	p.Units = append(p.Units, u)
	return u
}

// Acquire returns the lowest-ID idle unit of the given type, or nil if every
// unit of that type is currently occupied (a structural hazard: the caller
// must stall dispatch until one frees up).
func (p *Pool) Acquire(t Type) *Unit {
	for _, u := range p.Units {
		if u.Type == t && !u.Occupied {
			return u
		}
	}
	return nil
}

// Dispatch occupies unit u with inst, targeting destination register dest
// (destIsFP selects which register file WB will write). Busy is seeded from
// the unit's configured latency; a latency-1 unit is immediately ready on
// the next Tick.
func (u *Unit) Dispatch(inst isa.Instruction, dest uint32, destIsFP bool) {
	u.Occupied = true
	u.Busy = u.Latency
	u.Inst = inst
	u.Dest = dest
	u.DestIsFP = destIsFP
}

// Ready reports whether the unit's resident instruction has finished its
// latency countdown and is waiting to be picked up by MEM.
func (u *Unit) Ready() bool {
	return u.Occupied && u.Busy == 0
}

// Release clears the unit back to idle.
func (u *Unit) Release() {
	u.Occupied = false
	u.Busy = 0
	u.Inst = isa.Instruction{}
	u.Dest = 0
	u.DestIsFP = false
	u.Latch = latch.Register{}
}

// Tick decrements every occupied unit's busy counter by one cycle, floored
// at zero. A unit that reaches zero stays Occupied (and Ready) until the
// caller explicitly Releases it after consuming its result.
func (p *Pool) Tick() {
	for _, u := range p.Units {
		if u.Occupied && u.Busy > 0 {
			u.Busy--
		}
	}
}

// AllIdle reports whether every unit in the pool is free. EOP may only be
// promoted out of ID once the pool has fully drained (spec Design Notes).
func (p *Pool) AllIdle() bool {
	for _, u := range p.Units {
		if u.Occupied {
			return false
		}
	}
	return true
}

// ReadyUnits returns every unit whose countdown has completed, in
// descending ID order. The EX-to-MEM dispatch loop walks the pool in this
// order so that, when two units complete on the same cycle, the
// higher-indexed unit's result is the one that advances into MEM first —
// a deterministic, documented tie-break rather than map-iteration order.
func (p *Pool) ReadyUnits() []*Unit {
	var ready []*Unit
	for i := len(p.Units) - 1; i >= 0; i-- {
		if p.Units[i].Ready() {
			ready = append(ready, p.Units[i])
		}
	}
	return ready
}

// BusyWithDest returns every occupied unit currently targeting dest in the
// given register file (destIsFP selects integer vs FP file), used by the
// hazard unit's WAW check: a new instruction may not issue into a unit that
// would complete before an older in-flight writer to the same register.
func (p *Pool) BusyWithDest(dest uint32, destIsFP bool) []*Unit {
	var units []*Unit
	for _, u := range p.Units {
		if u.Occupied && u.Dest == dest && u.DestIsFP == destIsFP {
			units = append(units, u)
		}
	}
	return units
}
