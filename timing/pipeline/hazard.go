// Package pipeline implements the 5-stage, in-order, no-forwarding timing
// model: the inter-stage stall/hazard protocol and the Simulator driver
// that ticks the five stage handlers every cycle.
package pipeline

import (
	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/machine"
	"github.com/sarchlab/mips5sim/timing/funcunit"
	"github.com/sarchlab/mips5sim/timing/latency"
)

// operandKind says which register file (if any) an instruction's source or
// destination field names. The original reference simulator reads both
// IR.src1 and IR.src2 unconditionally and relies on an opcode's unused
// field defaulting to register 0 (always non-destination) to stay harmless;
// this table says explicitly, per opcode, which fields are real rather than
// leaning on that coincidence.
type operandKind int

const (
	noReg operandKind = iota
	intReg
	fpReg
)

// src1Kind reports what IR.Src1 names for op.
func src1Kind(op isa.Opcode) operandKind {
	switch op {
	case isa.ADD, isa.SUB, isa.XOR, isa.ADDI, isa.SUBI:
		return intReg
	case isa.LW, isa.LWS:
		return intReg // base register
	case isa.SW:
		return intReg // value register
	case isa.SWS:
		return fpReg // value register
	case isa.ADDS, isa.SUBS, isa.MULTS, isa.DIVS:
		return fpReg
	case isa.BEQZ, isa.BNEZ, isa.BLTZ, isa.BGTZ, isa.BLEZ, isa.BGEZ:
		return intReg
	default:
		return noReg
	}
}

// src2Kind reports what IR.Src2 names for op.
func src2Kind(op isa.Opcode) operandKind {
	switch op {
	case isa.ADD, isa.SUB, isa.XOR:
		return intReg
	case isa.ADDS, isa.SUBS, isa.MULTS, isa.DIVS:
		return fpReg
	case isa.SW, isa.SWS:
		return intReg // base register, always in the integer file
	default:
		return noReg
	}
}

// destKind reports what IR.Dest names for op.
func destKind(op isa.Opcode) operandKind {
	switch op {
	case isa.ADD, isa.SUB, isa.XOR, isa.ADDI, isa.SUBI, isa.LW:
		return intReg
	case isa.ADDS, isa.SUBS, isa.MULTS, isa.DIVS, isa.LWS:
		return fpReg
	default:
		return noReg
	}
}

// HazardUnit detects the three stall conditions ID must resolve before
// dispatching into the functional-unit pool: RAW (a source register is
// still a pending writer's destination), WAW (the new instruction's own
// destination belongs to an older in-flight writer that would finish
// later), and structural (no free unit of the needed type). There is no
// forwarding path to reduce any of these to a single bubble — every hazard
// stalls until it clears.
type HazardUnit struct{}

// NewHazardUnit returns a stateless hazard unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// HasRAWHazard reports whether inst reads a register some older in-flight
// instruction still has marked as its destination.
func (h *HazardUnit) HasRAWHazard(intRegs, fpRegs *machine.RegFile, inst isa.Instruction) bool {
	if k := src1Kind(inst.Opcode); k != noReg {
		if regFileByKind(intRegs, fpRegs, k).IsDestination(inst.Src1) {
			return true
		}
	}
	if k := src2Kind(inst.Opcode); k != noReg {
		if regFileByKind(intRegs, fpRegs, k).IsDestination(inst.Src2) {
			return true
		}
	}
	return false
}

// HasWAWHazard reports whether dispatching inst now would let it complete
// at or before an older in-flight instruction that targets the same
// destination register — an out-of-order writeback that would leave the
// register holding the older instruction's (stale) result.
func (h *HazardUnit) HasWAWHazard(pool *funcunit.Pool, lat *latency.Table, inst isa.Instruction) bool {
	dk := destKind(inst.Opcode)
	if dk == noReg {
		return false
	}
	newLatency := uint32(lat.GetLatency(inst.Opcode))
	for _, u := range pool.BusyWithDest(inst.Dest, dk == fpReg) {
		if u.Busy >= newLatency {
			return true
		}
	}
	return false
}

// AcquireUnit attempts the structural-hazard check: it returns the unit
// inst would dispatch into, or nil if every unit of the required type is
// currently occupied.
func (h *HazardUnit) AcquireUnit(pool *funcunit.Pool, op isa.Opcode) *funcunit.Unit {
	return pool.Acquire(funcunit.TypeForOpcode(op))
}

func regFileByKind(intRegs, fpRegs *machine.RegFile, k operandKind) *machine.RegFile {
	if k == fpReg {
		return fpRegs
	}
	return intRegs
}
