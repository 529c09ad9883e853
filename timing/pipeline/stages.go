package pipeline

import (
	"fmt"
	"math"

	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/machine"
	"github.com/sarchlab/mips5sim/timing/funcunit"
	"github.com/sarchlab/mips5sim/timing/latch"
)

// doFetch is IF. It applies a pending branch redirect (computed in MEM,
// applied here, exactly as the reference simulator's pipe_IF_Handler does),
// fetches the next instruction into ID, and advances PC unless the
// instruction just fetched is EOP — the program's end pins PC in place so
// IF harmlessly "re-fetches" the same EOP forever rather than running off
// the end of the program.
func (s *Simulator) doFetch() {
	ifl := s.ifLatch
	if !ifl.IsAvailable {
		return
	}

	if s.idLatch.IR.IsBranch() && s.memLatch.Cond == 1 {
		s.memLatch.Cond = 0
		ifl.PC = s.memLatch.ALUOutput
	}

	index := (ifl.PC - s.baseAddress) / 4
	if index < uint32(len(s.Program)) {
		s.idLatch.IR = s.Program[index]
	} else {
		s.idLatch.IR = isa.NewUndefinedInstruction(isa.EOP)
	}
	s.idLatch.IsAvailable = true

	if s.idLatch.IR.Opcode != isa.EOP {
		ifl.PC += 4
		s.idLatch.NPC = ifl.PC
	}
}

// doDecode is ID. A memory stall freezes it outright. EOP/NOP bypass
// hazard checking entirely (they touch no register) and ride a zero-latency
// Integer-unit slot down to MEM; EOP additionally waits for the functional
// unit pool to fully drain, so a slow FP op in flight can't lose its
// writeback to a premature halt. An in-flight branch skips straight to
// progressing its two-cycle resolution wait instead of re-running hazard
// detection against an instruction it already dispatched.
func (s *Simulator) doDecode() {
	if s.isMemoryOngoing {
		return
	}

	id := s.idLatch

	switch id.IR.Opcode {
	case isa.EOP:
		if !s.pool.AllIdle() {
			return
		}
		s.dispatchMarker(id)
		return
	case isa.NOP:
		s.dispatchMarker(id)
		return
	}

	if s.isBranchOngoing {
		s.controlDelay++
		if s.isBranchCalculated {
			s.controlDelay = 0
			s.ifLatch.IsAvailable = true
			s.isBranchOngoing = false
			s.isBranchCalculated = false
		} else {
			s.stallCount++
			s.ifLatch.IsAvailable = false
		}
		return
	}

	raw := s.hazard.HasRAWHazard(s.IntRegs, s.FPRegs, id.IR)
	waw := !raw && s.hazard.HasWAWHazard(s.pool, s.lat, id.IR)

	var unit *funcunit.Unit
	structural := false
	if !raw && !waw {
		unit = s.hazard.AcquireUnit(s.pool, id.IR.Opcode)
		structural = unit == nil
		if structural {
			t := funcunit.TypeForOpcode(id.IR.Opcode)
			configured := false
			for _, u := range s.pool.Units {
				configured = configured || u.Type == t
			}
			if !configured {
				panic(fmt.Sprintf("pipeline: no %s functional unit configured to execute %s", t, id.IR.Opcode))
			}
		}
	}

	if raw || waw || structural {
		s.stallCount++
		s.ifLatch.IsAvailable = false
		return
	}

	if id.IR.IsBranch() {
		s.controlDelay = 1
		s.stallCount++
		s.ifLatch.IsAvailable = false
		s.isBranchOngoing = true
		s.isBranchCalculated = false
	} else {
		s.ifLatch.IsAvailable = true
	}

	s.dispatch(unit, id)
}

// dispatch reads operands (applying the SW/SWS A/B swap so A always ends up
// holding the address-calculation register and B the value to store),
// precomputes the ALU result and branch condition, marks the destination
// register pending, and occupies the acquired functional unit.
func (s *Simulator) dispatch(unit *funcunit.Unit, id *latch.Register) {
	inst := id.IR

	a := s.readOperand(src1Kind(inst.Opcode), inst.Src1)
	b := s.readOperand(src2Kind(inst.Opcode), inst.Src2)
	if inst.Opcode == isa.SW || inst.Opcode == isa.SWS {
		a, b = b, a
	}

	result := latch.Register{
		IR:  inst,
		A:   a,
		B:   b,
		Imm: inst.Immediate,
		NPC: id.NPC,
		Rd:  isa.Undefined,
	}

	destIsFP := false
	if dk := destKind(inst.Opcode); dk != noReg {
		destIsFP = dk == fpReg
		result.Rd = inst.Dest
		s.regFileFor(destIsFP).MarkDestination(inst.Dest)
	}

	result.ALUOutput = computeALU(inst.Opcode, a, b, inst.Immediate, id.NPC)
	if inst.IsBranch() {
		result.Cond = computeCond(inst.Opcode, a)
	} else {
		result.Cond = isa.Undefined
	}

	unit.Dispatch(inst, result.Rd, destIsFP)
	unit.Latch = result
}

// dispatchMarker moves a NOP or EOP through the pipeline without touching
// any register or occupying a real functional unit for more than an
// instant: it claims an Integer unit with Busy forced to zero, so the next
// doExecute call picks it straight back up.
func (s *Simulator) dispatchMarker(id *latch.Register) {
	unit := s.pool.Acquire(funcunit.Integer)
	if unit == nil {
		s.ifLatch.IsAvailable = false
		return
	}
	unit.Occupied = true
	unit.Busy = 0
	unit.Inst = id.IR
	unit.Dest = isa.Undefined
	unit.Latch = latch.Register{
		IR:        id.IR,
		A:         isa.Undefined,
		B:         isa.Undefined,
		Imm:       isa.Undefined,
		Rd:        isa.Undefined,
		ALUOutput: isa.Undefined,
		Cond:      isa.Undefined,
		NPC:       id.NPC,
	}
	s.ifLatch.IsAvailable = true
}

func (s *Simulator) readOperand(kind operandKind, reg uint32) uint32 {
	if kind == noReg {
		return isa.Undefined
	}
	return s.regFileFor(kind == fpReg).Read(reg)
}

func (s *Simulator) regFileFor(fp bool) *machine.RegFile {
	if fp {
		return s.FPRegs
	}
	return s.IntRegs
}

// doExecute is EX. It ticks every occupied unit's busy countdown and, if
// MEM is currently free to accept a new instruction, moves the
// highest-index ready unit's precomputed result into MEM (the descending
// tie-break is funcunit.Pool.ReadyUnits' documented contract). A memory
// stall freezes the whole stage: no ticking, no completion.
func (s *Simulator) doExecute() {
	if s.poolAvailable {
		s.pool.Tick()
		ready := s.pool.ReadyUnits()
		if len(ready) > 0 {
			u := ready[0]
			s.memLatch.IR = u.Inst
			s.memLatch.ALUOutput = u.Latch.ALUOutput
			s.memLatch.Cond = u.Latch.Cond
			s.memLatch.B = u.Latch.B
			s.memLatch.Rd = u.Dest
			s.memLatch.IsAvailable = true
			u.Release()
		}
	}
	if s.memLatch.IR.Opcode == isa.EOP {
		s.memLatch.B = isa.Undefined
		s.memLatch.Rd = isa.Undefined
		s.memLatch.ALUOutput = isa.Undefined
		s.memLatch.Cond = isa.Undefined
	}
}

// doMemory is MEM. On the cycle a load/store first arrives it starts the
// multi-cycle access, freezing MEM/EX/ID/IF until it completes; every other
// cycle it simply forwards whatever MEM is holding into WB, performing the
// actual read_word/write_word access when that forwarding happens.
//
// wasAvailable snapshots MEM's entering-cycle state so the memory-op check
// below only fires for an instruction genuinely delivered into MEM this
// cycle, rather than a stale IR left over from a consumed instruction a
// few cycles back (the reference simulator never clears MEM.IR between
// uses and gates this check on the opcode alone; doing the same here would
// let an idle cycle misread a long-departed load/store and restart a
// phantom stall).
func (s *Simulator) doMemory() {
	mem := s.memLatch
	wasAvailable := mem.IsAvailable

	if wasAvailable && mem.IR.IsBranch() && s.isBranchOngoing {
		s.isBranchCalculated = true
	}

	if wasAvailable && s.lat.IsMemoryOp(mem.IR.Opcode) && !s.isMemoryOngoing {
		s.memDelay = uint32(s.lat.Config().MemoryLatency) + 1
		s.isMemoryOngoing = true
		mem.IsAvailable = false
		s.poolAvailable = false
		s.idLatch.IsAvailable = false
		s.ifLatch.IsAvailable = false
	}

	if s.isMemoryOngoing {
		if s.memDelay <= 1 {
			s.isMemoryOngoing = false
			mem.IsAvailable = true
			s.poolAvailable = true
			s.idLatch.IsAvailable = true
			s.ifLatch.IsAvailable = true
		} else {
			s.stallCount++
			s.memDelay--
		}
	}

	if mem.IsAvailable {
		s.wbLatch.IR = mem.IR
		s.wbLatch.IsAvailable = true
	}

	if mem.IsAvailable && !mem.IR.IsTerminator() {
		s.wbLatch.Rd = mem.Rd

		if mem.IR.IsIntALU() || mem.IR.IsFPALU() {
			s.wbLatch.ALUOutput = mem.ALUOutput
		} else {
			s.wbLatch.ALUOutput = isa.Undefined
		}

		switch mem.IR.Opcode {
		case isa.LW, isa.LWS:
			s.wbLatch.LMD = s.Mem.ReadWord(mem.ALUOutput)
		default:
			s.wbLatch.LMD = isa.Undefined
		}

		switch mem.IR.Opcode {
		case isa.SW, isa.SWS:
			s.Mem.WriteWord(mem.ALUOutput, mem.B)
		}

		mem.IsAvailable = false
		s.wbLatch.IsAvailable = true
	}

	if s.wbLatch.IR.Opcode == isa.EOP {
		s.wbLatch.LMD = isa.Undefined
		s.wbLatch.ALUOutput = isa.Undefined
	}
}

// doWriteback is WB. It commits the pending result to the register file
// named by the instruction's destination, then clears that register's
// destination flag so a younger instruction's RAW/WAW check can proceed.
func (s *Simulator) doWriteback() {
	wb := s.wbLatch
	if !wb.IsAvailable {
		return
	}

	if !wb.IR.IsTerminator() {
		s.instructionCount++
		dk := destKind(wb.IR.Opcode)
		if dk != noReg {
			rf := s.regFileFor(dk == fpReg)
			if rf.InBounds(wb.Rd) {
				switch wb.IR.Opcode {
				case isa.LW, isa.LWS:
					rf.Write(wb.Rd, wb.LMD)
				default:
					rf.Write(wb.Rd, wb.ALUOutput)
				}
				rf.ClearDestination(wb.Rd)
			}
		}
	}

	wb.IsAvailable = false
}

// computeALU mirrors the reference simulator's alu(): integer ops on a/b,
// address arithmetic for loads/stores (a already holds the base-register
// value after dispatch's SW/SWS swap), and npc+imm for every branch/jump
// (computed from NPC, not PC, matching the original). FP arithmetic
// reinterprets the 32-bit operands as IEEE-754 singles.
func computeALU(op isa.Opcode, a, b, imm, npc uint32) uint32 {
	switch op {
	case isa.ADD:
		return a + b
	case isa.SUB:
		return a - b
	case isa.XOR:
		return a ^ b
	case isa.ADDI:
		return a + imm
	case isa.SUBI:
		return a - imm
	case isa.ADDS:
		return math.Float32bits(math.Float32frombits(a) + math.Float32frombits(b))
	case isa.SUBS:
		return math.Float32bits(math.Float32frombits(a) - math.Float32frombits(b))
	case isa.MULTS:
		return math.Float32bits(math.Float32frombits(a) * math.Float32frombits(b))
	case isa.DIVS:
		return math.Float32bits(math.Float32frombits(a) / math.Float32frombits(b))
	case isa.LW, isa.SW, isa.LWS, isa.SWS:
		return a + imm
	case isa.BEQZ, isa.BNEZ, isa.BLTZ, isa.BGTZ, isa.BLEZ, isa.BGEZ, isa.JUMP:
		return npc + imm
	default:
		return isa.Undefined
	}
}

// computeCond mirrors alu_compute_cond(): every branch tests the signed
// value of its single source register; JUMP is always taken.
func computeCond(op isa.Opcode, a uint32) uint32 {
	v := int32(a)
	switch op {
	case isa.BEQZ:
		return boolToCond(v == 0)
	case isa.BNEZ:
		return boolToCond(v != 0)
	case isa.BLTZ:
		return boolToCond(v < 0)
	case isa.BGTZ:
		return boolToCond(v > 0)
	case isa.BLEZ:
		return boolToCond(v <= 0)
	case isa.BGEZ:
		return boolToCond(v >= 0)
	case isa.JUMP:
		return 1
	default:
		return 0
	}
}

func boolToCond(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
