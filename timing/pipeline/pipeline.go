package pipeline

import (
	"fmt"
	"io"
	"math"

	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/machine"
	"github.com/sarchlab/mips5sim/timing/funcunit"
	"github.com/sarchlab/mips5sim/timing/latch"
	"github.com/sarchlab/mips5sim/timing/latency"
)

// Stage names one of the five pipeline stages, used by GetStageRegister.
type Stage int

const (
	StageIF Stage = iota
	StageID
	StageEX
	StageMEM
	StageWB
)

func (s Stage) String() string {
	switch s {
	case StageIF:
		return "IF"
	case StageID:
		return "ID"
	case StageEX:
		return "EX"
	case StageMEM:
		return "MEM"
	case StageWB:
		return "WB"
	default:
		return "?"
	}
}

// Stats reports the simulation's progress. For the integer variant, which
// always drains in lockstep with dispatch, ClockCycles follows the reference
// simulator's closed-form get_clock_cycles(): inst+stalls+4 (the "+4"
// amortizes the 4-stage pipeline fill/drain latency beyond the first and
// last instruction), and IPC is inst/ClockCycles. The FP variant's EOP can
// sit in ID for extra cycles waiting on a busy Adder/Multiplier/Divider to
// drain (doDecode's AllIdle gate) — cycles that elapse without incrementing
// either instructionCount or stallCount — so the closed form undercounts its
// true elapsed-cycle total; ClockCycles for the FP variant is instead
// cyclesElapsed, the actual number of Tick calls made.
type Stats struct {
	Instructions  uint64
	Stalls        uint64
	CyclesElapsed uint64
	ClockCycles   uint64
	IPC           float64
}

// Simulator is the cycle-accurate driver for the 5-stage, in-order,
// no-forwarding pipeline. One Simulator instance owns all architectural and
// microarchitectural state: the register files, data memory, the loaded
// program, the four single-slot latches (IF, ID, MEM, WB — the EX "latch"
// is the functional-unit pool, since the FP variant's EX stage takes more
// than one cycle), and the hazard/control bookkeeping the reference
// simulator keeps as static locals inside its stage handlers.
type Simulator struct {
	IntRegs *machine.RegFile
	FPRegs  *machine.RegFile
	Mem     *machine.Memory

	Program     []isa.Instruction
	baseAddress uint32

	pool   *funcunit.Pool
	lat    *latency.Table
	hazard *HazardUnit
	fp     bool

	ifLatch  *latch.Register
	idLatch  *latch.Register
	memLatch *latch.Register
	wbLatch  *latch.Register

	poolAvailable bool

	isMemoryOngoing bool
	memDelay        uint32

	isBranchOngoing    bool
	isBranchCalculated bool
	controlDelay       uint32

	instructionCount uint64
	stallCount       uint64
	cyclesElapsed    uint64
}

// NewSimulator builds a Simulator. fp selects the floating-point variant's
// heterogeneous Adder/Multiplier/Divider pool (in addition to the Integer
// unit every variant has); regSize sizes both register files identically.
func NewSimulator(regSize int, mem *machine.Memory, lat *latency.Table, fp bool) *Simulator {
	s := &Simulator{
		IntRegs: machine.NewRegFile(regSize, true),
		FPRegs:  machine.NewRegFile(regSize, false),
		Mem:     mem,
		lat:     lat,
		hazard:  NewHazardUnit(),
		fp:      fp,

		ifLatch:  latch.NewRegister(),
		idLatch:  latch.NewRegister(),
		memLatch: latch.NewRegister(),
		wbLatch:  latch.NewRegister(),
	}
	s.pool = lat.BuildPool(fp)
	s.Reset()
	return s
}

// IsFPVariant reports whether this simulator was built with the FP unit
// pool.
func (s *Simulator) IsFPVariant() bool {
	return s.fp
}

// LoadProgram installs instrs as the program memory, starting fetch at
// baseAddress (mirroring sim_pipe::load_program setting
// sim_pipe_pipeline_reg[IF].PC = instr_base_address once loading finishes).
func (s *Simulator) LoadProgram(instrs []isa.Instruction, baseAddress uint32) {
	s.Program = instrs
	s.baseAddress = baseAddress
	s.ifLatch.PC = baseAddress
}

// Reset restores every register, latch, functional unit, and control flag
// to its initial state, mirroring sim_pipe::reset(). It keeps the loaded
// program but clears PC to Undefined along with every other latch field;
// call LoadProgram again to set PC and restart execution from the
// beginning.
func (s *Simulator) Reset() {
	s.IntRegs.Reset()
	s.FPRegs.Reset()

	s.ifLatch.Clear()
	s.idLatch.Clear()
	s.memLatch.Clear()
	s.wbLatch.Clear()
	s.ifLatch.IsAvailable = true

	for _, u := range s.pool.Units {
		u.Release()
	}
	s.poolAvailable = true

	s.isMemoryOngoing = false
	s.memDelay = 0
	s.isBranchOngoing = false
	s.isBranchCalculated = false
	s.controlDelay = 0

	s.instructionCount = 0
	s.stallCount = 0
	s.cyclesElapsed = 0
}

// Tick advances the pipeline by one cycle. Stages run WB, MEM, EX, ID, IF —
// the reverse of program order — so that each stage sees the state its
// upstream neighbor left at the end of the previous cycle, exactly as
// sim_pipe::run()'s stage state machine does.
func (s *Simulator) Tick() {
	s.cyclesElapsed++
	s.doWriteback()
	s.doMemory()
	s.doExecute()
	s.doDecode()
	s.doFetch()
}

// Halted reports whether EOP has reached WB.
func (s *Simulator) Halted() bool {
	return s.wbLatch.IR.Opcode == isa.EOP
}

// Run ticks the pipeline. If cycles is nonzero it runs exactly that many
// cycles regardless of whether the program has already halted (matching
// sim_pipe::run()'s fixed-cycle mode); if cycles is zero it runs until EOP
// reaches WB.
func (s *Simulator) Run(cycles uint32) {
	var i uint32
	for i < cycles || (cycles == 0 && !s.Halted()) {
		s.Tick()
		i++
	}
}

// Stats returns the simulation's instruction/stall/cycle counters.
func (s *Simulator) Stats() Stats {
	cc := s.instructionCount + s.stallCount + 4
	if s.fp {
		cc = s.cyclesElapsed
	}
	var ipc float64
	if cc > 0 {
		ipc = float64(s.instructionCount) / float64(cc)
	}
	return Stats{
		Instructions:  s.instructionCount,
		Stalls:        s.stallCount,
		CyclesElapsed: s.cyclesElapsed,
		ClockCycles:   cc,
		IPC:           ipc,
	}
}

// GetIntRegister reads integer register reg.
func (s *Simulator) GetIntRegister(reg uint32) uint32 {
	return s.IntRegs.Read(reg)
}

// GetFPRegister reads floating-point register reg, reinterpreted as a
// float32.
func (s *Simulator) GetFPRegister(reg uint32) float32 {
	return math.Float32frombits(s.FPRegs.Read(reg))
}

// SetIntRegister writes integer register reg. Intended for test setup and
// the CLI's initial-state hooks, not for use mid-simulation.
func (s *Simulator) SetIntRegister(reg, value uint32) {
	s.IntRegs.Write(reg, value)
}

// SetFPRegister writes floating-point register reg from a float32 value.
func (s *Simulator) SetFPRegister(reg uint32, value float32) {
	s.FPRegs.Write(reg, math.Float32bits(value))
}

// WriteMemory writes a little-endian word to data memory. Intended for
// test setup.
func (s *Simulator) WriteMemory(addr, value uint32) {
	s.Mem.WriteWord(addr, value)
}

// GetStageRegister returns a snapshot of the named stage's latch contents.
// For StageEX, since the EX "stage" is really a pool of functional units,
// it returns the lowest-ID occupied unit's private latch, or a cleared
// latch if the pool is idle — a documented, deterministic resolution of
// "which unit" when more than one is in flight.
func (s *Simulator) GetStageRegister(stage Stage) latch.Register {
	switch stage {
	case StageIF:
		return *s.ifLatch
	case StageID:
		return *s.idLatch
	case StageEX:
		for _, u := range s.pool.Units {
			if u.Occupied {
				return u.Latch
			}
		}
		return *latch.NewRegister()
	case StageMEM:
		return *s.memLatch
	case StageWB:
		return *s.wbLatch
	default:
		return latch.Register{}
	}
}

// DumpRegisters writes a human-readable snapshot of every pipeline latch
// and every defined register, in the style of the reference simulator's
// print_registers().
func (s *Simulator) DumpRegisters(w io.Writer) {
	fmt.Fprintln(w, "Special purpose registers:")
	for stage := StageIF; stage <= StageWB; stage++ {
		fmt.Fprintf(w, "Stage: %s\n", stage)
		reg := s.GetStageRegister(stage)
		dumpField(w, "PC", reg.PC)
		dumpField(w, "NPC", reg.NPC)
		dumpField(w, "A", reg.A)
		dumpField(w, "B", reg.B)
		dumpField(w, "IMM", reg.Imm)
		dumpField(w, "ALU_OUTPUT", reg.ALUOutput)
		dumpField(w, "LMD", reg.LMD)
	}

	fmt.Fprintln(w, "General purpose registers:")
	for i := range s.IntRegs.Slots {
		if v := s.IntRegs.Read(uint32(i)); v != isa.Undefined {
			fmt.Fprintf(w, "R%d = %d / 0x%08x\n", i, int32(v), v)
		}
	}
	if s.fp {
		for i := range s.FPRegs.Slots {
			if v := s.FPRegs.Read(uint32(i)); v != isa.Undefined {
				fmt.Fprintf(w, "F%d = %g / 0x%08x\n", i, math.Float32frombits(v), v)
			}
		}
	}
}

func dumpField(w io.Writer, name string, v uint32) {
	if v != isa.Undefined {
		fmt.Fprintf(w, "%s = %d / 0x%08x\n", name, int32(v), v)
	}
}

// DumpMemory writes a hex dump of data memory between [start, end), four
// bytes per line, in the style of the reference simulator's print_memory().
func (s *Simulator) DumpMemory(w io.Writer, start, end uint32) {
	fmt.Fprintf(w, "data_memory[0x%08x:0x%08x]\n", start, end)
	for addr := start; addr < end; addr++ {
		if addr%4 == 0 {
			fmt.Fprintf(w, "0x%08x: ", addr)
		}
		fmt.Fprintf(w, "%02x ", s.Mem.ReadByte(addr))
		if addr%4 == 3 {
			fmt.Fprintln(w)
		}
	}
}
