package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/machine"
	"github.com/sarchlab/mips5sim/timing/latency"
	"github.com/sarchlab/mips5sim/timing/pipeline"
)

var _ = Describe("Simulator stage handlers", func() {
	var (
		mem *machine.Memory
		lat *latency.Table
		sim *pipeline.Simulator
	)

	BeforeEach(func() {
		mem = machine.NewMemory(1024, 2)
		lat = latency.NewTable()
		sim = pipeline.NewSimulator(32, mem, lat, false)
	})

	It("executes a straight-line program and writes back the result", func() {
		sim.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 5},
			{Opcode: isa.ADDI, Dest: 2, Src1: 0, Immediate: 7},
			{Opcode: isa.ADD, Dest: 3, Src1: 1, Src2: 2},
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		sim.Run(0)

		Expect(sim.GetIntRegister(1)).To(Equal(uint32(5)))
		Expect(sim.GetIntRegister(2)).To(Equal(uint32(7)))
		Expect(sim.GetIntRegister(3)).To(Equal(uint32(12)))
		Expect(sim.Halted()).To(BeTrue())
	})

	It("stalls on a RAW hazard rather than forwarding", func() {
		sim.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 9},
			{Opcode: isa.ADD, Dest: 2, Src1: 1, Src2: 1}, // depends on R1 immediately
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		sim.Run(0)

		Expect(sim.GetIntRegister(2)).To(Equal(uint32(18)))
		Expect(sim.Stats().Stalls).To(BeNumerically(">", 0))
	})

	It("loads a value from data memory written before the run", func() {
		sim.WriteMemory(0x100, 42)
		sim.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 0x100},
			{Opcode: isa.LW, Dest: 2, Src1: 1, Immediate: 0},
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		sim.Run(0)

		Expect(sim.GetIntRegister(2)).To(Equal(uint32(42)))
	})

	It("stores a register value to data memory", func() {
		sim.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 0x200},
			{Opcode: isa.ADDI, Dest: 2, Src1: 0, Immediate: 99},
			{Opcode: isa.SW, Src1: 2, Src2: 1, Immediate: 0},
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		sim.Run(0)

		Expect(mem.ReadWord(0x200)).To(Equal(uint32(99)))
	})

	It("takes a backward branch and re-executes the loop body", func() {
		// R1 counts down from 3 to 0, R2 accumulates one per iteration.
		sim.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 3},
			{Opcode: isa.ADDI, Dest: 2, Src1: 0, Immediate: 0},
			{Opcode: isa.ADDI, Dest: 2, Src1: 2, Immediate: 1},          // loop:
			{Opcode: isa.SUBI, Dest: 1, Src1: 1, Immediate: 1},
			{Opcode: isa.BNEZ, Src1: 1, Immediate: uint32(int32(-12))}, // back to loop (index 2)
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		sim.Run(0)

		Expect(sim.GetIntRegister(1)).To(Equal(uint32(0)))
		Expect(sim.GetIntRegister(2)).To(Equal(uint32(3)))
	})

	It("does not take a branch whose condition is false", func() {
		sim.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 0},
			{Opcode: isa.BNEZ, Src1: 1, Immediate: uint32(int32(8))},
			{Opcode: isa.ADDI, Dest: 2, Src1: 0, Immediate: 1},
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		sim.Run(0)

		Expect(sim.GetIntRegister(2)).To(Equal(uint32(1)))
	})

	It("runs for an exact cycle count even past halt", func() {
		sim.LoadProgram([]isa.Instruction{
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		sim.Run(50)

		Expect(sim.Stats().CyclesElapsed).To(Equal(uint64(50)))
	})

	It("never lets an FP result be lost to a premature EOP", func() {
		fpSim := pipeline.NewSimulator(32, machine.NewMemory(1024, 2), lat, true)
		fpSim.SetFPRegister(1, 2)
		fpSim.SetFPRegister(2, 3)
		fpSim.LoadProgram([]isa.Instruction{
			{Opcode: isa.MULTS, Dest: 3, Src1: 1, Src2: 2},
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		fpSim.Run(0)

		Expect(fpSim.GetFPRegister(3)).To(Equal(float32(6)))
	})

	It("resets registers and control state so a reloaded program runs again", func() {
		prog := []isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 5},
			isa.NewUndefinedInstruction(isa.EOP),
		}
		sim.LoadProgram(prog, 0)
		sim.Run(0)
		Expect(sim.GetIntRegister(1)).To(Equal(uint32(5)))

		sim.Reset()

		Expect(sim.GetIntRegister(1)).To(Equal(isa.Undefined))
		Expect(sim.Halted()).To(BeFalse())

		sim.LoadProgram(prog, 0)
		sim.Run(0)
		Expect(sim.GetIntRegister(1)).To(Equal(uint32(5)))
	})
})
