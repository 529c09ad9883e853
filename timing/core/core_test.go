package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/machine"
	"github.com/sarchlab/mips5sim/timing/core"
	"github.com/sarchlab/mips5sim/timing/latency"
)

var _ = Describe("Core", func() {
	var (
		mem *machine.Memory
		lat *latency.Table
		c   *core.Core
	)

	BeforeEach(func() {
		mem = machine.NewMemory(512, 2)
		lat = latency.NewTable()
		c = core.NewCore(32, mem, lat, false)
	})

	It("loads and runs a program to completion", func() {
		c.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 4},
			{Opcode: isa.ADDI, Dest: 2, Src1: 0, Immediate: 6},
			{Opcode: isa.ADD, Dest: 3, Src1: 1, Src2: 2},
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		c.Run(0)

		Expect(c.Halted()).To(BeTrue())
		Expect(c.Pipeline.GetIntRegister(3)).To(Equal(uint32(10)))
	})

	It("ticks one cycle at a time", func() {
		c.LoadProgram([]isa.Instruction{
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)

		Expect(c.Halted()).To(BeFalse())
		c.Tick()
		c.Tick()
		c.Tick()
		c.Tick()
		Expect(c.Halted()).To(BeTrue())
	})

	It("reports instruction and stall counts via Stats", func() {
		c.LoadProgram([]isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 1},
			isa.NewUndefinedInstruction(isa.EOP),
		}, 0)
		c.Run(0)

		Expect(c.Stats().Instructions).To(Equal(uint64(1)))
	})

	It("resets simulator state so a reloaded program runs again", func() {
		prog := []isa.Instruction{
			{Opcode: isa.ADDI, Dest: 1, Src1: 0, Immediate: 3},
			isa.NewUndefinedInstruction(isa.EOP),
		}
		c.LoadProgram(prog, 0)
		c.Run(0)
		Expect(c.Pipeline.GetIntRegister(1)).To(Equal(uint32(3)))

		c.Reset()
		Expect(c.Halted()).To(BeFalse())

		c.LoadProgram(prog, 0)
		c.Run(0)
		Expect(c.Pipeline.GetIntRegister(1)).To(Equal(uint32(3)))
	})
})
