package latch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/timing/latch"
)

var _ = Describe("Register", func() {
	It("starts cleared", func() {
		r := latch.NewRegister()
		Expect(r.IsAvailable).To(BeFalse())
		Expect(r.PC).To(Equal(isa.Undefined))
		Expect(r.IR.Opcode).To(Equal(isa.NOP))
	})

	It("clears a populated latch back to a bubble", func() {
		r := latch.NewRegister()
		r.IsAvailable = true
		r.PC = 4
		r.IR = isa.Instruction{Opcode: isa.ADD, Dest: 1, Src1: 2, Src2: 3}
		r.A = 10
		r.B = 20
		r.ALUOutput = 30

		r.Clear()

		Expect(r.IsAvailable).To(BeFalse())
		Expect(r.PC).To(Equal(isa.Undefined))
		Expect(r.A).To(Equal(isa.Undefined))
		Expect(r.B).To(Equal(isa.Undefined))
		Expect(r.ALUOutput).To(Equal(isa.Undefined))
		Expect(r.IR.Opcode).To(Equal(isa.NOP))
	})
})
