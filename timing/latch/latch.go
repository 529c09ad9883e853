// Package latch provides the single inter-stage latch shape shared by every
// stage boundary in the pipeline (IF/ID, ID/EX, EX/MEM, MEM/WB, and each
// functional unit's private EX latch). Rather than a separate struct per
// stage boundary, this model uses one uniform Register, matching the reference
// simulator's single ID_EX/EX_MEM/MEM_WB struct reused positionally across
// every stage.
package latch

import "github.com/sarchlab/mips5sim/isa"

// Register is the latch that carries one in-flight instruction's state from
// one pipeline stage to the next. Every stage boundary uses the same shape;
// a stage simply ignores the fields it does not need.
type Register struct {
	PC  uint32
	NPC uint32
	IR  isa.Instruction

	A   uint32 // first operand read in ID (or base-register value)
	B   uint32 // second operand read in ID (or store value)
	Imm uint32 // sign/zero-extended immediate

	Rd uint32 // destination register selected in ID

	ALUOutput uint32 // result computed in EX
	Cond      uint32 // branch condition outcome computed in EX

	LMD uint32 // load memory data, filled in MEM

	// IsAvailable reports whether this latch currently holds a live
	// in-flight instruction. A cleared latch (IsAvailable == false) behaves
	// as a bubble: its downstream stage does nothing.
	IsAvailable bool
}

// Clear turns the latch into a bubble: every field returns to its sentinel
// value, IR becomes a NOP, and IsAvailable drops to false.
func (r *Register) Clear() {
	r.PC = isa.Undefined
	r.NPC = isa.Undefined
	r.IR = isa.NewUndefinedInstruction(isa.NOP)
	r.A = isa.Undefined
	r.B = isa.Undefined
	r.Imm = isa.Undefined
	r.Rd = isa.Undefined
	r.ALUOutput = isa.Undefined
	r.Cond = isa.Undefined
	r.LMD = isa.Undefined
	r.IsAvailable = false
}

// NewRegister returns a freshly cleared latch.
func NewRegister() *Register {
	r := &Register{}
	r.Clear()
	return r
}
