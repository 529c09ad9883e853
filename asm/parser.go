// Package asm assembles the simulator's plain-text assembly programs into
// isa.Instruction slices, mirroring sim_pipe::load_program's two-pass
// tokenizer: a first pass that tokenizes each line and records label
// positions, and a second pass that resolves every branch/jump label into a
// PC-relative word offset.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/mips5sim/isa"
)

// Program is an assembled program ready to load into a Simulator: the
// decoded instruction stream and the base address fetch should start from.
type Program struct {
	Instructions []isa.Instruction
	BaseAddress  uint32
}

// Parse reads an assembly source from r and assembles it into a Program,
// fetching from baseAddress. Each non-blank line is either a bare
// instruction or a "label: instruction" pair; labels may only appear as a
// prefix on the line defining a branch/jump target, never as a standalone
// line, matching the reference assembler's format.
//
// Parse only returns an error for an unreadable source (scanner I/O
// failure). An unknown mnemonic, a malformed operand list, or a branch to
// an undefined label is a Parse error kind (matching the reference
// assembler's "ERROR: invalid opcode" behavior, which logs and keeps
// going rather than aborting the load): it is reported to diag and the
// offending line is skipped, leaving the rest of the program intact. diag
// defaults to os.Stderr if nil.
func Parse(r io.Reader, baseAddress uint32, diag io.Writer) (*Program, error) {
	if diag == nil {
		diag = os.Stderr
	}

	var instrs []isa.Instruction
	labels := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		tok := fields[0]
		if _, ok := isa.MnemonicToOpcode[tok]; !ok {
			// not an opcode: must be a label prefixing the real opcode
			label := strings.TrimSuffix(tok, ":")
			labels[label] = len(instrs)
			fields = fields[1:]
			if len(fields) == 0 {
				fmt.Fprintf(diag, "asm: line %d: label %q with no instruction, skipped\n", lineNo, label)
				continue
			}
			tok = fields[0]
			if _, ok := isa.MnemonicToOpcode[tok]; !ok {
				fmt.Fprintf(diag, "asm: line %d: invalid opcode %q, skipped\n", lineNo, tok)
				continue
			}
		}

		inst, err := parseInstruction(isa.MnemonicToOpcode[tok], fields[1:])
		if err != nil {
			fmt.Fprintf(diag, "asm: line %d: %v, skipped\n", lineNo, err)
			continue
		}
		instrs = append(instrs, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("asm: %w", err)
	}

	resolveLabels(instrs, labels, diag)

	return &Program{Instructions: instrs, BaseAddress: baseAddress}, nil
}

// parseInstruction decodes one opcode's operand list. Register tokens carry
// an "R" (or "F", for the FP variant's mnemonics) prefix that is stripped
// before the numeric index is parsed; immediates accept decimal or
// 0x-prefixed hex, matching strtoul(..., NULL, 0)'s base auto-detection.
func parseInstruction(op isa.Opcode, args []string) (isa.Instruction, error) {
	inst := isa.NewUndefinedInstruction(op)

	switch op {
	case isa.ADD, isa.SUB, isa.XOR, isa.ADDS, isa.SUBS, isa.MULTS, isa.DIVS:
		if len(args) != 3 {
			return inst, fmt.Errorf("%s: want 3 operands, got %d", op, len(args))
		}
		dest, err := parseRegister(args[0])
		if err != nil {
			return inst, err
		}
		src1, err := parseRegister(args[1])
		if err != nil {
			return inst, err
		}
		src2, err := parseRegister(args[2])
		if err != nil {
			return inst, err
		}
		inst.Dest, inst.Src1, inst.Src2 = dest, src1, src2

	case isa.ADDI, isa.SUBI:
		if len(args) != 3 {
			return inst, fmt.Errorf("%s: want 3 operands, got %d", op, len(args))
		}
		dest, err := parseRegister(args[0])
		if err != nil {
			return inst, err
		}
		src1, err := parseRegister(args[1])
		if err != nil {
			return inst, err
		}
		imm, err := parseImmediate(args[2])
		if err != nil {
			return inst, err
		}
		inst.Dest, inst.Src1, inst.Immediate = dest, src1, imm

	case isa.LW, isa.LWS:
		if len(args) != 2 {
			return inst, fmt.Errorf("%s: want 2 operands, got %d", op, len(args))
		}
		dest, err := parseRegister(args[0])
		if err != nil {
			return inst, err
		}
		imm, base, err := parseOffsetBase(args[1])
		if err != nil {
			return inst, err
		}
		inst.Dest, inst.Immediate, inst.Src1 = dest, imm, base

	case isa.SW, isa.SWS:
		if len(args) != 2 {
			return inst, fmt.Errorf("%s: want 2 operands, got %d", op, len(args))
		}
		value, err := parseRegister(args[0])
		if err != nil {
			return inst, err
		}
		imm, base, err := parseOffsetBase(args[1])
		if err != nil {
			return inst, err
		}
		inst.Src1, inst.Immediate, inst.Src2 = value, imm, base

	case isa.BEQZ, isa.BNEZ, isa.BLTZ, isa.BGTZ, isa.BLEZ, isa.BGEZ:
		if len(args) != 2 {
			return inst, fmt.Errorf("%s: want 2 operands, got %d", op, len(args))
		}
		src1, err := parseRegister(args[0])
		if err != nil {
			return inst, err
		}
		inst.Src1, inst.Label = src1, args[1]

	case isa.JUMP:
		if len(args) != 1 {
			return inst, fmt.Errorf("%s: want 1 operand, got %d", op, len(args))
		}
		inst.Label = args[0]

	case isa.EOP, isa.NOP:
		// no operands

	default:
		return inst, fmt.Errorf("unhandled opcode %s", op)
	}

	return inst, nil
}

// parseRegister strips a leading register-file letter (R or F) and parses
// the remaining digits as a register index.
func parseRegister(tok string) (uint32, error) {
	trimmed := strings.TrimLeft(tok, "RF")
	n, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid register %q", tok)
	}
	return uint32(n), nil
}

// parseImmediate parses a signed decimal or 0x-prefixed hex literal into its
// unsigned bit pattern.
func parseImmediate(tok string) (uint32, error) {
	n, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q", tok)
	}
	return uint32(n), nil
}

// parseOffsetBase splits a "imm(Rn)" memory operand into its offset and
// base-register index.
func parseOffsetBase(tok string) (imm, base uint32, err error) {
	open := strings.IndexByte(tok, '(')
	shut := strings.IndexByte(tok, ')')
	if open < 0 || shut < open {
		return 0, 0, fmt.Errorf("invalid memory operand %q", tok)
	}
	imm, err = parseImmediate(tok[:open])
	if err != nil {
		return 0, 0, err
	}
	base, err = parseRegister(tok[open+1 : shut])
	if err != nil {
		return 0, 0, err
	}
	return imm, base, nil
}

// resolveLabels turns every branch/jump's Label into a PC-relative word
// offset, matching load_program's second pass:
// (labels[label] - i - 1) << 2. Resolution stops at the first EOP, exactly
// as the reference assembler does, so labels beyond it never affect
// addressing. A branch to an undefined label is a Parse error kind: it is
// reported to diag and left with its Immediate at isa.Undefined rather
// than aborting resolution of the rest of the program.
func resolveLabels(instrs []isa.Instruction, labels map[string]int, diag io.Writer) {
	for i := range instrs {
		if instrs[i].Opcode == isa.EOP {
			break
		}
		if !instrs[i].IsBranch() {
			continue
		}
		target, ok := labels[instrs[i].Label]
		if !ok {
			fmt.Fprintf(diag, "asm: instruction %d: undefined label %q\n", i, instrs[i].Label)
			continue
		}
		instrs[i].Immediate = uint32((target - i - 1) << 2)
	}
}
