// Package machine provides the architectural state the pipeline operates
// on: the integer and floating-point register files and the byte-addressed
// data memory. Register file and memory lifetimes span the whole
// simulation; the pipeline's inter-stage latches (see timing/latch) are
// rewritten every cycle.
package machine

import "github.com/sarchlab/mips5sim/isa"

// RegSlot is one register: its value, and whether some in-flight
// instruction currently has it as a destination. IsDestination is the only
// state the hazard unit consults — it says nothing about the value itself.
type RegSlot struct {
	Value         uint32
	IsDestination bool
}

// RegFile is a flat array of general-purpose registers. The integer
// variant hard-wires register 0 to read as zero and forbids writes to it
// (ZeroWired); the floating-point file never does.
type RegFile struct {
	Slots     []RegSlot
	ZeroWired bool
}

// NewRegFile creates a RegFile with the given number of registers, every
// slot initialized to Undefined. When zeroWired is true, register 0 reads
// as 0 and can never become a destination (spec §3 Invariants).
func NewRegFile(size int, zeroWired bool) *RegFile {
	r := &RegFile{
		Slots:     make([]RegSlot, size),
		ZeroWired: zeroWired,
	}
	r.Reset()
	return r
}

// Reset restores every register to Undefined (or 0 for the hard-wired zero
// register) and clears every destination flag.
func (r *RegFile) Reset() {
	for i := range r.Slots {
		r.Slots[i] = RegSlot{Value: isa.Undefined}
	}
	if r.ZeroWired && len(r.Slots) > 0 {
		r.Slots[0] = RegSlot{Value: 0}
	}
}

// Read returns the register's value. An out-of-range index returns
// Undefined (spec §7, "Bounds": out-of-range register reads are treated as
// Undefined, not an error).
func (r *RegFile) Read(reg uint32) uint32 {
	if reg >= uint32(len(r.Slots)) {
		return isa.Undefined
	}
	return r.Slots[reg].Value
}

// Write stores value in the register. Writes to an out-of-range index, or
// to the hard-wired zero register, are silently suppressed.
func (r *RegFile) Write(reg uint32, value uint32) {
	if reg >= uint32(len(r.Slots)) {
		return
	}
	if r.ZeroWired && reg == 0 {
		return
	}
	r.Slots[reg].Value = value
}

// IsDestination reports whether reg currently has an in-flight writer. An
// out-of-range index is never a destination.
func (r *RegFile) IsDestination(reg uint32) bool {
	if reg >= uint32(len(r.Slots)) {
		return false
	}
	return r.Slots[reg].IsDestination
}

// MarkDestination flags reg as having an in-flight writer. It is a no-op
// for an out-of-range index or the hard-wired zero register — register 0
// can never be a destination (spec §3 Invariants).
func (r *RegFile) MarkDestination(reg uint32) {
	if reg >= uint32(len(r.Slots)) {
		return
	}
	if r.ZeroWired && reg == 0 {
		return
	}
	r.Slots[reg].IsDestination = true
}

// ClearDestination unflags reg once its writer has completed writeback.
func (r *RegFile) ClearDestination(reg uint32) {
	if reg >= uint32(len(r.Slots)) {
		return
	}
	r.Slots[reg].IsDestination = false
}

// InBounds reports whether reg names a real slot in this file.
func (r *RegFile) InBounds(reg uint32) bool {
	return reg < uint32(len(r.Slots))
}
