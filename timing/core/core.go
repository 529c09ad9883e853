// Package core provides a thin, convenience wrapper around timing/pipeline
// for callers (the CLI, tests) that just want to load a program and run it
// without touching the Simulator's lower-level stage/latch API directly.
package core

import (
	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/machine"
	"github.com/sarchlab/mips5sim/timing/latency"
	"github.com/sarchlab/mips5sim/timing/pipeline"
)

// Core wraps a pipeline.Simulator with the data memory and timing table it
// was built from, so a caller can reconfigure and rerun without re-wiring
// those pieces by hand.
type Core struct {
	Pipeline *pipeline.Simulator
	Memory   *machine.Memory
	Latency  *latency.Table
}

// NewCore builds a Core. regSize sizes the integer and floating-point
// register files identically; fp selects the floating-point variant's
// functional-unit pool.
func NewCore(regSize int, mem *machine.Memory, lat *latency.Table, fp bool) *Core {
	return &Core{
		Pipeline: pipeline.NewSimulator(regSize, mem, lat, fp),
		Memory:   mem,
		Latency:  lat,
	}
}

// LoadProgram installs instrs as program memory, fetching from baseAddress.
func (c *Core) LoadProgram(instrs []isa.Instruction, baseAddress uint32) {
	c.Pipeline.LoadProgram(instrs, baseAddress)
}

// Tick advances the simulation by one cycle.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Halted reports whether EOP has reached writeback.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Run ticks the pipeline; cycles == 0 means run to completion.
func (c *Core) Run(cycles uint32) {
	c.Pipeline.Run(cycles)
}

// Stats returns the simulation's instruction/stall/cycle counters.
func (c *Core) Stats() pipeline.Stats {
	return c.Pipeline.Stats()
}

// Reset clears all simulator state back to its post-construction values.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}
