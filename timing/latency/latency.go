// Package latency provides instruction timing lookups for cycle-accurate
// simulation, configurable via TimingConfig.
package latency

import (
	"github.com/sarchlab/mips5sim/isa"
	"github.com/sarchlab/mips5sim/timing/funcunit"
)

// Table provides instruction latency lookups backed by a TimingConfig.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with the default timing values.
func NewTable() *Table {
	return &Table{config: DefaultTimingConfig()}
}

// NewTableWithConfig creates a new latency table with a custom configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{config: config}
}

// GetLatency returns the functional-unit execution latency, in cycles, for
// the given opcode.
func (t *Table) GetLatency(op isa.Opcode) uint64 {
	switch funcunit.TypeForOpcode(op) {
	case funcunit.Adder:
		return t.config.AdderLatency
	case funcunit.Multiplier:
		return t.config.MultiplierLatency
	case funcunit.Divider:
		return t.config.DividerLatency
	default:
		return t.config.ALULatency
	}
}

// IsMemoryOp reports whether the opcode accesses data memory.
func (t *Table) IsMemoryOp(op isa.Opcode) bool {
	return isa.Instruction{Opcode: op}.IsMemory()
}

// IsLoadOp reports whether the opcode is a load.
func (t *Table) IsLoadOp(op isa.Opcode) bool {
	return op == isa.LW || op == isa.LWS
}

// IsStoreOp reports whether the opcode is a store.
func (t *Table) IsStoreOp(op isa.Opcode) bool {
	return op == isa.SW || op == isa.SWS
}

// IsBranchOp reports whether the opcode is a branch or jump.
func (t *Table) IsBranchOp(op isa.Opcode) bool {
	return isa.Instruction{Opcode: op}.IsBranch()
}

// Config returns the underlying timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}

// BuildPool constructs a functional-unit pool for the given variant,
// seeding each type with the configured latency and instance count (the
// type/latency/instances triple init_exec_unit takes). The integer variant
// gets IntegerUnits Integer units; the floating-point variant additionally
// gets AdderUnits Adder, MultiplierUnits Multiplier, and DividerUnits
// Divider units.
func (t *Table) BuildPool(fp bool) *funcunit.Pool {
	pool := funcunit.NewPool()
	addUnits(pool, funcunit.Integer, uint32(t.config.ALULatency), t.config.IntegerUnits)
	if fp {
		addUnits(pool, funcunit.Adder, uint32(t.config.AdderLatency), t.config.AdderUnits)
		addUnits(pool, funcunit.Multiplier, uint32(t.config.MultiplierLatency), t.config.MultiplierUnits)
		addUnits(pool, funcunit.Divider, uint32(t.config.DividerLatency), t.config.DividerUnits)
	}
	return pool
}

func addUnits(pool *funcunit.Pool, t funcunit.Type, latency, instances uint32) {
	for i := uint32(0); i < instances; i++ {
		pool.AddUnit(t, latency)
	}
}
