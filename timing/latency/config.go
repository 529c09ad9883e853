package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the cycle counts the pipeline charges for each class
// of work. Defaults match the reference simulator's hard-coded constants:
// a single-cycle integer ALU and a two-cycle multi-cycle memory access.
// A branch always costs exactly the Integer unit's latency plus one MEM
// cycle to resolve — there is no separate branch-stall knob, since nothing
// about the control-hazard protocol is independent of ALULatency. The
// three FP unit latencies only matter to the floating-point variant; the
// integer variant never touches them because its functional-unit pool has
// no Adder, Multiplier, or Divider entries.
type TimingConfig struct {
	// ALULatency is the execution latency of the Integer functional unit:
	// ADD/SUB/XOR/ADDI/SUBI, address arithmetic, and branch condition
	// tests. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MemoryLatency is the number of extra cycles MEM holds a load or
	// store beyond its first cycle, freezing every upstream stage.
	// Default: 2 cycles.
	MemoryLatency uint64 `json:"memory_latency"`

	// AdderLatency is the Adder functional unit's latency (ADDS, SUBS).
	// Default: 4 cycles. Unused by the integer variant.
	AdderLatency uint64 `json:"adder_latency"`

	// MultiplierLatency is the Multiplier functional unit's latency
	// (MULTS). Default: 10 cycles. Unused by the integer variant.
	MultiplierLatency uint64 `json:"multiplier_latency"`

	// DividerLatency is the Divider functional unit's latency (DIVS).
	// Default: 20 cycles. Unused by the integer variant.
	DividerLatency uint64 `json:"divider_latency"`

	// IntegerUnits, AdderUnits, MultiplierUnits, and DividerUnits are the
	// instances parameter of init_exec_unit: how many parallel units of
	// each type BuildPool seeds the pool with. Defaults of 1 reproduce the
	// reference simulator's single-unit-per-type pool; a value above 1
	// lets that many instructions of the same functional-unit type be
	// in flight at once, each occupying its own unit and its own WAW
	// bookkeeping. AdderUnits, MultiplierUnits, and DividerUnits are
	// unused by the integer variant.
	IntegerUnits    uint32 `json:"integer_units"`
	AdderUnits      uint32 `json:"adder_units"`
	MultiplierUnits uint32 `json:"multiplier_units"`
	DividerUnits    uint32 `json:"divider_units"`
}

// DefaultTimingConfig returns the reference simulator's default latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:        1,
		MemoryLatency:     2,
		AdderLatency:      4,
		MultiplierLatency: 10,
		DividerLatency:    20,
		IntegerUnits:      1,
		AdderUnits:        1,
		MultiplierUnits:   1,
		DividerUnits:      1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file, starting from the
// defaults so a partial file only overrides the fields it mentions.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate rejects a zero latency for any functional unit type and a zero
// instance count for any unit type; MemoryLatency may be zero. An
// ALULatency of 1 matches the reference simulator's single-cycle ALU, but
// larger values are accepted.
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.AdderLatency == 0 {
		return fmt.Errorf("adder_latency must be > 0")
	}
	if c.MultiplierLatency == 0 {
		return fmt.Errorf("multiplier_latency must be > 0")
	}
	if c.DividerLatency == 0 {
		return fmt.Errorf("divider_latency must be > 0")
	}
	if c.IntegerUnits == 0 {
		return fmt.Errorf("integer_units must be > 0")
	}
	if c.AdderUnits == 0 {
		return fmt.Errorf("adder_units must be > 0")
	}
	if c.MultiplierUnits == 0 {
		return fmt.Errorf("multiplier_units must be > 0")
	}
	if c.DividerUnits == 0 {
		return fmt.Errorf("divider_units must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
