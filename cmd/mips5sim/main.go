// Package main provides the entry point for mips5sim.
// mips5sim is a cycle-accurate 5-stage MIPS-like pipeline simulator,
// supporting both the integer-only variant and the floating-point variant
// with its heterogeneous Adder/Multiplier/Divider functional-unit pool.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/mips5sim/asm"
	"github.com/sarchlab/mips5sim/machine"
	"github.com/sarchlab/mips5sim/timing/latency"
	"github.com/sarchlab/mips5sim/timing/pipeline"
)

var (
	cycles     = flag.Uint64("cycles", 0, "run exactly this many cycles; 0 runs until EOP reaches WB")
	memSize    = flag.Uint64("mem-size", 1<<16, "data memory size in bytes")
	memLatency = flag.Uint64("mem-latency", 2, "extra cycles a load/store holds MEM beyond its first cycle")
	fpVariant  = flag.Bool("fp", false, "use the floating-point functional-unit pool")
	configPath = flag.String("config", "", "path to a timing configuration JSON file")
	baseAddr   = flag.Uint64("base", 0, "address to fetch the first instruction from")
	verbose    = flag.Bool("v", false, "print the register and stage-latch dump after running")
	dumpJSON   = flag.String("dump-json", "", "write the run's stats as JSON to this path instead of stdout text")
)

// report is the -dump-json output shape: a run's headline stats plus the
// program and variant that produced them, in the style of the teacher's
// benchmark harness JSON reports.
type report struct {
	Program       string  `json:"program"`
	FPVariant     bool    `json:"fp_variant"`
	Instructions  uint64  `json:"instructions"`
	Stalls        uint64  `json:"stalls"`
	ClockCycles   uint64  `json:"clock_cycles"`
	CyclesElapsed uint64  `json:"cycles_elapsed"`
	IPC           float64 `json:"ipc"`
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: mips5sim [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)
	os.Exit(run(programPath))
}

func run(programPath string) int {
	src, err := os.Open(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open program: %v\n", err)
		return 1
	}
	defer func() { _ = src.Close() }()

	prog, err := asm.Parse(src, uint32(*baseAddr), os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	timingConfig := latency.DefaultTimingConfig()
	if *configPath != "" {
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: load timing config: %v\n", err)
			return 1
		}
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "mem-latency" {
			timingConfig.MemoryLatency = *memLatency
		}
	})
	if err := timingConfig.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid timing config: %v\n", err)
		return 1
	}

	mem := machine.NewMemory(uint32(*memSize), uint32(timingConfig.MemoryLatency))
	lat := latency.NewTableWithConfig(timingConfig)
	sim := pipeline.NewSimulator(32, mem, lat, *fpVariant)
	sim.LoadProgram(prog.Instructions, prog.BaseAddress)

	sim.Run(uint32(*cycles))

	stats := sim.Stats()

	if *dumpJSON != "" {
		if err := writeJSONReport(*dumpJSON, programPath, stats); err != nil {
			fmt.Fprintf(os.Stderr, "error: write json report: %v\n", err)
			return 1
		}
	} else {
		fmt.Printf("Program: %s\n", programPath)
		fmt.Printf("Instructions: %d\n", stats.Instructions)
		fmt.Printf("Stalls: %d\n", stats.Stalls)
		fmt.Printf("Clock cycles: %d\n", stats.ClockCycles)
		fmt.Printf("Cycles elapsed: %d\n", stats.CyclesElapsed)
		fmt.Printf("IPC: %.4f\n", stats.IPC)
	}

	if *verbose {
		fmt.Println()
		sim.DumpRegisters(os.Stdout)
	}

	return 0
}

func writeJSONReport(path, programPath string, stats pipeline.Stats) error {
	r := report{
		Program:       programPath,
		FPVariant:     *fpVariant,
		Instructions:  stats.Instructions,
		Stalls:        stats.Stalls,
		ClockCycles:   stats.ClockCycles,
		CyclesElapsed: stats.CyclesElapsed,
		IPC:           stats.IPC,
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
