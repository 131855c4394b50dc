// Package main provides the entry point for tomasim.
// tomasim is a cycle-accurate Tomasulo out-of-order CPU simulator.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/config"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/tomasulo"
)

var (
	configPath = flag.String("config", "", "Path to machine configuration JSON file")
	cycleLimit = flag.Int("cycles", 10000, "Maximum cycles to simulate before giving up")
	verbose    = flag.Bool("v", false, "Print per-cycle reservation-station and register tables")
	dumpJSON   = flag.String("dump-json", "", "Write the final machine-state snapshot to this JSON file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomasim [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	source, err := os.ReadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
		os.Exit(1)
	}

	prog, err := asm.Parse(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing program: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	c, err := core.NewCore(prog, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		runVerbose(c, *cycleLimit)
	} else if err := c.RunToCompletion(*cycleLimit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	snap := c.Snapshot()
	printSummary(programPath, snap)

	if *dumpJSON != "" {
		if err := writeSnapshotJSON(*dumpJSON, snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *dumpJSON, err)
			os.Exit(1)
		}
	}
}

func writeSnapshotJSON(path string, snap core.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// runVerbose ticks the engine one cycle at a time, printing the
// reservation-station and register tables after each cycle.
func runVerbose(c *core.Core, cycleLimit int) {
	for i := 0; i < cycleLimit && !c.Halted(); i++ {
		if err := c.Tick(); err != nil {
			fmt.Fprintf(os.Stderr, "Error at cycle %d: %v\n", i, err)
			os.Exit(1)
		}
		printCycleTables(c.Snapshot())
	}
}

func printCycleTables(snap core.Snapshot) {
	fmt.Printf("\n== cycle %d (PC=%d) ==\n", snap.Cycle, snap.PC)

	rs := table.NewWriter()
	rs.SetTitle("Reservation Stations")
	rs.AppendHeader(table.Row{"ID", "Unit", "Busy", "Op", "Vj", "Vk", "Addr"})
	for _, s := range snap.Stations {
		rs.AppendRow(table.Row{s.ID, s.Unit, s.Busy, s.Opcode, operandString(s.Vj), operandString(s.Vk), addrString(s.Addr)})
	}
	fmt.Println(rs.Render())

	regs := table.NewWriter()
	regs.SetTitle("Registers")
	regs.AppendHeader(table.Row{"Name", "Value", "Tag"})
	for _, r := range snap.Registers {
		regs.AppendRow(table.Row{r.Name, r.Value, r.Tag})
	}
	fmt.Println(regs.Render())
}

func printSummary(programPath string, snap core.Snapshot) {
	fmt.Printf("\nProgram: %s\n", programPath)
	fmt.Printf("Halted: %v\n", snap.Finished)
	fmt.Printf("Cycles: %d\n", snap.Stats.Cycles)
	fmt.Printf("Instructions retired: %d\n", snap.Stats.InstructionsRetired)
	fmt.Printf("CPI: %.2f\n", snap.Stats.CPI())
	fmt.Printf("Structural stalls: %d\n", snap.Stats.StructuralStalls)
	fmt.Printf("Disambiguation stalls: %d\n", snap.Stats.DisambiguationStalls)
	fmt.Printf("Cache hits/misses: %d/%d\n", snap.Stats.CacheHits, snap.Stats.CacheMisses)
	fmt.Printf("Branches taken/not taken: %d/%d\n", snap.Stats.BranchesTaken, snap.Stats.BranchesNotTaken)

	for _, entry := range snap.Log {
		fmt.Printf("  [cycle %d] %s\n", entry.Cycle, entry.Message)
	}
}

func operandString(op tomasulo.Operand) string {
	switch op.Kind {
	case tomasulo.OperandValue:
		return fmt.Sprintf("%g", op.Value)
	case tomasulo.OperandTag:
		return op.Tag
	default:
		return "-"
	}
}

func addrString(addr *int64) string {
	if addr == nil {
		return ""
	}
	return fmt.Sprintf("%d", *addr)
}
