// Package core provides the cycle-accurate CPU core model.
// It wraps the Tomasulo timing engine to provide a high-level interface.
package core

import (
	"fmt"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/config"
	"github.com/sarchlab/tomasim/timing/tomasulo"
)

// Core represents a cycle-accurate out-of-order CPU core model.
// It wraps the Tomasulo engine's State and provides a simple interface for
// simulation (SPEC_FULL §4 "RunToCompletion/RunCycles helpers").
type Core struct {
	state  *tomasulo.State
	cfg    *config.Config
	labels map[string]int64
}

// NewCore creates a new Core for program, configured by cfg, with the
// given starting register values.
func NewCore(program *asm.Program, cfg *config.Config, initialRegisters map[string]float64) (*Core, error) {
	state, err := tomasulo.Initialize(program.Instructions, cfg, initialRegisters)
	if err != nil {
		return nil, err
	}

	return &Core{state: state, cfg: cfg, labels: program.Labels}, nil
}

// SetRegisterValue sets a starting register value. Permitted only before
// the first Tick.
func (c *Core) SetRegisterValue(name string, value float64) error {
	state, err := tomasulo.SetRegisterValue(c.state, name, value)
	if err != nil {
		return err
	}
	c.state = state
	return nil
}

// Tick executes one clock cycle.
func (c *Core) Tick() error {
	state, err := tomasulo.Step(c.state, c.cfg, c.labels)
	if err != nil {
		return err
	}
	c.state = state
	return nil
}

// Halted returns true once every instruction has retired and no further
// dynamic instance is pending at the current PC.
func (c *Core) Halted() bool {
	return c.state.Finished
}

// Stats returns the running performance counters.
func (c *Core) Stats() tomasulo.Statistics {
	return c.state.Stats
}

// RunToCompletion ticks the core until it halts or cycleLimit is reached
// (cycleLimit <= 0 means unbounded). It returns an error if cycleLimit is
// exhausted first, so callers can distinguish a hung program from a
// halted one.
func (c *Core) RunToCompletion(cycleLimit int) error {
	for cycleLimit <= 0 || c.state.Cycle < cycleLimit {
		if c.Halted() {
			return nil
		}
		if err := c.Tick(); err != nil {
			return err
		}
	}
	if c.Halted() {
		return nil
	}
	return fmt.Errorf("core: did not halt within %d cycles", cycleLimit)
}

// RunCycles executes the core for up to n more cycles, stopping early if
// it halts. It returns whether the core is still running afterward.
func (c *Core) RunCycles(n int) (bool, error) {
	for i := 0; i < n; i++ {
		if c.Halted() {
			break
		}
		if err := c.Tick(); err != nil {
			return false, err
		}
	}
	return !c.Halted(), nil
}

// Snapshot returns a read-only copy of the current machine state, for
// display or inspection without exposing engine-internal mutability
// (SPEC_FULL §4).
func (c *Core) Snapshot() Snapshot {
	return newSnapshot(c.state)
}
