package tomasulo

import (
	"fmt"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/config"
)

// Initialize builds a fresh State from a parsed program, a machine
// configuration, and the starting register values (spec §6
// "initialize"). Reservation stations are allocated per cfg.RSSizes;
// one dynamic instance (null timestamps) is seeded for every static
// instruction, matching the "not yet issued" state issue.go expects to
// find at PC 0.
func Initialize(instructions []*asm.Instruction, cfg *config.Config, initialRegisters map[string]float64) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tomasulo: invalid config: %w", err)
	}

	s := &State{
		Program:   &asm.Program{Instructions: instructions},
		Registers: map[string]*Register{},
		Memory:    map[int64]float64{},
		instIndex: map[int]*DynamicInstruction{},
		Cache: cache.New(cache.Config{
			Enabled:     cfg.Cache.Enabled,
			BlockSize:   cfg.Cache.BlockSize,
			CacheSize:   cfg.Cache.CacheSize,
			MissPenalty: cfg.Cache.MissPenalty,
		}),
	}

	s.RS = buildReservationStations(cfg.RSSizes)

	for name, value := range initialRegisters {
		s.register(name).Value = value
	}

	for _, ins := range instructions {
		s.appendInstruction(ins)
	}

	return s, nil
}

// buildReservationStations allocates RS per unit class, in the fixed
// iteration order spec §5 mandates: ADD, MULT, LOAD, STORE, INTEGER,
// each by ordinal.
func buildReservationStations(sizes config.RSSizes) []*ReservationStation {
	classes := []struct {
		unit asm.Unit
		n    int
	}{
		{asm.UnitADD, sizes.ADD},
		{asm.UnitMULT, sizes.MULT},
		{asm.UnitLOAD, sizes.LOAD},
		{asm.UnitSTORE, sizes.STORE},
		{asm.UnitINTEGER, sizes.INTEGER},
	}

	var rs []*ReservationStation
	for _, c := range classes {
		for i := 1; i <= c.n; i++ {
			rs = append(rs, &ReservationStation{
				ID:     fmt.Sprintf("%s%d", c.unit, i),
				Unit:   c.unit,
				InstID: -1,
			})
		}
	}
	return rs
}

// SetRegisterValue mutates a starting register value. Permitted only
// before the first cycle has advanced (spec §6).
func SetRegisterValue(s *State, name string, value float64) (*State, error) {
	if s.Cycle != 0 {
		return nil, fmt.Errorf("tomasulo: setRegisterValue only permitted at cycle 0 (current cycle %d)", s.Cycle)
	}
	s.register(name).Value = value
	return s, nil
}

// Step advances s by exactly one clock: Write-Back, then Execute, then
// Issue (spec §4.3). It is a no-op if s.Finished. Internally it mutates
// s in place and returns the same pointer — callers hold exactly one
// current state, so no aliasing across cycles needs to be guarded
// against (spec §5).
func Step(s *State, cfg *config.Config, labels map[string]int64) (*State, error) {
	if s.Finished {
		return s, nil
	}

	prevCycle := s.Cycle
	s.Cycle++
	s.Stats.Cycles = s.Cycle
	s.CDB = CDB{}

	if err := writeBack(s); err != nil {
		s.Cycle, s.Stats.Cycles = prevCycle, prevCycle
		return nil, err
	}
	if err := execute(s, cfg, labels); err != nil {
		s.Cycle, s.Stats.Cycles = prevCycle, prevCycle
		return nil, err
	}
	if err := issue(s, cfg, labels); err != nil {
		s.Cycle, s.Stats.Cycles = prevCycle, prevCycle
		return nil, err
	}

	s.Finished = checkFinished(s)

	return s, nil
}

// checkFinished implements spec §4.3.6: every dynamic instruction has
// written back, and no dynamic instruction occupies the current PC
// (accounting for pending loop re-entry).
func checkFinished(s *State) bool {
	for _, ins := range s.Instructions {
		if !ins.Retired() {
			return false
		}
		if ins.PC() == s.PC {
			return false
		}
	}
	return true
}

// dynInstancesAtPC returns the dynamic instructions bound to the static
// instruction at pc, in creation order.
func dynInstancesAtPC(s *State, pc int64) []*DynamicInstruction {
	var out []*DynamicInstruction
	for _, ins := range s.Instructions {
		if ins.PC() == pc {
			out = append(out, ins)
		}
	}
	return out
}
