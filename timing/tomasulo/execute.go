package tomasulo

import (
	"fmt"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/config"
)

// execute implements Phase B: operand-ready reservation stations
// advance their latency timer, and those reaching zero compute their
// result (spec §4.3.2).
func execute(s *State, cfg *config.Config, labels map[string]int64) error {
	for _, rs := range s.RS {
		if !rs.Busy || !rs.OperandsReady() {
			continue
		}

		ins := s.instByID(rs.InstID)
		if ins == nil {
			return engineErrorf(s.Cycle, "reservation station %s bound to unknown instruction %d", rs.ID, rs.InstID)
		}

		if ins.ExecStart == nil {
			cycle := s.Cycle
			ins.ExecStart = &cycle
			rs.Remaining = latencyFor(s, cfg, ins, rs)
		}

		if rs.Remaining > 0 {
			rs.Remaining--
		}

		if rs.Remaining == 0 && ins.ExecEnd == nil {
			cycle := s.Cycle
			ins.ExecEnd = &cycle

			if err := computeResult(s, ins, rs, labels); err != nil {
				return err
			}

			if ins.Class() == asm.ClassStore || ins.Class() == asm.ClassBranch {
				writeCycle := s.Cycle
				ins.Write = &writeCycle
				s.Stats.InstructionsRetired++
				rs.Reset()
			}
		}
	}

	return nil
}

// latencyFor returns the Phase-B execute latency for the instruction
// bound to rs, including the cache-miss penalty for loads (spec
// §4.3.2).
func latencyFor(s *State, cfg *config.Config, ins *DynamicInstruction, rs *ReservationStation) int {
	if ins.Class() == asm.ClassLoad {
		hit, penalty := s.Cache.Access(*rs.Addr, s.Cycle)
		if hit {
			s.Stats.CacheHits++
		} else {
			s.Stats.CacheMisses++
			s.logf(LogCacheMiss, ins.ID, fmt.Sprintf("cache miss at address %d", *rs.Addr))
		}
		return cfg.Latencies.LOAD + penalty
	}
	return cfg.Latencies.For(ins.Class())
}

// computeResult performs the opcode-family-specific arithmetic, memory
// access, or branch resolution for an RS whose latency timer has
// reached zero (spec §4.3.2, §4.3.3).
func computeResult(s *State, ins *DynamicInstruction, rs *ReservationStation, labels map[string]int64) error {
	switch ins.Class() {
	case asm.ClassFPAdd:
		result := rs.Vj.Value + rs.Vk.Value
		rs.Result = &result

	case asm.ClassFPSub:
		result := rs.Vj.Value - rs.Vk.Value
		rs.Result = &result

	case asm.ClassFPMult:
		result := rs.Vj.Value * rs.Vk.Value
		rs.Result = &result

	case asm.ClassFPDiv:
		var result float64
		if rs.Vk.Value != 0 {
			result = rs.Vj.Value / rs.Vk.Value
		} else {
			s.logf(LogDivideByZero, ins.ID, "division by zero, result forced to 0")
		}
		rs.Result = &result

	case asm.ClassIntALU:
		var result float64
		if asm.IsSub(ins.Opcode()) {
			result = rs.Vj.Value - rs.Vk.Value
		} else {
			result = rs.Vj.Value + rs.Vk.Value
		}
		rs.Result = &result

	case asm.ClassLoad:
		result := s.Memory[*rs.Addr]
		rs.Result = &result

	case asm.ClassStore:
		s.Memory[*rs.Addr] = rs.Vk.Value

	case asm.ClassBranch:
		resolveBranch(s, ins, rs, labels)

	default:
		return engineErrorf(s.Cycle, "reservation station %s has unknown opcode class for %q", rs.ID, ins.Opcode())
	}

	return nil
}

// resolveBranch implements spec §4.3.3/§4.3.4: BNE-class taken when
// vj != vk, BEQ-class taken when vj == vk; a taken branch sets PC to
// the label's address (or logs and leaves PC unchanged if the label is
// undefined); the branch-stall flag is always cleared here.
func resolveBranch(s *State, ins *DynamicInstruction, rs *ReservationStation, labels map[string]int64) {
	taken := rs.Vj.Value != rs.Vk.Value
	if asm.IsBEQ(ins.Opcode()) {
		taken = rs.Vj.Value == rs.Vk.Value
	}

	if taken {
		s.Stats.BranchesTaken++
		target, ok := labels[ins.Src2()]
		if !ok {
			s.logf(LogBranchUndefinedLabel, ins.ID, fmt.Sprintf("branch to undefined label %q", ins.Src2()))
		} else {
			s.PC = target
		}
	} else {
		s.Stats.BranchesNotTaken++
	}

	s.BranchStall = false
}
