package tomasulo

import (
	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/config"
)

// issue implements Phase C: renaming, memory disambiguation, structural
// allocation, and loop re-entry (spec §4.3.5).
func issue(s *State, cfg *config.Config, labels map[string]int64) error {
	if s.BranchStall {
		return nil
	}

	candidate := selectIssueCandidate(s)
	if candidate == nil {
		return nil
	}

	unit := candidate.Unit()

	var addr int64
	hasAddr := candidate.Class() == asm.ClassLoad || candidate.Class() == asm.ClassStore
	if hasAddr {
		resolved, ok := effectiveAddress(s, candidate)
		if !ok {
			return nil // base register not yet available; stall issue
		}
		addr = resolved

		if disambiguationStalls(s, candidate, addr) {
			s.Stats.DisambiguationStalls++
			return nil
		}
	}

	rs := freeStation(s, unit)
	if rs == nil {
		s.Stats.StructuralStalls++
		return nil
	}

	cycle := s.Cycle
	candidate.Issue = &cycle
	s.PC += 4
	if candidate.Class() == asm.ClassBranch {
		s.BranchStall = true
	}

	bindStation(s, rs, candidate, addr)

	if candidate.WritesRegister() {
		s.register(candidate.Dest()).Tag = rs.ID
	}

	return nil
}

// selectIssueCandidate finds the not-yet-issued dynamic instruction at
// the current PC, or realizes loop re-entry by cloning the most recent
// fully-retired instance at that PC (spec §4.3.5).
func selectIssueCandidate(s *State) *DynamicInstruction {
	instances := dynInstancesAtPC(s, s.PC)
	if len(instances) == 0 {
		return nil
	}

	for _, ins := range instances {
		if ins.Issue == nil {
			return ins
		}
	}

	last := instances[len(instances)-1]
	if !last.Retired() {
		return nil
	}

	return s.appendInstruction(last.Static)
}

// effectiveAddress resolves the LOAD/STORE base+offset address at issue
// time (spec §4.3.5). It returns ok=false when the base register is
// renamed and its producer has not broadcast this cycle.
func effectiveAddress(s *State, ins *DynamicInstruction) (int64, bool) {
	base := s.register(ins.Src1())
	offset := ins.Imm()

	if base.Tag == "" {
		return int64(base.Value) + offset, true
	}

	if s.CDB.Active && s.CDB.Tag == base.Tag {
		return int64(s.CDB.Value) + offset, true
	}

	return 0, false
}

// disambiguationStalls implements spec §4.3.5's memory-disambiguation
// check: a candidate LOAD stalls behind an earlier unresolved STORE to
// the same address (RAW); a candidate STORE stalls behind any earlier
// unresolved LOAD or STORE to the same address (WAR/WAW).
func disambiguationStalls(s *State, candidate *DynamicInstruction, addr int64) bool {
	isLoad := candidate.Class() == asm.ClassLoad

	for _, rs := range s.RS {
		if !rs.Busy || rs.Addr == nil || *rs.Addr != addr {
			continue
		}
		if rs.InstID >= candidate.ID {
			continue
		}

		switch rs.Unit {
		case asm.UnitSTORE:
			return true // RAW (load) or WAW (store) against an earlier store
		case asm.UnitLOAD:
			if !isLoad {
				return true // WAR: store behind an earlier load
			}
		}
	}

	return false
}

// freeStation returns the first idle reservation station of unit, in
// the fixed ordinal order established at Initialize (spec §5).
func freeStation(s *State, unit asm.Unit) *ReservationStation {
	for _, rs := range s.RS {
		if rs.Unit == unit && !rs.Busy {
			return rs
		}
	}
	return nil
}

// bindStation occupies rs with candidate, performing the operand
// renaming rules of spec §4.3.5.
func bindStation(s *State, rs *ReservationStation, candidate *DynamicInstruction, addr int64) {
	rs.Busy = true
	rs.Opcode = candidate.Opcode()
	rs.InstID = candidate.ID
	rs.Remaining = 0
	rs.Result = nil

	switch candidate.Class() {
	case asm.ClassLoad:
		rs.Addr = addrPtr(addr)

	case asm.ClassStore:
		rs.Vk = s.resolveOperand(candidate.Dest())
		rs.Addr = addrPtr(addr)

	case asm.ClassBranch:
		rs.Vj = s.resolveOperand(candidate.Dest())
		rs.Vk = s.resolveOperand(candidate.Src1())

	default:
		rs.Vj = s.resolveOperand(candidate.Src1())
		if candidate.HasImm() {
			rs.Vk = ValueOperand(float64(candidate.Imm()))
		} else {
			rs.Vk = s.resolveOperand(candidate.Src2())
		}
	}
}

// resolveOperand implements the single-cycle-forwarding-at-issue rule
// of spec §4.3.5: a renamed register whose producer is broadcasting
// this very cycle yields the broadcast value directly; otherwise a
// renamed register yields its tag, and an unrenamed register yields its
// value. An empty register name (the zero-form branch's implicit
// second operand) always yields 0.
func (s *State) resolveOperand(regName string) Operand {
	if regName == "" {
		return ValueOperand(0)
	}

	reg := s.register(regName)
	if reg.Tag == "" {
		return ValueOperand(reg.Value)
	}
	if s.CDB.Active && s.CDB.Tag == reg.Tag {
		return ValueOperand(s.CDB.Value)
	}
	return TagOperand(reg.Tag)
}

func addrPtr(v int64) *int64 { return &v }
