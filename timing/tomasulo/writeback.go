package tomasulo

// writeBack implements Phase A: CDB arbitration and broadcast
// (spec §4.3.1).
func writeBack(s *State) error {
	producer := selectProducer(s)
	if producer == nil {
		return nil
	}

	ins := s.instByID(producer.InstID)
	if ins == nil {
		return engineErrorf(s.Cycle, "reservation station %s bound to unknown instruction %d", producer.ID, producer.InstID)
	}

	value := *producer.Result
	s.CDB = CDB{Active: true, Tag: producer.ID, Value: value}
	s.Stats.CDBArbitrations++

	cycle := s.Cycle
	ins.Write = &cycle
	s.Stats.InstructionsRetired++

	for _, reg := range s.Registers {
		if reg.Tag == producer.ID {
			reg.Value = value
			reg.Tag = ""
		}
	}

	for _, rs := range s.RS {
		if !rs.Busy || rs.ID == producer.ID {
			continue
		}
		if rs.Vj.Kind == OperandTag && rs.Vj.Tag == producer.ID {
			rs.Vj = ValueOperand(value)
		}
		if rs.Vk.Kind == OperandTag && rs.Vk.Tag == producer.ID {
			rs.Vk = ValueOperand(value)
		}
	}

	producer.Reset()

	return nil
}

// selectProducer finds the busy RS with remaining-time 0 and a computed
// result, preferring the smallest bound-instruction id; ties (which
// cannot occur, since ids are unique) are broken by RS iteration order
// (spec §4.3.1).
func selectProducer(s *State) *ReservationStation {
	var best *ReservationStation
	for _, rs := range s.RS {
		if !rs.Busy || rs.Remaining != 0 || rs.Result == nil {
			continue
		}
		if best == nil || rs.InstID < best.InstID {
			best = rs
		}
	}
	return best
}
