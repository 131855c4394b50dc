package core

import (
	"sort"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/tomasulo"
)

// RegisterView is a read-only view of one register-file entry.
type RegisterView struct {
	Name  string
	Value float64
	Tag   string
}

// StationView is a read-only view of one reservation station.
type StationView struct {
	ID     string
	Unit   asm.Unit
	Busy   bool
	Opcode string
	Vj, Vk tomasulo.Operand
	Addr   *int64
}

// Snapshot is an immutable copy of the machine state at one cycle
// boundary, safe to retain across further Tick calls (SPEC_FULL §4).
type Snapshot struct {
	Cycle    int
	PC       int64
	Finished bool

	Registers []RegisterView
	Stations  []StationView
	Memory    map[int64]float64
	Log       []tomasulo.LogEntry
	Stats     tomasulo.Statistics
}

func newSnapshot(s *tomasulo.State) Snapshot {
	snap := Snapshot{
		Cycle:    s.Cycle,
		PC:       s.PC,
		Finished: s.Finished,
		Memory:   make(map[int64]float64, len(s.Memory)),
		Log:      append([]tomasulo.LogEntry(nil), s.Log...),
		Stats:    s.Stats,
	}

	for addr, v := range s.Memory {
		snap.Memory[addr] = v
	}

	for _, rs := range s.RS {
		snap.Stations = append(snap.Stations, StationView{
			ID: rs.ID, Unit: rs.Unit, Busy: rs.Busy, Opcode: rs.Opcode,
			Vj: rs.Vj, Vk: rs.Vk, Addr: rs.Addr,
		})
	}

	for name, reg := range s.Registers {
		snap.Registers = append(snap.Registers, RegisterView{
			Name: name, Value: reg.Value, Tag: reg.Tag,
		})
	}
	sort.Slice(snap.Registers, func(i, j int) bool {
		return snap.Registers[i].Name < snap.Registers[j].Name
	})

	return snap
}
