// Package tomasulo implements the cycle-accurate Tomasulo-style
// out-of-order engine: machine state and the three-phase (write-back,
// execute, issue) per-cycle transition (spec §3, §4.3).
package tomasulo

import (
	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/cache"
)

// OperandKind distinguishes the three states an RS operand slot can be
// in: holding a value, waiting on a producer's tag, or unused (spec §3,
// §9 — a tagged-variant representation makes the invariant structural
// rather than checked by convention).
type OperandKind uint8

// Operand slot states.
const (
	OperandEmpty OperandKind = iota
	OperandValue
	OperandTag
)

// Operand is one reservation-station operand slot: exactly one of a
// value or a producer tag, or neither when unused.
type Operand struct {
	Kind  OperandKind
	Value float64
	Tag   string
}

// ValueOperand returns an operand holding a resolved value.
func ValueOperand(v float64) Operand { return Operand{Kind: OperandValue, Value: v} }

// TagOperand returns an operand waiting on producer tag.
func TagOperand(tag string) Operand { return Operand{Kind: OperandTag, Tag: tag} }

// Ready reports whether the operand holds a value (as opposed to
// waiting on a tag).
func (o Operand) Ready() bool { return o.Kind == OperandValue }

// Register is one entry of the register file: its current value and,
// when renamed, the id of the reservation station that will produce its
// next value (spec §3).
type Register struct {
	Name  string
	Value float64
	Tag   string // empty when not renamed
}

// Renamed reports whether reads of this register should take the tag
// rather than the value.
func (r Register) Renamed() bool { return r.Tag != "" }

// DynamicInstruction is one runtime occurrence of a static
// asm.Instruction. Loops produce a fresh DynamicInstruction (new ID,
// null timestamps) each time control revisits the static instruction's
// PC (spec §3).
type DynamicInstruction struct {
	ID     int
	Static *asm.Instruction

	Issue     *int
	ExecStart *int
	ExecEnd   *int
	Write     *int
}

// Text, Opcode, Dest, Src1, Src2, Imm, HasImm, PC proxy the bound static
// instruction's fields for display and engine use.
func (d *DynamicInstruction) Text() string         { return d.Static.Text }
func (d *DynamicInstruction) Opcode() string       { return d.Static.Opcode }
func (d *DynamicInstruction) Dest() string         { return d.Static.Dest }
func (d *DynamicInstruction) Src1() string         { return d.Static.Src1 }
func (d *DynamicInstruction) Src2() string         { return d.Static.Src2 }
func (d *DynamicInstruction) Imm() int64           { return d.Static.Imm }
func (d *DynamicInstruction) HasImm() bool         { return d.Static.HasImm }
func (d *DynamicInstruction) PC() int64            { return d.Static.PC }
func (d *DynamicInstruction) Class() asm.Class     { return d.Static.Class }
func (d *DynamicInstruction) Unit() asm.Unit       { return d.Static.Unit }
func (d *DynamicInstruction) WritesRegister() bool { return d.Static.WritesRegister() }

// Retired reports whether the instruction has written its result back
// (or, for stores/branches, completed execution — spec §4.3.2).
func (d *DynamicInstruction) Retired() bool { return d.Write != nil }

// ReservationStation is a slot bound to at most one in-flight dynamic
// instruction (spec §3).
type ReservationStation struct {
	ID   string
	Unit asm.Unit

	Busy   bool
	Opcode string

	Vj, Vk Operand
	Addr   *int64

	InstID    int // bound DynamicInstruction.ID, meaningful only when Busy
	Remaining int
	Result    *float64
}

// OperandsReady reports whether neither Vj nor Vk is waiting on a tag.
// A slot an opcode does not use stays Empty and counts as ready, so
// LOAD/STORE need no class-specific check.
func (rs *ReservationStation) OperandsReady() bool {
	return rs.Vj.Kind != OperandTag && rs.Vk.Kind != OperandTag
}

// Reset clears an RS back to the idle state (spec §3: busy ↔ bound
// instruction identity present).
func (rs *ReservationStation) Reset() {
	rs.Busy = false
	rs.Opcode = ""
	rs.Vj = Operand{}
	rs.Vk = Operand{}
	rs.Addr = nil
	rs.InstID = -1
	rs.Remaining = 0
	rs.Result = nil
}

// CDB is the Common Data Bus slot: at most one (tag, value) pair,
// present only during the write-back phase of the cycle that produced
// it (spec §3).
type CDB struct {
	Active bool
	Tag    string
	Value  float64
}

// LogKind classifies an event-log entry (spec §7).
type LogKind uint8

// Event kinds.
const (
	LogCacheMiss LogKind = iota
	LogDivideByZero
	LogBranchUndefinedLabel
	LogInfo
)

// LogEntry is one append-only event-log record (spec §5, §7).
type LogEntry struct {
	Cycle   int
	Kind    LogKind
	InstID  int
	Message string
}

// Statistics holds running counters surfaced to callers beyond the
// minimal external interface of spec §6 (SPEC_FULL §4 "supplemented
// features").
type Statistics struct {
	Cycles               int
	InstructionsRetired  int
	StructuralStalls     int
	DisambiguationStalls int
	CacheHits            int
	CacheMisses          int
	BranchesTaken        int
	BranchesNotTaken     int
	CDBArbitrations      int
}

// CPI returns cycles per retired instruction, or 0 before any
// instruction has retired.
func (s Statistics) CPI() float64 {
	if s.InstructionsRetired == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.InstructionsRetired)
}

// State is the complete machine state the cycle engine transforms one
// clock at a time (spec §3 "Machine state").
type State struct {
	Program *asm.Program

	Cycle int
	PC    int64

	Instructions []*DynamicInstruction
	nextInstID   int
	instIndex    map[int]*DynamicInstruction

	RS        []*ReservationStation
	Registers map[string]*Register

	Memory map[int64]float64
	Cache  *cache.Cache

	CDB CDB
	Log []LogEntry

	Finished    bool
	BranchStall bool

	Stats Statistics
}

// register returns (creating if absent) the named register.
func (s *State) register(name string) *Register {
	if name == "" {
		return nil
	}
	r, ok := s.Registers[name]
	if !ok {
		r = &Register{Name: name}
		s.Registers[name] = r
	}
	return r
}

// instByID returns the dynamic instruction with the given id, or nil.
func (s *State) instByID(id int) *DynamicInstruction {
	return s.instIndex[id]
}

// appendInstruction assigns ins the next monotonic identity, appends it,
// and indexes it by id.
func (s *State) appendInstruction(static *asm.Instruction) *DynamicInstruction {
	ins := &DynamicInstruction{ID: s.nextInstID, Static: static}
	s.nextInstID++
	s.Instructions = append(s.Instructions, ins)
	s.instIndex[ins.ID] = ins
	return ins
}

func (s *State) logf(kind LogKind, instID int, msg string) {
	s.Log = append(s.Log, LogEntry{Cycle: s.Cycle, Kind: kind, InstID: instID, Message: msg})
}
