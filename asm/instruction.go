package asm

// Instruction is one statically-parsed assembly line: an opcode, up to
// three textual operands, and the PC address it occupies. It never
// carries cycle timing — dynamic instances of it are created at issue
// time (see package tomasulo).
type Instruction struct {
	// Index is the instruction's position in the parsed program. Loop
	// re-entry finds "the instruction at this PC" by PC, not by Index.
	Index int

	// Text is the original source line, trimmed, for display/logging.
	Text string

	// Opcode is the uppercased mnemonic.
	Opcode string

	// Class and Unit classify the opcode (see opcode.go).
	Class Class
	Unit  Unit

	// Dest, Src1, Src2 are the raw operand tokens. Each is a register
	// name ("F2", "R1"), a label name, or an empty string when unused;
	// Src2 may also hold an immediate literal ("24") or, for loads and
	// stores, the whole "OFFSET(BASE)" token.
	// Dest/Src1/Src2 meanings are opcode-family specific; see spec §4.1
	// and the renaming rules in tomasulo/issue.go.
	Dest string
	Src1 string
	Src2 string

	// Imm is the parsed immediate, valid when HasImm is true. It holds
	// either the load/store offset or an ALU-immediate literal.
	Imm    int64
	HasImm bool

	// PC is the instruction's program-counter address (4 * Index).
	PC int64
}

// IsMemory reports whether the instruction is a load or a store.
func (ins *Instruction) IsMemory() bool {
	return ins.Class == ClassLoad || ins.Class == ClassStore
}

// WritesRegister reports whether the instruction has a destination
// register that the register alias table should rename (everything but
// STORE and BRANCH; spec §4.3.5).
func (ins *Instruction) WritesRegister() bool {
	return ins.Class != ClassStore && ins.Class != ClassBranch
}

// Program is the result of a successful Parse: the static instruction
// stream and the label table resolving label names to PC addresses.
type Program struct {
	Instructions []*Instruction
	Labels       map[string]int64
}
