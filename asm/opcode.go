// Package asm decodes MIPS/DLX-style assembly text into the static
// instruction stream consumed by the Tomasulo timing model.
package asm

import "strings"

// Class is the architectural category of an opcode.
type Class uint8

// Opcode classes.
const (
	ClassUnknown Class = iota
	ClassLoad
	ClassStore
	ClassFPAdd
	ClassFPSub
	ClassFPMult
	ClassFPDiv
	ClassIntALU
	ClassBranch
)

// Unit is the functional-unit class a reservation station belongs to.
type Unit uint8

// Functional-unit classes.
const (
	UnitADD Unit = iota
	UnitMULT
	UnitLOAD
	UnitSTORE
	UnitINTEGER
)

// String returns the unit's reservation-station id prefix.
func (u Unit) String() string {
	switch u {
	case UnitADD:
		return "ADD"
	case UnitMULT:
		return "MULT"
	case UnitLOAD:
		return "LOAD"
	case UnitSTORE:
		return "STORE"
	case UnitINTEGER:
		return "INTEGER"
	default:
		return "UNKNOWN"
	}
}

// opcodeInfo maps a normalized opcode to its class.
var opcodeInfo = map[string]Class{
	"L.D": ClassLoad, "LW": ClassLoad, "LD": ClassLoad, "L.S": ClassLoad,

	"S.D": ClassStore, "SW": ClassStore, "SD": ClassStore, "S.S": ClassStore,

	"ADD.D": ClassFPAdd, "ADD.S": ClassFPAdd,
	"SUB.D": ClassFPSub, "SUB.S": ClassFPSub,

	"MUL": ClassFPMult, "MUL.D": ClassFPMult, "MUL.S": ClassFPMult,
	"DIV": ClassFPDiv, "DIV.D": ClassFPDiv, "DIV.S": ClassFPDiv,

	"ADD": ClassIntALU, "ADDI": ClassIntALU, "DADD": ClassIntALU, "DADDI": ClassIntALU,
	"SUB": ClassIntALU, "SUBI": ClassIntALU, "DSUB": ClassIntALU, "DSUBI": ClassIntALU,

	"BNE": ClassBranch, "BEQ": ClassBranch, "BNEZ": ClassBranch, "BEQZ": ClassBranch,
}

// ClassOf returns the class of a (case-insensitive) opcode and whether it
// was recognized.
func ClassOf(opcode string) (Class, bool) {
	c, ok := opcodeInfo[strings.ToUpper(opcode)]
	return c, ok
}

// UnitOf maps an instruction class to the functional-unit class that
// executes it.
func UnitOf(c Class) Unit {
	switch c {
	case ClassFPAdd, ClassFPSub:
		return UnitADD
	case ClassFPMult, ClassFPDiv:
		return UnitMULT
	case ClassLoad:
		return UnitLOAD
	case ClassStore:
		return UnitSTORE
	case ClassIntALU, ClassBranch:
		return UnitINTEGER
	default:
		return UnitINTEGER
	}
}

// IsSub reports whether opcode is a subtract-family opcode, by the
// substring test spec.md's original source uses (§4.3.2).
func IsSub(opcode string) bool {
	return strings.Contains(strings.ToUpper(opcode), "SUB")
}

// IsBEQ reports whether opcode tests for equality (BEQ/BEQZ) as opposed
// to inequality (BNE/BNEZ).
func IsBEQ(opcode string) bool {
	return strings.HasPrefix(strings.ToUpper(opcode), "BEQ")
}

// IsZeroForm reports whether opcode is the single-register "compare
// against zero" form (BEQZ/BNEZ).
func IsZeroForm(opcode string) bool {
	return strings.HasSuffix(strings.ToUpper(opcode), "Z")
}
