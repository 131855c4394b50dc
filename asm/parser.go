package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError reports a malformed line or unknown opcode. The parser never
// returns a partial program alongside a ParseError (spec §4.1, §7).
type ParseError struct {
	Line  int
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("asm: line %d: %s (token %q)", e.Line, e.Msg, e.Token)
}

var (
	labelLineRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):\s*(.*)$`)
	splitRe      = regexp.MustCompile(`[\s,]+`)
	decimalRe    = regexp.MustCompile(`^-?[0-9]+$`)
	memOperandRe = regexp.MustCompile(`^(-?[0-9]+)\(([A-Za-z0-9_]+)\)$`)
)

// Parse tokenizes assembly source into a Program. Labels are resolved to
// the PC address of the instruction they prefix; a label line with no
// trailing instruction binds to the next instruction's PC (spec §4.1).
//
// On any malformed line or unrecognized opcode, Parse returns a
// *ParseError and a nil Program — no partial program is built.
func Parse(source string) (*Program, error) {
	prog := &Program{Labels: map[string]int64{}}

	var pendingLabels []string
	pc := int64(0)

	for lineNo, rawLine := range strings.Split(source, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if m := labelLineRe.FindStringSubmatch(line); m != nil {
			label, rest := m[1], strings.TrimSpace(m[2])
			if rest == "" {
				pendingLabels = append(pendingLabels, label)
				continue
			}
			pendingLabels = append(pendingLabels, label)
			line = rest
		}

		ins, err := parseInstructionLine(line, lineNo+1, len(prog.Instructions), pc)
		if err != nil {
			return nil, err
		}

		for _, label := range pendingLabels {
			prog.Labels[label] = pc
		}
		pendingLabels = nil

		prog.Instructions = append(prog.Instructions, ins)
		pc += 4
	}

	return prog, nil
}

// parseInstructionLine decodes one non-label-only line into a static
// Instruction bound to PC.
func parseInstructionLine(line string, lineNo, index int, pc int64) (*Instruction, error) {
	tokens := splitRe.Split(line, -1)
	tokens = removeEmpty(tokens)
	if len(tokens) == 0 {
		return nil, &ParseError{Line: lineNo, Token: "", Msg: "empty instruction"}
	}

	opcode := strings.ToUpper(tokens[0])
	class, ok := ClassOf(opcode)
	if !ok {
		return nil, &ParseError{Line: lineNo, Token: tokens[0], Msg: "unknown opcode"}
	}

	ins := &Instruction{
		Index:  index,
		Text:   line,
		Opcode: opcode,
		Class:  class,
		Unit:   UnitOf(class),
		PC:     pc,
	}

	operands := tokens[1:]

	switch {
	case class == ClassLoad || class == ClassStore:
		if len(operands) != 2 {
			return nil, &ParseError{Line: lineNo, Token: line, Msg: "load/store requires DEST, OFFSET(BASE)"}
		}
		ins.Dest = operands[0]
		if err := decodeMemOperand(ins, operands[1], lineNo); err != nil {
			return nil, err
		}

	case class == ClassBranch:
		if err := decodeBranchOperands(ins, operands, lineNo); err != nil {
			return nil, err
		}

	default:
		if err := decodeRegisterOperands(ins, operands, lineNo); err != nil {
			return nil, err
		}
	}

	return ins, nil
}

// decodeBranchOperands parses BNE/BEQ's 3-operand "R1, R2, LABEL" shape
// and BNEZ/BEQZ's 2-operand "R1, LABEL" shape. In the 2-operand shape
// Src1 is left empty, meaning "compare against the zero register"
// (spec §4.3.5: vj/vk resolution treats an empty register name as 0).
func decodeBranchOperands(ins *Instruction, operands []string, lineNo int) error {
	zeroForm := IsZeroForm(ins.Opcode)

	switch {
	case zeroForm && len(operands) == 2:
		ins.Dest = operands[0]
		ins.Src2 = operands[1]
	case !zeroForm && len(operands) == 3:
		ins.Dest = operands[0]
		ins.Src1 = operands[1]
		ins.Src2 = operands[2]
	default:
		return &ParseError{Line: lineNo, Token: ins.Opcode, Msg: "branch requires R1,R2,LABEL or R1,LABEL (zero form)"}
	}
	return nil
}

// decodeMemOperand parses the "OFFSET(BASE)" operand shape used by
// loads and stores (spec §4.1 form 2).
func decodeMemOperand(ins *Instruction, token string, lineNo int) error {
	m := memOperandRe.FindStringSubmatch(token)
	if m == nil {
		return &ParseError{Line: lineNo, Token: token, Msg: "malformed memory operand, expected OFFSET(BASE)"}
	}
	offset, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return &ParseError{Line: lineNo, Token: token, Msg: "malformed offset"}
	}
	ins.Imm = offset
	ins.HasImm = true
	ins.Src1 = m[2]
	ins.Src2 = token
	return nil
}

// decodeRegisterOperands parses the "D, S1, S2" shape (spec §4.1 form 1)
// for non-memory, non-branch opcodes; branches are decoded by
// decodeBranchOperands.
func decodeRegisterOperands(ins *Instruction, operands []string, lineNo int) error {
	if len(operands) == 0 {
		return &ParseError{Line: lineNo, Token: ins.Opcode, Msg: "missing operands"}
	}

	ins.Dest = operands[0]

	if len(operands) >= 2 {
		ins.Src1 = operands[1]
	}

	if len(operands) >= 3 {
		third := operands[2]
		if decimalRe.MatchString(third) {
			v, err := strconv.ParseInt(third, 10, 64)
			if err != nil {
				return &ParseError{Line: lineNo, Token: third, Msg: "malformed immediate"}
			}
			ins.Imm = v
			ins.HasImm = true
		}
		ins.Src2 = third
	}

	return nil
}

func removeEmpty(tokens []string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
