package asm_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/asm"
)

func TestAsm(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Asm Suite")
}

var _ = Describe("Parse", func() {
	It("decodes a sequential FP program", func() {
		prog, err := asm.Parse(`
			L.D  F6, 0(R2)
			L.D  F2, 8(R2)
			MUL.D F0, F2, F4
			SUB.D F8, F2, F6
			DIV.D F10, F0, F6
			ADD.D F6, F8, F2
			S.D  F6, 8(R2)
		`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Instructions).To(HaveLen(7))

		ld := prog.Instructions[0]
		Expect(ld.Opcode).To(Equal("L.D"))
		Expect(ld.Class).To(Equal(asm.ClassLoad))
		Expect(ld.Dest).To(Equal("F6"))
		Expect(ld.Src1).To(Equal("R2"))
		Expect(ld.Imm).To(Equal(int64(0)))
		Expect(ld.HasImm).To(BeTrue())
		Expect(ld.PC).To(Equal(int64(0)))

		mul := prog.Instructions[2]
		Expect(mul.Class).To(Equal(asm.ClassFPMult))
		Expect(mul.Dest).To(Equal("F0"))
		Expect(mul.Src1).To(Equal("F2"))
		Expect(mul.Src2).To(Equal("F4"))
		Expect(mul.PC).To(Equal(int64(8)))
	})

	It("resolves a label to the PC of the instruction it prefixes", func() {
		prog, err := asm.Parse(`
			DADDI R1, R1, 24
			LOOP: L.D F0, 0(R1)
			MUL.D F4, F0, F2
			BNE  R1, R2, LOOP
		`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Labels["LOOP"]).To(Equal(int64(4)))

		branch := prog.Instructions[3]
		Expect(branch.Class).To(Equal(asm.ClassBranch))
		Expect(branch.Dest).To(Equal("R1"))
		Expect(branch.Src1).To(Equal("R2"))
		Expect(branch.Src2).To(Equal("LOOP"))
		Expect(branch.HasImm).To(BeFalse())
	})

	It("treats a pure label line as binding to the next instruction", func() {
		prog, err := asm.Parse("TOP:\nADD R1, R2, R3")
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Labels["TOP"]).To(Equal(int64(0)))
		Expect(prog.Instructions).To(HaveLen(1))
	})

	It("decodes the 2-operand BEQZ/BNEZ form", func() {
		prog, err := asm.Parse("BEQZ R1, DONE")
		Expect(err).NotTo(HaveOccurred())
		ins := prog.Instructions[0]
		Expect(ins.Dest).To(Equal("R1"))
		Expect(ins.Src1).To(BeEmpty())
		Expect(ins.Src2).To(Equal("DONE"))
	})

	It("rejects a 3-operand zero-form branch", func() {
		_, err := asm.Parse("BEQZ R1, R2, DONE")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a 2-operand non-zero-form branch", func() {
		_, err := asm.Parse("BEQ R1, DONE")
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown opcode", func() {
		_, err := asm.Parse("FOO R1, R2, R3")
		Expect(err).To(HaveOccurred())
		var perr *asm.ParseError
		Expect(err).To(BeAssignableToTypeOf(perr))
	})

	It("rejects a malformed memory operand", func() {
		_, err := asm.Parse("L.D F0, R1")
		Expect(err).To(HaveOccurred())
	})

	It("returns no partial program on failure", func() {
		prog, err := asm.Parse("ADD R1, R2, R3\nBOGUS R4, R5, R6")
		Expect(err).To(HaveOccurred())
		Expect(prog).To(BeNil())
	})
})
