package core_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/asm"
	"github.com/sarchlab/tomasim/timing/config"
	"github.com/sarchlab/tomasim/timing/core"
)

func TestCore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Core Suite")
}

var _ = Describe("Core", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.Default()
	})

	It("runs a straight-line FP program to completion", func() {
		prog, err := asm.Parse(`
			L.D  F6, 0(R2)
			L.D  F2, 8(R2)
			MUL.D F0, F2, F4
			SUB.D F8, F2, F6
			DIV.D F10, F0, F6
			ADD.D F6, F8, F2
		`)
		Expect(err).NotTo(HaveOccurred())

		c, err := core.NewCore(prog, cfg, map[string]float64{
			"R2": 0, "F4": 1.5,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(c.RunToCompletion(1000)).To(Succeed())
		Expect(c.Halted()).To(BeTrue())
		Expect(c.Stats().InstructionsRetired).To(Equal(6))
	})

	It("reports RunCycles without reaching completion", func() {
		prog, err := asm.Parse("DIV.D F10, F0, F6")
		Expect(err).NotTo(HaveOccurred())

		c, err := core.NewCore(prog, cfg, nil)
		Expect(err).NotTo(HaveOccurred())

		running, err := c.RunCycles(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(running).To(BeTrue())
		Expect(c.Halted()).To(BeFalse())
	})

	It("errors RunToCompletion when the cycle limit is exhausted", func() {
		prog, err := asm.Parse("DIV.D F10, F0, F6")
		Expect(err).NotTo(HaveOccurred())

		c, err := core.NewCore(prog, cfg, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.RunToCompletion(2)).To(HaveOccurred())
	})

	It("snapshots the final register values once halted", func() {
		prog, err := asm.Parse("DADDI R1, R1, 24")
		Expect(err).NotTo(HaveOccurred())

		c, err := core.NewCore(prog, cfg, map[string]float64{"R1": 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RunToCompletion(1000)).To(Succeed())

		snap := c.Snapshot()
		Expect(snap.Finished).To(BeTrue())

		var r1 *core.RegisterView
		for i := range snap.Registers {
			if snap.Registers[i].Name == "R1" {
				r1 = &snap.Registers[i]
			}
		}
		Expect(r1).NotTo(BeNil())
		Expect(r1.Value).To(Equal(25.0))
	})

	It("rejects SetRegisterValue after the first tick", func() {
		prog, err := asm.Parse("DADDI R1, R1, 24")
		Expect(err).NotTo(HaveOccurred())

		c, err := core.NewCore(prog, cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Tick()).To(Succeed())

		Expect(c.SetRegisterValue("R1", 5)).To(HaveOccurred())
	})
})
