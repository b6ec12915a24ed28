package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/models"
)

func history(reg *experiment.Registry, id models.ID) dynamo.Series {
	h, ok := reg.History(id)
	Expect(ok).To(BeTrue())
	return h
}

var _ = Describe("Driver", func() {
	var (
		reg    *experiment.Registry
		driver *Driver
		a, b   models.ID
	)

	BeforeEach(func() {
		reg = experiment.NewRegistry(dynamo.DefaultEnvironment(), nil)
		a = reg.Add("a")
		b = reg.Add("b")
		Expect(reg.Tune(a, control.ParamKp, 2)).To(Succeed())
		Expect(reg.Tune(b, control.ParamKp, 1)).To(Succeed())

		var err error
		driver, err = NewDriver(reg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts paused with pending work", func() {
		Expect(driver.Running()).To(BeFalse())
		Expect(driver.Horizon()).To(Equal(DefaultHorizon))
		Expect(driver.State()).To(Equal(PausedDirty))
	})

	It("rejects a non-positive horizon", func() {
		_, err := NewDriver(reg, WithHorizon(0))
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	Context("while paused", func() {
		BeforeEach(func() {
			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Action).To(Equal(ActionBatch))
			Expect(rep.Models).To(Equal([]models.ID{a, b}))
		})

		It("evaluates every new model over the horizon", func() {
			h := history(reg, a)
			Expect(h).To(HaveLen(1251))
			last, _ := h.Last()
			Expect(last.V).To(BeNumerically("~", 99.45969233466883, 1e-6))
			Expect(driver.State()).To(Equal(PausedClean))
		})

		It("idles when nothing changed", func() {
			before := history(reg, a).Clone()
			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Action).To(Equal(ActionIdle))
			Expect(history(reg, a)).To(Equal(before))
		})

		It("recomputes only the tuned model", func() {
			before := history(reg, b).Clone()
			Expect(reg.Tune(a, control.ParamKd, 1)).To(Succeed())
			Expect(driver.State()).To(Equal(PausedDirty))

			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Models).To(Equal([]models.ID{a}))
			Expect(history(reg, b)).To(Equal(before))
		})

		It("recomputes every model after an environment change", func() {
			Expect(reg.TuneEnvironment(dynamo.ParamSetpoint, 50)).To(Succeed())

			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Action).To(Equal(ActionBatch))
			Expect(rep.Models).To(ConsistOf(a, b))
		})

		It("does not recompute on rename", func() {
			Expect(reg.Rename(a, "renamed")).To(Succeed())
			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Action).To(Equal(ActionIdle))
			Expect(driver.State()).To(Equal(PausedClean))
		})

		It("gives a duplicate the same trajectory as its source", func() {
			dup, err := reg.Duplicate(a)
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(history(reg, dup)).To(Equal(history(reg, a)))
		})

		It("hands out histories that later ticks do not touch", func() {
			kept := history(reg, a)
			snapshot := kept.Clone()
			Expect(reg.Tune(a, control.ParamKp, 4)).To(Succeed())
			_, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(Equal(snapshot))
		})

		It("reports clean when only names changed", func() {
			Expect(reg.Rename(a, "renamed")).To(Succeed())
			Expect(reg.PendingChanges()).To(BeTrue())
			Expect(driver.State()).To(Equal(PausedClean))
		})

		It("refuses to reset", func() {
			Expect(driver.ResetSimulation()).To(MatchError(dynamo.ErrNotRunning))
			Expect(history(reg, a)).To(HaveLen(1251))
		})
	})

	Context("when a batch fails", func() {
		BeforeEach(func() {
			env := dynamo.DefaultEnvironment()
			env.Timestep = 0
			reg = experiment.NewRegistry(env, nil)
			a = reg.Add("a")
			b = reg.Add("b")

			var err error
			driver, err = NewDriver(reg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps every model dirty", func() {
			_, err := driver.Tick()
			Expect(err).To(MatchError(dynamo.ErrInvalidTimestep))
			Expect(driver.State()).To(Equal(PausedDirty))
			Expect(Plan(reg.Pending(), false, reg.IDs()).Models).To(Equal([]models.ID{a, b}))

			Expect(reg.TuneEnvironment(dynamo.ParamTimestep, 0.016)).To(Succeed())
			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Models).To(Equal([]models.ID{a, b}))
			Expect(driver.State()).To(Equal(PausedClean))
		})
	})

	Context("while running", func() {
		BeforeEach(func() {
			reg = experiment.NewRegistry(dynamo.Environment{
				Damping:  0.5,
				Timestep: 0.125,
				Setpoint: 100,
				MaxAccel: 10,
			}, nil)
			a = reg.Add("a")
			Expect(reg.Tune(a, control.ParamKp, 2)).To(Succeed())

			var err error
			driver, err = NewDriver(reg, WithHorizon(2))
			Expect(err).NotTo(HaveOccurred())
			driver.SetRunning(true)
		})

		It("advances each model by one step per tick", func() {
			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Action).To(Equal(ActionRealtime))
			Expect(driver.State()).To(Equal(Running))

			h := history(reg, a)
			Expect(h).To(HaveLen(1))
			Expect(h[0].T).To(Equal(0.125))
		})

		It("keeps the window inside the horizon", func() {
			for i := 0; i < 100; i++ {
				_, err := driver.Tick()
				Expect(err).NotTo(HaveOccurred())
			}
			m, _ := reg.Model(a)
			Expect(m.Elapsed()).To(Equal(2.0))

			h := history(reg, a)
			Expect(len(h)).To(BeNumerically("<=", 17))
			for _, s := range h {
				Expect(s.T).To(BeNumerically(">", 0))
				Expect(s.T).To(BeNumerically("<=", 2))
			}
		})

		It("applies tuning live without a batch recompute", func() {
			for i := 0; i < 3; i++ {
				_, _ = driver.Tick()
			}
			Expect(reg.Tune(a, control.ParamKp, 5)).To(Succeed())

			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Action).To(Equal(ActionRealtime))
			Expect(history(reg, a)).To(HaveLen(4))
			Expect(reg.PendingChanges()).To(BeFalse())
		})

		It("thins the window when the timestep grows", func() {
			for i := 0; i < 40; i++ {
				_, _ = driver.Tick()
			}
			Expect(history(reg, a)).To(HaveLen(16))

			Expect(reg.TuneEnvironment(dynamo.ParamTimestep, 0.5)).To(Succeed())
			_, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())

			h := history(reg, a)
			Expect(len(h)).To(BeNumerically("<=", 5))
			last, _ := h.Last()
			Expect(last.T).To(Equal(2.0))
			for _, s := range h {
				Expect(s.T).To(BeNumerically(">", 0))
			}
		})

		It("resets models and clears histories", func() {
			for i := 0; i < 5; i++ {
				_, _ = driver.Tick()
			}
			Expect(driver.ResetSimulation()).To(Succeed())

			m, _ := reg.Model(a)
			Expect(m.Value()).To(BeZero())
			Expect(m.Elapsed()).To(BeZero())
			Expect(m.Controller().Kp).To(Equal(2.0))
			Expect(history(reg, a)).To(BeEmpty())
		})

		It("keeps histories when paused", func() {
			for i := 0; i < 5; i++ {
				_, _ = driver.Tick()
			}
			before := history(reg, a).Clone()

			driver.SetRunning(false)
			rep, err := driver.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Action).To(Equal(ActionIdle))
			Expect(history(reg, a)).To(Equal(before))
		})
	})
})
