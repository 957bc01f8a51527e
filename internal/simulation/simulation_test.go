package simulation_test

import (
	"bytes"
	"context"
	"io"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/integrators"
	"github.com/san-kum/cellsim/internal/metrics"
	"github.com/san-kum/cellsim/internal/params"
	"github.com/san-kum/cellsim/internal/physics"
	"github.com/san-kum/cellsim/internal/simulation"
	"github.com/san-kum/cellsim/internal/solution"
	"github.com/san-kum/cellsim/internal/storage"
	"github.com/san-kum/cellsim/internal/viz"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func defaultParams() *params.ParameterValues {
	pv, err := params.FromPreset(params.DefaultPreset)
	Expect(err).NotTo(HaveOccurred())
	return pv
}

func newSim(pv *params.ParameterValues, opts ...simulation.Option) *simulation.Simulation {
	opts = append([]simulation.Option{simulation.WithLogger(quietLogger())}, opts...)
	sim, err := simulation.New(physics.NewThermalDFN(), pv, opts...)
	Expect(err).NotTo(HaveOccurred())
	return sim
}

var _ = Describe("Simulation", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("the default example", func() {
		var sol *solution.Solution

		BeforeEach(func() {
			var err error
			sol, err = newSim(defaultParams()).Solve(ctx, []float64{0, 3600})
			Expect(err).NotTo(HaveOccurred())
		})

		It("covers exactly [0, 3600]", func() {
			Expect(sol.Times[0]).To(Equal(0.0))
			Expect(sol.Times[sol.Len()-1]).To(Equal(3600.0))
			Expect(sol.Termination).To(Equal(dynamo.TerminationFinalTime))
			Expect(sol.Event).To(BeEmpty())
		})

		It("exposes the temperature channel", func() {
			Expect(sol.Names()).To(ContainElement("Temperature [°C]"))
		})

		It("warms the cell above ambient without leaving the window", func() {
			temp, err := sol.Variable(physics.VarTemperatureC)
			Expect(err).NotTo(HaveOccurred())
			Expect(temp[0]).To(BeNumerically("~", 25.0, 1e-9))
			Expect(temp[len(temp)-1]).To(BeNumerically(">", 25.5))
			Expect(temp[len(temp)-1]).To(BeNumerically("<", 27.0))
			Expect(sol.Metrics["thermal_window"]).To(Equal(1.0))
		})

		It("discharges the nominal share of capacity", func() {
			q, err := sol.Final(physics.VarDischargeCapacity)
			Expect(err).NotTo(HaveOccurred())
			Expect(q).To(BeNumerically("~", 2.5, 1e-6))

			soc, err := sol.Final(physics.VarStateOfCharge)
			Expect(err).NotTo(HaveOccurred())
			Expect(soc).To(BeNumerically("~", 0.5, 1e-6))
		})

		It("keeps the voltage between the cut-offs", func() {
			s, err := sol.Summary(physics.VarVoltage)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Min).To(BeNumerically(">", 2.5))
			Expect(s.Max).To(BeNumerically("<", 4.2))
			Expect(s.Final).To(BeNumerically("<", s.Max))
		})

		It("records the default metrics", func() {
			Expect(sol.Metrics).To(HaveKey("max_temperature"))
			Expect(sol.Metrics).To(HaveKey("charge_throughput"))
			Expect(sol.Metrics).To(HaveKey("energy"))
			Expect(sol.Metrics["energy"]).To(BeNumerically(">", 8.0))
		})

		It("counts charge through the final step", func() {
			q, err := sol.Final(physics.VarDischargeCapacity)
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Metrics["charge_throughput"]).To(BeNumerically("~", q, 1e-9))

			tk, err := sol.Final(physics.VarTemperatureK)
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Metrics["max_temperature"]).To(BeNumerically("~", tk, 1e-12))
		})
	})

	Describe("parameter overrides", func() {
		finalTemp := func(rc, cc float64) float64 {
			pv := defaultParams()
			Expect(pv.Update(map[string]any{"R_c": rc, "C_c": cc}, true)).To(Succeed())
			sol, err := newSim(pv).Solve(ctx, []float64{0, 3600})
			Expect(err).NotTo(HaveOccurred())
			v, err := sol.Final(physics.VarTemperatureK)
			Expect(err).NotTo(HaveOccurred())
			return v
		}

		It("changes the temperature trace deterministically", func() {
			a := finalTemp(2, 60)
			b := finalTemp(2, 60)
			base := finalTemp(3, 70)

			Expect(a).To(Equal(b))
			Expect(a).NotTo(Equal(base))
			Expect(a).To(BeNumerically("<", base), "lower thermal resistance runs cooler")
		})

		It("rejects unknown keys only when asked to check", func() {
			pv := defaultParams()
			err := pv.Update(map[string]any{"Cooling fin count": 4}, true)
			Expect(err).To(MatchError(params.ErrUnknownParameter))

			Expect(pv.Update(map[string]any{"Cooling fin count": 4}, false)).To(Succeed())
			_, err = newSim(pv).Solve(ctx, []float64{0, 600})
			Expect(err).NotTo(HaveOccurred())
		})

		It("does not see later changes to the caller's parameters", func() {
			pv := defaultParams()
			sim := newSim(pv)
			Expect(pv.Update(map[string]any{"R_c": 100.0}, true)).To(Succeed())

			got, err := sim.Parameters().Float("R_c")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(3.0))
		})

		It("fails at construction when thermal parameters are missing", func() {
			pv, err := params.FromPreset(params.PresetChen2020)
			Expect(err).NotTo(HaveOccurred())

			_, err = simulation.New(physics.NewThermalDFN(), pv, simulation.WithLogger(quietLogger()))
			Expect(err).To(MatchError(params.ErrMissingParameter))
		})
	})

	Describe("plotting", func() {
		It("refuses to plot before a solve", func() {
			sim := newSim(defaultParams())
			Expect(sim.Plot([]string{"Temperature [°C]"})).To(MatchError(simulation.ErrNotSolved))
			Expect(sim.Solution()).To(BeNil())
		})

		It("fails on an unknown channel without touching the solution", func() {
			sim := newSim(defaultParams())
			sol, err := sim.Solve(ctx, []float64{0, 3600})
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			err = sim.Plot([]string{"Temperature [°C]", "Temperature [°F]"}, viz.WithWriter(&buf))
			Expect(err).To(MatchError(solution.ErrUnknownVariable))
			Expect(buf.Len()).To(BeZero())
			Expect(sim.Solution()).To(BeIdenticalTo(sol))

			Expect(sim.Plot([]string{"Temperature [°C]"}, viz.WithWriter(&buf))).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("Temperature [°C]"))
			Expect(sim.Solution()).To(BeIdenticalTo(sol))
		})

		It("plots the default channels when none are named", func() {
			sim := newSim(defaultParams())
			_, err := sim.Solve(ctx, []float64{0, 600})
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			Expect(sim.Plot(nil, viz.WithWriter(&buf))).To(Succeed())
			for _, name := range simulation.DefaultPlotVariables {
				Expect(buf.String()).To(ContainSubstring(name))
			}
		})
	})

	Describe("time spans", func() {
		DescribeTable("rejects invalid spans",
			func(tspan []float64) {
				_, err := newSim(defaultParams()).Solve(ctx, tspan)
				Expect(err).To(MatchError(simulation.ErrInvalidSpan))
			},
			Entry("empty", []float64{}),
			Entry("single time", []float64{0}),
			Entry("reversed", []float64{3600, 0}),
			Entry("zero length", []float64{10, 10}),
			Entry("not increasing", []float64{0, 100, 50, 3600}),
			Entry("infinite", []float64{0, math.Inf(1)}),
		)

		It("resamples onto explicit output times", func() {
			sol, err := newSim(defaultParams()).Solve(ctx, []float64{0, 900, 1800, 2700, 3600})
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Times).To(Equal([]float64{0, 900, 1800, 2700, 3600}))
		})

		It("honours a non-zero start", func() {
			sol, err := newSim(defaultParams()).Solve(ctx, []float64{100, 700})
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Times[0]).To(Equal(100.0))
			Expect(sol.Times[sol.Len()-1]).To(Equal(700.0))
		})
	})

	Describe("open circuit", func() {
		It("rests at ambient with no charge passed", func() {
			pv := defaultParams()
			Expect(pv.Update(map[string]any{params.CurrentFunction: 0.0}, true)).To(Succeed())

			sol, err := newSim(pv).Solve(ctx, []float64{0, 600})
			Expect(err).NotTo(HaveOccurred())

			temp, err := sol.Final(physics.VarTemperatureC)
			Expect(err).NotTo(HaveOccurred())
			Expect(temp).To(BeNumerically("~", 25.0, 1e-9))
			Expect(sol.Metrics["charge_throughput"]).To(Equal(0.0))

			s, err := sol.Summary(physics.VarCurrent)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Max).To(Equal(0.0))
		})
	})

	Describe("events", func() {
		It("stops at the lower voltage cut-off under a 1C discharge", func() {
			pv := defaultParams()
			Expect(pv.Update(map[string]any{params.CurrentFunction: 5.0}, true)).To(Succeed())

			sol, err := newSim(pv).Solve(ctx, []float64{0, 4000})
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Event).To(Equal(physics.EventMinimumVoltage))

			end := sol.Times[sol.Len()-1]
			Expect(end).To(BeNumerically(">", 3000))
			Expect(end).To(BeNumerically("<", 4000))

			v, err := sol.Final(physics.VarVoltage)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("~", 2.5, 1e-3))

			q, err := sol.Final(physics.VarDischargeCapacity)
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Metrics["charge_throughput"]).To(BeNumerically("~", q, 1e-9))
		})
	})

	Describe("solver options", func() {
		It("agrees across integrators", func() {
			final := func(opts ...simulation.Option) float64 {
				sol, err := newSim(defaultParams(), opts...).Solve(ctx, []float64{0, 1800})
				Expect(err).NotTo(HaveOccurred())
				v, err := sol.Final(physics.VarVoltage)
				Expect(err).NotTo(HaveOccurred())
				return v
			}

			adaptive := final()
			fixed := final(simulation.WithSolver("rk4"), simulation.WithFixedStep(5))
			Expect(fixed).To(BeNumerically("~", adaptive, 1e-4))
		})

		It("rejects an unknown solver", func() {
			_, err := simulation.New(physics.NewThermalDFN(), defaultParams(), simulation.WithSolver("cvode"))
			Expect(err).To(MatchError(integrators.ErrUnknownIntegrator))
		})

		It("rejects a non-positive tolerance", func() {
			_, err := simulation.New(physics.NewThermalDFN(), defaultParams(), simulation.WithTolerance(0))
			Expect(err).To(MatchError(simulation.ErrBadOption))
		})

		It("derates the current above a temperature limit", func() {
			pv := defaultParams()
			Expect(pv.Update(map[string]any{params.CurrentFunction: 5.0}, true)).To(Succeed())

			limit := 299.0
			sol, err := newSim(pv, simulation.WithDerating(limit)).Solve(ctx, []float64{0, 1800})
			Expect(err).NotTo(HaveOccurred())

			current, err := sol.Variable(physics.VarCurrent)
			Expect(err).NotTo(HaveOccurred())
			Expect(current[0]).To(Equal(5.0))
			Expect(current[len(current)-1]).To(BeNumerically("<", 5.0))
		})

		It("runs extra metrics", func() {
			m := metrics.NewStability("hot", 2, 0, 298.5)
			sol, err := newSim(defaultParams(), simulation.WithMetrics(m)).Solve(ctx, []float64{0, 3600})
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Metrics["hot"]).To(BeNumerically("<", 1.0))
		})

		It("returns the partial error on cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			sim := newSim(defaultParams())
			_, err := sim.Solve(cctx, []float64{0, 3600})
			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(sim.Solution()).To(BeNil())
		})
	})

	Describe("saving", func() {
		It("writes every channel to the store", func() {
			sim := newSim(defaultParams())
			store := storage.New(GinkgoT().TempDir())

			_, err := sim.Save(store)
			Expect(err).To(MatchError(simulation.ErrNotSolved))

			sol, err := sim.Solve(ctx, []float64{0, 600})
			Expect(err).NotTo(HaveOccurred())

			id, err := sim.Save(store)
			Expect(err).NotTo(HaveOccurred())

			meta, err := store.Load(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Model).To(Equal(physics.ThermalDFNName))
			Expect(meta.Points).To(Equal(sol.Len()))
			Expect(meta.Parameters).To(HaveKeyWithValue("R_c", 3.0))

			table, err := store.LoadVariables(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Columns[0]).To(Equal(physics.VarTimeS))
			Expect(table.Columns).To(ContainElement(physics.VarTemperatureC))
			Expect(table.Data[physics.VarTimeS]).To(HaveLen(sol.Len()))
		})
	})
})
