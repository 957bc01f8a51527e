// Command thermal-example discharges the thermal cell model for one hour
// and plots the cell temperature.
package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/cellsim/internal/params"
	"github.com/san-kum/cellsim/internal/physics"
	"github.com/san-kum/cellsim/internal/simulation"
)

func main() {
	model := physics.NewThermalDFN()

	pv, err := params.FromPreset(params.DefaultPreset)
	if err != nil {
		logrus.Fatalf("parameters: %v", err)
	}
	// pv.Update(map[string]any{params.ThermalResistance: 3.0, params.ThermalCapacitance: 70.0}, false)

	sim, err := simulation.New(model, pv)
	if err != nil {
		logrus.Fatalf("simulation: %v", err)
	}

	if _, err := sim.Solve(context.Background(), []float64{0, 3600}); err != nil {
		logrus.Fatalf("solve: %v", err)
	}

	if err := sim.Plot([]string{physics.VarTemperatureC}); err != nil {
		logrus.Fatalf("plot: %v", err)
	}
}
