package sweep

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cellsim/internal/params"
	"github.com/san-kum/cellsim/internal/physics"
	"github.com/san-kum/cellsim/internal/simulation"
)

func quiet() []simulation.Option {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return []simulation.Option{simulation.WithLogger(log)}
}

func baseParams(t *testing.T) *params.ParameterValues {
	t.Helper()
	pv, err := params.FromPreset(params.PresetThermalDFN)
	require.NoError(t, err)
	return pv
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2, 2.5, 3}, Linspace(1, 3, 5))
	assert.Equal(t, []float64{4}, Linspace(4, 9, 1))
	assert.Nil(t, Linspace(0, 1, 0))
}

func TestRunKeepsOrder(t *testing.T) {
	pv := baseParams(t)
	values := []float64{4, 1, 2}

	results, err := Run(context.Background(), physics.NewThermalDFN(), pv, Sweep{
		Parameter: params.ThermalResistance,
		Values:    values,
		TSpan:     []float64{0, 1800},
		Workers:   2,
		Options:   quiet(),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, values[i], r.Value)
		assert.Equal(t, 1800.0, r.End)
		assert.Empty(t, r.Event)
	}
	// Higher thermal resistance traps more heat.
	assert.Greater(t, results[0].Max, results[2].Max)
	assert.Greater(t, results[2].Max, results[1].Max)

	assert.Equal(t, 1, Best(results, func(r Result) float64 { return r.Max }))

	got, _ := pv.Float(params.ThermalResistance)
	assert.Equal(t, 3.0, got, "base parameters untouched")
}

func TestRunChannel(t *testing.T) {
	results, err := Run(context.Background(), physics.NewThermalDFN(), baseParams(t), Sweep{
		Parameter: params.CurrentFunction,
		Values:    []float64{1, 2},
		Channel:   physics.VarVoltage,
		TSpan:     []float64{0, 600},
		Options:   quiet(),
	})
	require.NoError(t, err)
	assert.Greater(t, results[0].Final, results[1].Final, "lower current holds a higher voltage")
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	model := physics.NewThermalDFN()

	_, err := Run(ctx, model, baseParams(t), Sweep{Parameter: params.ThermalResistance, Options: quiet()})
	assert.ErrorIs(t, err, ErrEmptySweep)

	_, err = Run(ctx, model, baseParams(t), Sweep{Parameter: "Fan speed", Values: []float64{1}, Options: quiet()})
	assert.ErrorIs(t, err, params.ErrUnknownParameter)

	_, err = Run(ctx, model, baseParams(t), Sweep{
		Parameter: params.ThermalCapacitance,
		Values:    []float64{60, -1},
		TSpan:     []float64{0, 60},
		Options:   quiet(),
	})
	assert.ErrorIs(t, err, params.ErrInvalidValue)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, physics.NewThermalDFN(), baseParams(t), Sweep{
		Parameter: params.ThermalResistance,
		Values:    []float64{2, 3},
		Options:   quiet(),
	})
	assert.Error(t, err)
}

func TestRunMonteCarloReproducible(t *testing.T) {
	mc := MonteCarlo{
		Parameters: []string{params.ThermalResistance, params.ThermalCapacitance},
		Spread:     0.2,
		Trials:     4,
		Seed:       42,
		TSpan:      []float64{0, 600},
		Options:    quiet(),
	}

	a, err := RunMonteCarlo(context.Background(), physics.NewThermalDFN(), baseParams(t), mc)
	require.NoError(t, err)
	b, err := RunMonteCarlo(context.Background(), physics.NewThermalDFN(), baseParams(t), mc)
	require.NoError(t, err)

	require.Len(t, a, 4)
	for i := range a {
		assert.Equal(t, i, a[i].ID)
		assert.Equal(t, a[i].Values, b[i].Values)
		assert.Equal(t, a[i].Max, b[i].Max)

		rc := a[i].Values[params.ThermalResistance]
		assert.GreaterOrEqual(t, rc, 3*0.8)
		assert.LessOrEqual(t, rc, 3*1.2)
	}
}

func TestRunMonteCarloErrors(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), physics.NewThermalDFN(), baseParams(t), MonteCarlo{Trials: 0})
	assert.ErrorIs(t, err, ErrEmptySweep)

	_, err = RunMonteCarlo(context.Background(), physics.NewThermalDFN(), baseParams(t), MonteCarlo{
		Parameters: []string{params.NegOCP},
		Trials:     1,
	})
	assert.ErrorIs(t, err, params.ErrWrongKind)

	_, err = RunMonteCarlo(context.Background(), physics.NewThermalDFN(), baseParams(t), MonteCarlo{
		Parameters: []string{params.ThermalResistance},
		Spread:     1.5,
		Trials:     1,
	})
	assert.ErrorIs(t, err, ErrInvalidSpread)
}

func TestRunMonteCarloSeedsDiffer(t *testing.T) {
	draw := func(seed int64) []Trial {
		trials, err := RunMonteCarlo(context.Background(), physics.NewThermalDFN(), baseParams(t), MonteCarlo{
			Parameters: []string{params.ThermalResistance},
			Spread:     0.1,
			Trials:     2,
			Seed:       seed,
			TSpan:      []float64{0, 60},
			Options:    quiet(),
		})
		require.NoError(t, err)
		return trials
	}

	a, b := draw(1), draw(2)
	assert.NotEqual(t, a[0].Values, b[0].Values)
	assert.NotEqual(t, a[0].Values, a[1].Values, "trials draw independently")
}
