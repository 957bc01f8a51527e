package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/params"
)

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	configFile, scenario = "", ""
	dataDir, logLevel = config.DefaultDataDir, config.DefaultLogLevel

	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&configFile, "config", "", "")
	cmd.Flags().StringVar(&scenario, "scenario", "", "")
	cmd.Flags().BoolVar(&save, "save", false, "")
	cmd.Flags().StringVar(&dataDir, "data", config.DefaultDataDir, "")
	cmd.Flags().StringVar(&logLevel, "log", config.DefaultLogLevel, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(testCommand(t))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadConfigOnlyChangedFlagsOverride(t *testing.T) {
	cfg, err := loadConfig(testCommand(t,
		"--scenario", "derated",
		"--time", "1800",
		"--set", params.ThermalResistance+"=4",
	))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1800}, cfg.TSpan)
	assert.Equal(t, 300.0, cfg.DerateAbove, "scenario value kept")
	assert.Equal(t, 4.0, cfg.Overrides[params.ThermalResistance])
	assert.Equal(t, 5.0, cfg.Overrides[params.CurrentFunction])
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(testCommand(t, "--scenario", "overnight"))
	assert.ErrorContains(t, err, "unknown scenario")

	_, err = loadConfig(testCommand(t, "--set", "R_c=warm"))
	assert.ErrorContains(t, err, "--set R_c")

	_, err = loadConfig(testCommand(t, "--solver", "verlet"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
