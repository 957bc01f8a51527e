package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/storage"
)

var (
	dataDir  string
	logLevel string

	configFile string
	scenario   string
	preset     string
	paramFile  string
	overrides  map[string]string
	allowNew   bool
	tFinal     float64
	evalPoints int
	solver     string
	tolerance  float64
	maxStep    float64
	fixedStep  float64
	derate     float64
	plotVars   []string
	plotFormat string
	outputDir  string
	theme      string
	save       bool

	exportFormat string
	search       string

	sweepParam   string
	sweepFrom    float64
	sweepTo      float64
	sweepSteps   int
	sweepWorkers int
	sweepChannel string
	mcParams     []string
	mcSpread     float64
	mcTrials     int
	mcSeed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cellsim",
		Short: "lumped thermal lithium-ion cell simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "solve the model and plot the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "YAML run file")
	runCmd.Flags().StringVar(&scenario, "scenario", "", "named scenario (see presets)")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under --data")

	exampleCmd := &cobra.Command{
		Use:   "example",
		Short: "one hour at the preset current, cell temperature plot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return solveAndPlot(cmd.Context(), config.DefaultConfig())
		},
	}

	paramsCmd := &cobra.Command{
		Use:   "params [preset]",
		Short: "print the values of a parameter preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printParameters,
	}
	paramsCmd.Flags().StringVar(&search, "search", "", "only names containing this text")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list parameter presets, run scenarios and plot themes",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	variablesCmd := &cobra.Command{
		Use:   "variables",
		Short: "list the output channels of the model",
		Args:  cobra.NoArgs,
		RunE:  listVariables,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot channels of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotVars, "var", nil, "channels to plot (default voltage, current, temperature)")
	plotCmd.Flags().StringVar(&plotFormat, "format", "terminal", "terminal, png or svg")
	plotCmd.Flags().StringVar(&outputDir, "out", ".", "directory for image output")
	plotCmd.Flags().StringVar(&theme, "theme", "", "color theme")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "write a stored run to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", storage.FormatJSON, "json, csv or cbor")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve over a range of one parameter, or a Monte Carlo spread",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&configFile, "config", "", "YAML run file")
	sweepCmd.Flags().StringVar(&scenario, "scenario", "", "named scenario")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "concurrent solves (0 = one per CPU)")
	sweepCmd.Flags().StringVar(&sweepChannel, "channel", "", "channel to summarise (default temperature)")
	sweepCmd.Flags().StringSliceVar(&mcParams, "mc", nil, "parameters to perturb together instead of a sweep")
	sweepCmd.Flags().Float64Var(&mcSpread, "spread", 0.1, "relative Monte Carlo spread")
	sweepCmd.Flags().IntVar(&mcTrials, "trials", 20, "Monte Carlo trials")
	sweepCmd.Flags().Int64Var(&mcSeed, "seed", 0, "Monte Carlo seed (0 = time based)")

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "solve, then page through every channel interactively",
		Args:  cobra.NoArgs,
		RunE:  browseSimulation,
	}
	addRunFlags(browseCmd)
	browseCmd.Flags().StringVar(&configFile, "config", "", "YAML run file")
	browseCmd.Flags().StringVar(&scenario, "scenario", "", "named scenario")

	rootCmd.AddCommand(runCmd, exampleCmd, paramsCmd, presetsCmd, variablesCmd, listCmd, plotCmd, exportCmd, sweepCmd, browseCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}

// addRunFlags registers the flags that override a run file.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "parameter preset")
	f.StringVar(&paramFile, "params", "", "YAML parameter file instead of a preset")
	f.StringToStringVar(&overrides, "set", nil, "parameter overrides, name=value")
	f.BoolVar(&allowNew, "allow-new", false, "let --set add parameters the set does not have")
	f.Float64Var(&tFinal, "time", 0, "final time [s]")
	f.IntVar(&evalPoints, "points", 0, "evenly spaced output times")
	f.StringVar(&solver, "solver", "", "euler, rk4 or rk45")
	f.Float64Var(&tolerance, "tol", 0, "adaptive step tolerance")
	f.Float64Var(&maxStep, "max-step", 0, "largest step [s]")
	f.Float64Var(&fixedStep, "dt", 0, "fixed step [s], disables adaptivity")
	f.Float64Var(&derate, "derate", 0, "cut current above this temperature [K]")
	f.StringSliceVar(&plotVars, "plot", nil, "channels to plot")
	f.StringVar(&plotFormat, "format", "", "terminal, png, svg or none")
	f.StringVar(&outputDir, "out", "", "directory for image output")
	f.StringVar(&theme, "theme", "", "color theme")
}
