package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/params"
	"github.com/san-kum/cellsim/internal/physics"
	"github.com/san-kum/cellsim/internal/simulation"
	"github.com/san-kum/cellsim/internal/storage"
	"github.com/san-kum/cellsim/internal/sweep"
	"github.com/san-kum/cellsim/internal/viz"
)

// loadConfig starts from the run file or scenario and applies only the
// flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case configFile != "" && scenario != "":
		return nil, errors.New("--config and --scenario cannot be combined")
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case scenario != "":
		cfg = config.GetScenario(scenario)
		if cfg == nil {
			return nil, fmt.Errorf("unknown scenario: %s (available: %v)", scenario, config.ListScenarios())
		}
	}

	f := cmd.Flags()
	if f.Changed("preset") {
		cfg.Preset = preset
		cfg.ParameterFile = ""
	}
	if f.Changed("params") {
		cfg.ParameterFile = paramFile
	}
	if f.Changed("set") {
		if cfg.Overrides == nil {
			cfg.Overrides = make(map[string]float64, len(overrides))
		}
		for name, raw := range overrides {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("--set %s: %w", name, err)
			}
			cfg.Overrides[name] = v
		}
	}
	if f.Changed("allow-new") {
		cfg.AllowNewParameters = allowNew
	}
	if f.Changed("time") {
		cfg.TSpan = []float64{cfg.TSpan[0], tFinal}
	}
	if f.Changed("points") {
		cfg.TEvalPoints = evalPoints
	}
	if f.Changed("solver") {
		cfg.Solver = solver
	}
	if f.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if f.Changed("max-step") {
		cfg.MaxStep = maxStep
	}
	if f.Changed("dt") {
		cfg.FixedStep = fixedStep
	}
	if f.Changed("derate") {
		cfg.DerateAbove = derate
	}
	if f.Changed("plot") {
		cfg.Plot = plotVars
	}
	if f.Changed("format") {
		cfg.PlotFormat = plotFormat
	}
	if f.Changed("out") {
		cfg.OutputDir = outputDir
	}
	if f.Changed("theme") {
		cfg.Theme = theme
	}
	if f.Lookup("save") != nil && f.Changed("save") {
		cfg.Save = save
	}

	if f.Changed("data") {
		cfg.DataDir = dataDir
	} else {
		dataDir = cfg.DataDir
	}
	if f.Changed("log") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)
	return cfg, nil
}

func newSimulation(cfg *config.Config) (*simulation.Simulation, error) {
	model, err := physics.ByName(cfg.Model)
	if err != nil {
		return nil, err
	}
	pv, err := cfg.Parameters()
	if err != nil {
		return nil, err
	}
	return simulation.New(model, pv, cfg.SimulationOptions(logrus.StandardLogger())...)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return solveAndPlot(cmd.Context(), cfg)
}

func solveAndPlot(ctx context.Context, cfg *config.Config) error {
	sim, err := newSimulation(cfg)
	if err != nil {
		return err
	}

	sol, err := sim.Solve(ctx, cfg.Times())
	if err != nil {
		return err
	}

	if err := sim.Plot(cfg.Plot, cfg.PlotOptions()...); err != nil {
		return err
	}

	fields := logrus.Fields{"termination": sol.Termination}
	for name, v := range sol.Metrics {
		fields[name] = v
	}
	logrus.WithFields(fields).Info("metrics")

	if !cfg.Save {
		return nil
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := sim.Save(st)
	if err != nil {
		return err
	}
	fmt.Printf("run saved: %s\n", id)
	return nil
}

func printParameters(cmd *cobra.Command, args []string) error {
	name := params.DefaultPreset
	if len(args) > 0 {
		name = args[0]
	}
	pv, err := params.FromPreset(name)
	if err != nil {
		return err
	}

	keys := pv.Keys()
	if search != "" {
		keys = pv.Search(search)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMETER\tVALUE")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, pv.Format(k))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("parameter presets:")
	for _, p := range params.Presets() {
		marker := ""
		if p == params.DefaultPreset {
			marker = " (default)"
		}
		fmt.Printf("  %s%s\n", p, marker)
	}
	fmt.Println("scenarios:")
	for _, s := range config.ListScenarios() {
		fmt.Printf("  %s\n", s)
	}
	fmt.Println("plot themes:")
	for _, t := range viz.ThemeNames() {
		fmt.Printf("  %s\n", t)
	}
	return nil
}

func listVariables(cmd *cobra.Command, args []string) error {
	for _, name := range physics.Names() {
		model, err := physics.ByName(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", name)
		for _, v := range model.Variables() {
			fmt.Printf("  %s\n", v)
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSPAN\tSOLVER\tSTEPS\tEND")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g-%gs\t%s\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TSpan[0], run.TSpan[1],
			run.Solver,
			run.Steps,
			run.Termination,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	table, err := st.LoadVariables(runID)
	if err != nil {
		return err
	}

	names := plotVars
	if len(names) == 0 {
		names = simulation.DefaultPlotVariables
	}
	x, ok := table.Data[physics.VarTimeS]
	if !ok {
		return fmt.Errorf("run %s has no %q column", runID, physics.VarTimeS)
	}

	series := make([]viz.Series, 0, len(names))
	for _, name := range names {
		y, ok := table.Data[name]
		if !ok {
			return fmt.Errorf("run %s has no %q column (stored: %s)", runID, name, strings.Join(meta.Variables, ", "))
		}
		series = append(series, viz.Series{Name: name, XLabel: physics.VarTimeS, X: x, Y: y})
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", meta.Points)

	opts := []viz.Option{viz.WithFormat(plotFormat), viz.WithOutputDir(outputDir)}
	if theme != "" {
		opts = append(opts, viz.WithTheme(theme))
	}
	p, err := viz.New(opts...)
	if err != nil {
		return err
	}
	return p.Plot(series)
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	table, err := st.LoadVariables(runID)
	if err != nil {
		return err
	}
	return storage.Export(os.Stdout, exportFormat, meta, table)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	model, err := physics.ByName(cfg.Model)
	if err != nil {
		return err
	}
	pv, err := cfg.Parameters()
	if err != nil {
		return err
	}
	opts := cfg.SimulationOptions(logrus.StandardLogger())
	channel := sweepChannel
	if channel == "" {
		channel = physics.VarTemperatureC
	}

	if len(mcParams) > 0 {
		trials, err := sweep.RunMonteCarlo(cmd.Context(), model, pv, sweep.MonteCarlo{
			Parameters: mcParams,
			Spread:     mcSpread,
			Trials:     mcTrials,
			Seed:       mcSeed,
			Channel:    channel,
			TSpan:      cfg.Times(),
			Workers:    sweepWorkers,
			Options:    opts,
		})
		if err != nil {
			return err
		}
		return printTrials(trials, channel)
	}

	if sweepParam == "" {
		return errors.New("--param or --mc is required")
	}
	results, err := sweep.Run(cmd.Context(), model, pv, sweep.Sweep{
		Parameter: sweepParam,
		Values:    sweep.Linspace(sweepFrom, sweepTo, sweepSteps),
		Channel:   channel,
		TSpan:     cfg.Times(),
		Workers:   sweepWorkers,
		Options:   opts,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s over %s\n\n", channel, sweepParam)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tMIN\tMAX\tFINAL\tEND [s]\tEVENT")
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%.4f\t%.0f\t%s\n", r.Value, r.Min, r.Max, r.Final, r.End, eventLabel(r.Event))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if i := sweep.Best(results, func(r sweep.Result) float64 { return r.Max }); i >= 0 {
		fmt.Printf("\nlowest peak: %s = %g (%.4f)\n", sweepParam, results[i].Value, results[i].Max)
	}
	return nil
}

func printTrials(trials []sweep.Trial, channel string) error {
	names := make([]string, 0, len(mcParams))
	names = append(names, mcParams...)
	sort.Strings(names)

	fmt.Printf("%s over %d trials\n\n", channel, len(trials))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TRIAL\t%s\tMAX\tFINAL\tEVENT\n", strings.Join(names, "\t"))
	peaks := make([]float64, len(trials))
	for i, tr := range trials {
		values := make([]string, len(names))
		for j, n := range names {
			values[j] = fmt.Sprintf("%.4g", tr.Values[n])
		}
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%s\n", tr.ID, strings.Join(values, "\t"), tr.Max, tr.Final, eventLabel(tr.Event))
		peaks[i] = tr.Max
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\npeak %s\n", viz.Sparkline(peaks, len(peaks)))
	return nil
}

func eventLabel(name string) string {
	if name == "" {
		return "-"
	}
	return name
}

func browseSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sim, err := newSimulation(cfg)
	if err != nil {
		return err
	}
	sol, err := sim.Solve(cmd.Context(), cfg.Times())
	if err != nil {
		return err
	}

	names := sol.Names()
	if cmd.Flags().Changed("plot") {
		names = cfg.Plot
	}
	series, err := simulation.Series(sol, names)
	if err != nil {
		return err
	}
	return viz.Browse(series, viz.WithTheme(cfg.Theme))
}
