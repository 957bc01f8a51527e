package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cellsim/internal/integrators"
	"github.com/san-kum/cellsim/internal/params"
	"github.com/san-kum/cellsim/internal/physics"
	"github.com/san-kum/cellsim/internal/simulation"
	"github.com/san-kum/cellsim/internal/viz"
)

const (
	DefaultTFinal   = 3600.0
	DefaultDataDir  = ".cellsim"
	DefaultLogLevel = "info"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config describes one run: which model, which parameters, how to solve
// and what to plot.
type Config struct {
	Model              string             `yaml:"model"`
	Preset             string             `yaml:"preset"`
	ParameterFile      string             `yaml:"parameter_file,omitempty"`
	Overrides          map[string]float64 `yaml:"overrides,omitempty"`
	AllowNewParameters bool               `yaml:"allow_new_parameters"`

	TSpan       []float64 `yaml:"t_span"`
	TEvalPoints int       `yaml:"t_eval_points,omitempty"`
	Solver      string    `yaml:"solver"`
	Tolerance   float64   `yaml:"tolerance"`
	MaxStep     float64   `yaml:"max_step"`
	FixedStep   float64   `yaml:"fixed_step,omitempty"`
	DerateAbove float64   `yaml:"derate_above,omitempty"`

	Plot       []string `yaml:"plot"`
	PlotFormat string   `yaml:"plot_format"`
	OutputDir  string   `yaml:"output_dir"`
	Theme      string   `yaml:"theme,omitempty"`

	Save     bool   `yaml:"save"`
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig is the thermal example: default parameters, one hour,
// cell temperature in the terminal.
func DefaultConfig() *Config {
	return &Config{
		Model:      physics.ThermalDFNName,
		Preset:     params.DefaultPreset,
		TSpan:      []float64{0, DefaultTFinal},
		Solver:     simulation.DefaultSolver,
		Tolerance:  simulation.DefaultTolerance,
		MaxStep:    simulation.DefaultMaxStep,
		Plot:       []string{physics.VarTemperatureC},
		PlotFormat: viz.FormatTerminal,
		OutputDir:  ".",
		DataDir:    DefaultDataDir,
		LogLevel:   DefaultLogLevel,
	}
}

// Load reads a YAML run file over the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that can be checked without solving.
func (c *Config) Validate() error {
	if _, err := physics.ByName(c.Model); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.ParameterFile == "" && !slices.Contains(params.Presets(), c.Preset) {
		return fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalidConfig, c.Preset, params.Presets())
	}
	if !slices.Contains(integrators.Names(), c.Solver) {
		return fmt.Errorf("%w: unknown solver %q (available: %v)", ErrInvalidConfig, c.Solver, integrators.Names())
	}
	if len(c.TSpan) < 2 {
		return fmt.Errorf("%w: t_span must be [t0, tf] with tf > t0, got %v", ErrInvalidConfig, c.TSpan)
	}
	for i := 1; i < len(c.TSpan); i++ {
		if c.TSpan[i] <= c.TSpan[i-1] {
			return fmt.Errorf("%w: t_span must be strictly increasing, got %v", ErrInvalidConfig, c.TSpan)
		}
	}
	if c.TEvalPoints == 1 || c.TEvalPoints < 0 {
		return fmt.Errorf("%w: t_eval_points must be 0 or at least 2, got %d", ErrInvalidConfig, c.TEvalPoints)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive", ErrInvalidConfig)
	}
	if c.MaxStep <= 0 {
		return fmt.Errorf("%w: max_step must be positive", ErrInvalidConfig)
	}
	if !slices.Contains(viz.Formats(), c.PlotFormat) {
		return fmt.Errorf("%w: unknown plot_format %q (available: %v)", ErrInvalidConfig, c.PlotFormat, viz.Formats())
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Parameters builds the parameter set: the preset or parameter file, then
// the overrides. Overrides must name existing parameters unless
// allow_new_parameters is set.
func (c *Config) Parameters() (*params.ParameterValues, error) {
	var (
		pv  *params.ParameterValues
		err error
	)
	if c.ParameterFile != "" {
		pv, err = params.Load(c.ParameterFile)
	} else {
		pv, err = params.FromPreset(c.Preset)
	}
	if err != nil {
		return nil, err
	}

	if len(c.Overrides) > 0 {
		overrides := make(map[string]any, len(c.Overrides))
		for k, v := range c.Overrides {
			overrides[k] = v
		}
		if err := pv.Update(overrides, !c.AllowNewParameters); err != nil {
			return nil, err
		}
	}
	return pv, nil
}

// Times is the span passed to Solve: t_span as written, or with
// t_eval_points that many evenly spaced output times over it.
func (c *Config) Times() []float64 {
	if c.TEvalPoints < 2 {
		return append([]float64(nil), c.TSpan...)
	}
	t0, tf := c.TSpan[0], c.TSpan[len(c.TSpan)-1]
	out := make([]float64, c.TEvalPoints)
	step := (tf - t0) / float64(c.TEvalPoints-1)
	for i := range out {
		out[i] = t0 + float64(i)*step
	}
	out[len(out)-1] = tf
	return out
}

func (c *Config) SimulationOptions(log logrus.FieldLogger) []simulation.Option {
	opts := []simulation.Option{
		simulation.WithSolver(c.Solver),
		simulation.WithTolerance(c.Tolerance),
		simulation.WithMaxStep(c.MaxStep),
		simulation.WithLogger(log),
	}
	if c.FixedStep > 0 {
		opts = append(opts, simulation.WithFixedStep(c.FixedStep))
	}
	if c.DerateAbove > 0 {
		opts = append(opts, simulation.WithDerating(c.DerateAbove))
	}
	return opts
}

func (c *Config) PlotOptions() []viz.Option {
	opts := []viz.Option{
		viz.WithFormat(c.PlotFormat),
		viz.WithOutputDir(c.OutputDir),
	}
	if c.Theme != "" {
		opts = append(opts, viz.WithTheme(c.Theme))
	}
	return opts
}
