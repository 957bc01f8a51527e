package viz

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	FormatTerminal = "terminal"
	FormatPNG      = "png"
	FormatSVG      = "svg"
	FormatNone     = "none"
)

var (
	ErrUnknownFormat = errors.New("viz: unknown plot format")
	ErrNoData        = errors.New("viz: series has no points")
)

// Series is one channel against its abscissa.
type Series struct {
	Name   string
	XLabel string
	X      []float64
	Y      []float64
}

func (s Series) validate() error {
	if len(s.X) == 0 || len(s.X) != len(s.Y) {
		return fmt.Errorf("%w: %q (%d x, %d y)", ErrNoData, s.Name, len(s.X), len(s.Y))
	}
	return nil
}

// Plotter renders a set of series.
type Plotter interface {
	Plot(series []Series) error
}

type Options struct {
	Format string
	Out    io.Writer
	Dir    string
	Width  int
	Height int
	Theme  Theme
}

type Option func(*Options)

func WithFormat(format string) Option { return func(o *Options) { o.Format = format } }
func WithWriter(w io.Writer) Option   { return func(o *Options) { o.Out = w } }
func WithOutputDir(dir string) Option { return func(o *Options) { o.Dir = dir } }

// WithSize sets the chart size in terminal cells.
func WithSize(width, height int) Option {
	return func(o *Options) {
		o.Width = width
		o.Height = height
	}
}

func WithTheme(name string) Option { return func(o *Options) { o.Theme = GetTheme(name) } }

func DefaultOptions() Options {
	return Options{
		Format: FormatTerminal,
		Out:    os.Stdout,
		Dir:    ".",
		Width:  80,
		Height: 12,
		Theme:  CurrentTheme,
	}
}

// New returns the plotter for the configured format. The default is a
// terminal chart on stdout.
func New(opts ...Option) (Plotter, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	switch o.Format {
	case FormatTerminal, "":
		return &Terminal{out: o.Out, width: o.Width, height: o.Height, styles: stylesFor(o.Theme)}, nil
	case FormatPNG, FormatSVG:
		return &Image{dir: o.Dir, ext: o.Format, widthIn: 8, heightIn: 6}, nil
	case FormatNone:
		return discard{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, o.Format)
}

// Formats lists the accepted plot formats.
func Formats() []string {
	return []string{FormatNone, FormatPNG, FormatSVG, FormatTerminal}
}

type discard struct{}

func (discard) Plot(series []Series) error {
	for _, s := range series {
		if err := s.validate(); err != nil {
			return err
		}
	}
	return nil
}
