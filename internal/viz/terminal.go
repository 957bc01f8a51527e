package viz

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/interp"
)

// Terminal writes one ASCII chart per series.
type Terminal struct {
	out           io.Writer
	width, height int
	styles        styles
}

func (t *Terminal) Plot(series []Series) error {
	for _, s := range series {
		if err := s.validate(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(t.out, t.render(s)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Terminal) render(s Series) string {
	lo, hi, last := extent(s.Y)
	header := t.styles.header.Render(s.Name)
	stats := fmt.Sprintf("%s %s  %s %s  %s %s",
		t.styles.label.Render("min"), t.styles.value.Render(fmt.Sprintf("%.4g", lo)),
		t.styles.label.Render("max"), t.styles.value.Render(fmt.Sprintf("%.4g", hi)),
		t.styles.label.Render("final"), t.styles.value.Render(fmt.Sprintf("%.4g", last)),
	)

	graph := asciigraph.Plot(evenly(s, t.width),
		asciigraph.Height(t.height),
		asciigraph.Width(t.width),
		asciigraph.Caption(fmt.Sprintf("%s %.4g .. %.4g", s.XLabel, s.X[0], s.X[len(s.X)-1])),
	)

	return header + "\n" + stats + "\n\n" + graph + "\n"
}

// evenly resamples s onto n equally spaced abscissae, so chart columns are
// proportional to X rather than to the sample index.
func evenly(s Series, n int) []float64 {
	if len(s.X) < 2 || n < 2 {
		return s.Y
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(s.X, s.Y); err != nil {
		return s.Y
	}
	lo, hi := s.X[0], s.X[len(s.X)-1]
	out := make([]float64, n)
	for i := range out {
		out[i] = pl.Predict(lo + (hi-lo)*float64(i)/float64(n-1))
	}
	return out
}

func extent(values []float64) (lo, hi, last float64) {
	lo, hi = values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, values[len(values)-1]
}
