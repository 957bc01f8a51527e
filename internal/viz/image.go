package viz

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"
)

// Image writes one line chart per series into a directory, as PNG or SVG.
type Image struct {
	dir               string
	ext               string
	widthIn, heightIn float64
}

func (p *Image) Plot(series []Series) error {
	for _, s := range series {
		if err := s.validate(); err != nil {
			return err
		}
		if err := p.save(s); err != nil {
			return err
		}
	}
	return nil
}

// Path is where a series is written.
func (p *Image) Path(name string) string {
	return filepath.Join(p.dir, FileName(name)+"."+p.ext)
}

func (p *Image) save(s Series) error {
	pl := plot.New()
	pl.Title.Text = s.Name
	pl.X.Label.Text = s.XLabel
	pl.Y.Label.Text = s.Name
	stylePlot(pl)

	pts := make(plotter.XYs, len(s.X))
	for i := range s.X {
		pts[i].X = s.X[i]
		pts[i].Y = s.Y[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(2)
	pl.Add(line)
	pl.Add(plotter.NewGrid())

	w := vg.Length(p.widthIn) * vg.Inch
	h := vg.Length(p.heightIn) * vg.Inch
	if p.ext == FormatSVG {
		return saveSVG(pl, w, h, p.Path(s.Name))
	}
	return savePNG(pl, w, h, p.Path(s.Name))
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.Title.Padding = vg.Points(10)

	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Padding = vg.Points(8)
	p.Y.Label.Padding = vg.Points(8)

	p.X.Tick.Label.Font.Size = vg.Points(12)
	p.Y.Tick.Label.Font.Size = vg.Points(12)
}

func savePNG(p *plot.Plot, w, h vg.Length, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func saveSVG(p *plot.Plot, w, h vg.Length, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgsvg.New(w, h)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create svg: %w", err)
	}
	defer f.Close()

	if _, err := c.WriteTo(f); err != nil {
		return fmt.Errorf("cannot write svg: %w", err)
	}
	return nil
}

// FileName turns a channel name into a file stem, e.g.
// "Temperature [°C]" -> "temperature_c".
func FileName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
