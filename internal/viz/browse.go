package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
)

// browser is the bubbletea model behind Browse.
type browser struct {
	series        []Series
	cursor        int
	width, height int
	styles        styles
}

func newBrowser(series []Series, theme Theme) browser {
	return browser{
		series: series,
		width:  80,
		height: 24,
		styles: stylesFor(theme),
	}
}

// Browse opens an interactive chart viewer. Left and right switch
// channels; q quits.
func Browse(series []Series, opts ...Option) error {
	if len(series) == 0 {
		return ErrNoData
	}
	for _, s := range series {
		if err := s.validate(); err != nil {
			return err
		}
	}

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	_, err := tea.NewProgram(newBrowser(series, o.Theme), tea.WithAltScreen()).Run()
	return err
}

func (m browser) Init() tea.Cmd { return nil }

func (m browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "tab", "down", "j":
			m.cursor = (m.cursor + 1) % len(m.series)
		case "left", "h", "shift+tab", "up", "k":
			m.cursor = (m.cursor - 1 + len(m.series)) % len(m.series)
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(m.series) - 1
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m browser) View() string {
	s := m.series[m.cursor]
	lo, hi, last := extent(s.Y)

	var b strings.Builder
	b.WriteString(m.styles.header.Render(fmt.Sprintf("%s  (%d/%d)", s.Name, m.cursor+1, len(m.series))))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n\n",
		m.styles.label.Render("min"), m.styles.value.Render(fmt.Sprintf("%.4g", lo)),
		m.styles.label.Render("max"), m.styles.value.Render(fmt.Sprintf("%.4g", hi)),
		m.styles.label.Render("final"), m.styles.value.Render(fmt.Sprintf("%.4g", last)),
	))

	chartW := max(m.width-12, 20)
	chartH := max(m.height-10, 5)
	b.WriteString(asciigraph.Plot(evenly(s, chartW),
		asciigraph.Height(chartH),
		asciigraph.Width(chartW),
		asciigraph.Caption(fmt.Sprintf("%s %.4g .. %.4g", s.XLabel, s.X[0], s.X[len(s.X)-1])),
	))
	b.WriteString("\n\n")

	for i, other := range m.series {
		name := other.Name
		if i == m.cursor {
			b.WriteString(m.styles.active.Render("▸ " + name))
		} else {
			b.WriteString(m.styles.muted.Render("  " + name))
		}
		b.WriteString("  " + m.styles.muted.Render(Sparkline(evenly(other, 16), 16)) + "\n")
	}

	b.WriteString("\n" + m.styles.hint.Render("←/→ switch channel • q quit"))
	return b.String()
}
