// Package viz renders solved channels.
//
// A [Plotter] draws a slice of [Series]:
//
//   - [Terminal]: asciigraph charts with lipgloss headers (the default)
//   - [PNG]: gonum/plot line charts, one file per channel
//
// [Browse] opens a Bubble Tea viewer that cycles through channels.
//
// # Key Bindings
//
//	←/→ - Previous/next channel
//	g/G - First/last channel
//	q   - Quit
package viz
