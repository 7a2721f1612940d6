// Package viz renders simulation results for the terminal and to files.
//
//   - [Chart]: asciigraph line chart of one signal
//   - [SparklineChart]: one-line colored summary of a signal
//   - [SavePlot]: PNG, SVG or PDF plot of several signals over time
//   - lipgloss styles shared by the CLI summaries
package viz
