// Package viz renders chemosim results: terminal plots and summaries, the
// sweep progress view, and publication figures written with gonum/plot.
package viz
