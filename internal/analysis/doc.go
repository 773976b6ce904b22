// Package analysis characterises the long-run behaviour of chemostat runs.
//
//   - [Classify]: limit point versus limit cycle from the final window of a run
//   - [Classifier]: sample handler that files sampled parameters by behaviour
//   - [BifurcationDiagram]: parameter sweep recording the attractor at each value
//   - [GeneratePhasePortrait]: 2D projection of a recorded trajectory
//
// # Classification
//
// A run whose every component varies by at most the tolerance over the last
// window of report points is taken to approach a limit point:
//
//	if analysis.Classify(traj.Matrix(), 100, 0.01) == analysis.LimitPoint {
//	    // stable coexistence
//	}
package analysis
