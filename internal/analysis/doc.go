// Package analysis characterizes recorded responses.
//
//   - [StepInfo]: rise time, overshoot and settling time of a step response
//   - [NewPhasePortrait]: two recorded signals plotted against each other
//
// Both work on plain series so they apply equally to fresh simulation
// results and to runs loaded from storage:
//
//	info, err := analysis.StepInfo(res.Times, res.Output(0))
//	if err == nil && info.Overshoot > 10 {
//	    // underdamped
//	}
package analysis
