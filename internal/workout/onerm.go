package workout

import "math"

// Estimate1RM estimates the one-rep max for a set using the Epley formula,
// rounded to the nearest kilogram. A single rep is the lift itself, and sets
// without weight or reps estimate to zero.
func Estimate1RM(weight float64, reps int) float64 {
	if reps <= 0 || weight <= 0 {
		return 0
	}
	if reps == 1 {
		return weight
	}
	return math.Round(weight * (1 + float64(reps)/30))
}

// progressiveLoadStep is the weight increment suggested once every target in
// the most recent session was hit.
const progressiveLoadStep = 2.5
