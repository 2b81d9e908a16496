// Package scoring folds per-module correspondence results into a single
// pass/fail verdict.
package scoring

import (
	"shimsync/internal/correspond"
)

// DefaultThreshold is the percentage of expected items an adapter must
// cover before a verification run passes.
const DefaultThreshold = 97.0

// Report is the aggregate across every checked module. Found and Total
// are plain sums, so the outcome does not depend on how the results
// were ordered or batched.
type Report struct {
	Found      int
	Total      int
	Percentage float64
	Threshold  float64
	Passed     bool
}

// Aggregate sums found and total counts over all results and applies
// the threshold, inclusively. An empty aggregate scores zero percent
// rather than dividing by zero.
func Aggregate(results []correspond.Result, threshold float64) Report {
	r := Report{Threshold: threshold}
	for _, res := range results {
		r.Found += res.Found
		r.Total += res.Total
	}
	if r.Total > 0 {
		r.Percentage = float64(r.Found) / float64(r.Total) * 100
	}
	r.Passed = r.Percentage >= threshold
	return r
}
