package engine

import "github.com/evolbioinfo/gorecomb/recomb"

// Interval is a maximal run of consecutive Imported compatible-column
// positions, inclusive of both endpoints.
type Interval struct {
	Start, End int
}

// ImportedIntervals collapses a Viterbi-decoded importation path into
// its maximal Imported runs, the form write_importation_status_intervals
// emits alongside the per-column status a ResultWriter can also choose
// to write verbatim.
func ImportedIntervals(states []recomb.ImportationState) []Interval {
	var intervals []Interval
	start := -1
	for i, s := range states {
		if s == recomb.Imported {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			intervals = append(intervals, Interval{Start: start, End: i - 1})
			start = -1
		}
	}
	if start != -1 {
		intervals = append(intervals, Interval{Start: start, End: len(states) - 1})
	}
	return intervals
}
