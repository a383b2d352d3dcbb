package optimize

import (
	"fmt"

	"github.com/evolbioinfo/gorecomb/recomb"
)

// RescaleBranch is the single-parameter, post-hoc branch-length
// objective: no recombination model at all, just the ordinary
// Felsenstein branch likelihood under HKY85 at a free branch length,
// used to re-estimate branch lengths once importation has been
// decided elsewhere.
type RescaleBranch struct {
	Data
	NodeID     int
	AncestorID int
	Progress   *Progress
}

func (o *RescaleBranch) Evaluate(x []float64) float64 {
	if len(x) != 1 {
		panic(fmt.Sprintf("optimize: RescaleBranch.Evaluate: 1 parameter required, got %d", len(x)))
	}
	if o.Progress != nil {
		o.Progress.Tick()
	}

	branchLength := pow10(x[0])
	minBL := o.minBranchLength()
	if branchLength < minBL {
		branchLength = minBL
	}

	ml := recomb.PlainBranchLikelihood(o.Model, o.NodeNuc, o.AncestorID, o.NodeID, o.Table, branchLength)
	return -ml.Log()
}
