package optimize

import (
	"fmt"

	"github.com/evolbioinfo/gorecomb/recomb"
	"github.com/evolbioinfo/gorecomb/xfloat"
)

// FixedBranch is the 3-parameter whole-tree objective (R, L, delta)
// with every branch length held fixed at the tree's own edge times,
// rather than optimised.
type FixedBranch struct {
	Data
	Progress *Progress

	IsImported [][]recomb.ImportationState
}

func (o *FixedBranch) Evaluate(x []float64) float64 {
	if len(x) != 3 {
		panic(fmt.Sprintf("optimize: FixedBranch.Evaluate: 3 parameters required, got %d", len(x)))
	}
	if o.Progress != nil {
		o.Progress.Tick()
	}

	r := pow10(x[0])
	l := pow10(x[1])
	deltaBase := pow10(x[2])

	branches := nonPenultimateBranches(o.Tree)
	if o.IsImported == nil {
		o.IsImported = make([][]recomb.ImportationState, len(branches))
	}

	total := xfloat.One()
	for _, i := range branches {
		node := o.Tree.Nodes[i]
		b := node.EdgeTime
		delta := o.effectiveDivergence(b, deltaBase)
		branch := o.branch(node.Ancestor, i, recomb.Params{
			BranchLength:     b,
			RhoOverTheta:     r,
			MeanImportLength: l,
			ImportDivergence: delta,
		})
		ml, path, err := recomb.Viterbi(branch)
		if err != nil {
			panic(fmt.Sprintf("optimize: FixedBranch.Evaluate: %v", err))
		}
		o.IsImported[i] = path
		total = total.Mul(ml)
	}
	return -total.Log()
}
