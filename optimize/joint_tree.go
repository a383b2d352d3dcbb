package optimize

import (
	"fmt"

	"github.com/evolbioinfo/gorecomb/recomb"
	"github.com/evolbioinfo/gorecomb/xfloat"
)

// JointTree is the whole-tree objective: R, L, delta shared across
// every branch, plus one free branch length per non-penultimate node.
// Scored as the product, in extended precision, of every branch's
// Viterbi maximum joint likelihood.
type JointTree struct {
	Data
	Progress *Progress

	IsImported [][]recomb.ImportationState
}

// numTreeParams returns 3 + (S-2), the parameter count JointTree expects.
func (d Data) numTreeParams() int {
	return 3 + d.Tree.Penultimate()
}

func (o *JointTree) Evaluate(x []float64) float64 {
	want := o.numTreeParams()
	if len(x) != want {
		panic(fmt.Sprintf("optimize: JointTree.Evaluate: %d parameters required, got %d", want, len(x)))
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
		b := pow10(x[3+i])
		delta := o.effectiveDivergence(b, deltaBase)
		node := o.Tree.Nodes[i]
		branch := o.branch(node.Ancestor, i, recomb.Params{
			BranchLength:     b,
			RhoOverTheta:     r,
			MeanImportLength: l,
			ImportDivergence: delta,
		})
		ml, path, err := recomb.Viterbi(branch)
		if err != nil {
			panic(fmt.Sprintf("optimize: JointTree.Evaluate: %v", err))
		}
		o.IsImported[i] = path
		total = total.Mul(ml)
	}
	return -total.Log()
}
