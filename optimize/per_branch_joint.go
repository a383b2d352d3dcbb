package optimize

import (
	"fmt"

	"github.com/evolbioinfo/gorecomb/recomb"
)

// PerBranchJoint is the 4-parameter per-branch objective: branch
// length, recombination-to-mutation rate ratio, mean import tract
// length, and import divergence, all free for a single branch. Scored
// with the branch's Viterbi maximum joint likelihood.
type PerBranchJoint struct {
	Data
	NodeID     int
	AncestorID int
	Progress   *Progress

	IsImported []recomb.ImportationState
}

func (o *PerBranchJoint) Evaluate(x []float64) float64 {
	if len(x) != 4 {
		panic(fmt.Sprintf("optimize: PerBranchJoint.Evaluate: 4 parameters required, got %d", len(x)))
	}
	if o.Progress != nil {
		o.Progress.Tick()
	}

	b := pow10(x[0])
	r := pow10(x[1])
	l := pow10(x[2])
	delta := o.effectiveDivergence(b, pow10(x[3]))

	branch := o.branch(o.AncestorID, o.NodeID, recomb.Params{
		BranchLength:     b,
		RhoOverTheta:     r,
		MeanImportLength: l,
		ImportDivergence: delta,
	})
	ml, path, err := recomb.Viterbi(branch)
	if err != nil {
		panic(fmt.Sprintf("optimize: PerBranchJoint.Evaluate: %v", err))
	}
	o.IsImported = path
	return -ml.Log()
}
