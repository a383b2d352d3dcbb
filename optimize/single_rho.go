package optimize

import (
	"fmt"
	"math"

	"github.com/evolbioinfo/gorecomb/recomb"
)

// SingleRho is the tree-wide, 3-parameter objective (R, L, delta)
// under the single-rho model: every branch shares the same R, L and
// delta, and each branch length is solved, not optimised, from a
// target expected-substitution count so that the expected divergence
// under the model matches the ancestral reconstruction's observed
// substitutions on that branch. The excess-divergence model is not
// supported here.
type SingleRho struct {
	Data
	UseViterbi             bool
	SubstitutionsPerBranch []float64
	Progress               *Progress

	IsImported [][]recomb.ImportationState
}

// NewSingleRho validates that the excess-divergence model is disabled,
// per the model-misuse error taxonomy.
func NewSingleRho(d Data, useViterbi bool, substitutionsPerBranch []float64, progress *Progress) *SingleRho {
	if d.ExcessDivergenceModel {
		panic("optimize: SingleRho does not support ExcessDivergenceModel=true")
	}
	return &SingleRho{Data: d, UseViterbi: useViterbi, SubstitutionsPerBranch: substitutionsPerBranch, Progress: progress}
}

// branchLength solves b from the expected-substitutions constraint:
// b = s / (1 + R*L*(delta - s)), falling back to b = s whenever s >=
// delta or the denominator would be non-positive, then clamping to
// the minimum branch length and guarding NaN.
func (o *SingleRho) branchLength(s, r, l, delta float64) float64 {
	b := s / (1.0 + r*l*(delta-s))
	if s >= delta {
		b = s
	}
	minBL := o.minBranchLength()
	if math.IsNaN(b) || b < minBL {
		b = minBL
	}
	return b
}

func (o *SingleRho) Evaluate(x []float64) float64 {
	if len(x) != 3 {
		panic(fmt.Sprintf("optimize: SingleRho.Evaluate: 3 parameters required, got %d", len(x)))
	}
	if o.Progress != nil {
		o.Progress.Tick()
	}

	r := pow10(x[0])
	l := pow10(x[1])
	delta := pow10(x[2])

	branches := nonPenultimateBranches(o.Tree)
	if o.IsImported == nil {
		o.IsImported = make([][]recomb.ImportationState, len(branches))
	}

	total := 0.0
	for _, i := range branches {
		node := o.Tree.Nodes[i]
		b := o.branchLength(o.SubstitutionsPerBranch[i], r, l, delta)
		branch := o.branch(node.Ancestor, i, recomb.Params{
			BranchLength:     b,
			RhoOverTheta:     r,
			MeanImportLength: l,
			ImportDivergence: delta,
		})
		if o.UseViterbi {
			ml, path, err := recomb.Viterbi(branch)
			if err != nil {
				panic(fmt.Sprintf("optimize: SingleRho.Evaluate: %v", err))
			}
			o.IsImported[i] = path
			total += ml.Log()
		} else {
			logL, err := recomb.Forward(branch)
			if err != nil {
				panic(fmt.Sprintf("optimize: SingleRho.Evaluate: %v", err))
			}
			total += logL
		}
	}
	return -total
}
