package optimize

import (
	"fmt"
	"os"

	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/recomb"
	"github.com/evolbioinfo/gorecomb/xfloat"
)

// ApproxBranchLength is the 3-parameter whole-tree objective (R, L,
// delta) in which every branch length is derived, not optimised, from
// a closed-form estimate based on the branch's observed mutation
// proportion adjusted for ancestral base composition. The
// excess-divergence flag has no effect here and is ignored with a
// one-time warning, matching the upstream tool's own documented
// limitation for this driver.
type ApproxBranchLength struct {
	Data
	Progress *Progress

	adjustedPmut []float64
	warned       bool

	IsImported [][]recomb.ImportationState
	BranchHat  []float64
}

// NewApproxBranchLength precomputes, for every non-penultimate branch,
// the observed mutation proportion normalised by the HKY85 expected
// substitution rate implied by the branch's ancestral base
// composition (computed over compatible columns, the only columns the
// ancestral reconstruction assigns a base to).
func NewApproxBranchLength(d Data) *ApproxBranchLength {
	branches := nonPenultimateBranches(d.Tree)
	o := &ApproxBranchLength{
		Data:         d,
		adjustedPmut: make([]float64, len(branches)),
		BranchHat:    make([]float64, len(branches)),
		IsImported:   make([][]recomb.ImportationState, len(branches)),
	}
	for _, i := range branches {
		node := d.Tree.Nodes[i]
		var n [4]float64
		nmut := 0.0
		for _, col := range d.Columns {
			from := d.NodeNuc[node.Ancestor][col.Pattern]
			to := d.NodeNuc[i][col.Pattern]
			if from == nucleotide.Ambiguous {
				continue
			}
			n[from]++
			if from != to {
				nmut++
			}
		}
		rate := hky85.ExpectedRate(n, d.Model.Kappa, d.Model.Pi)
		if rate == 0 {
			o.adjustedPmut[i] = 0
		} else {
			o.adjustedPmut[i] = nmut / (rate * (n[0] + n[1] + n[2] + n[3]))
		}
	}
	if d.ExcessDivergenceModel {
		fmt.Fprintln(os.Stderr, "WARNING: excess divergence model not available for the approximate branch-length driver, ignoring.")
	}
	return o
}

func (o *ApproxBranchLength) Evaluate(x []float64) float64 {
	if len(x) != 3 {
		panic(fmt.Sprintf("optimize: ApproxBranchLength.Evaluate: 3 parameters required, got %d", len(x)))
	}
	if o.Progress != nil {
		o.Progress.Tick()
	}

	r := pow10(x[0])
	l := pow10(x[1])
	delta := pow10(x[2])
	minBL := o.minBranchLength()

	branches := nonPenultimateBranches(o.Tree)
	total := xfloat.One()
	for _, i := range branches {
		node := o.Tree.Nodes[i]
		pmut := o.adjustedPmut[i]
		denom := 1/l + r*(delta-pmut)
		bHat := (pmut / l) / denom
		if !(bHat > minBL) {
			bHat = minBL
		}
		o.BranchHat[i] = bHat
		branch := o.branch(node.Ancestor, i, recomb.Params{
			BranchLength:     bHat,
			RhoOverTheta:     r,
			MeanImportLength: l,
			ImportDivergence: delta,
		})
		ml, path, err := recomb.Viterbi(branch)
		if err != nil {
			panic(fmt.Sprintf("optimize: ApproxBranchLength.Evaluate: %v", err))
		}
		o.IsImported[i] = path
		total = total.Mul(ml)
	}
	return -total.Log()
}
