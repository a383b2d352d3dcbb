package optimize

import (
	"fmt"

	"github.com/evolbioinfo/gorecomb/recomb"
)

// PerBranchRho is the per-branch objective parameterised directly by
// an import ratio rather than a mean tract length: R, a logistic
// import ratio, delta, and optionally a free branch length. When the
// branch length is not free (3 parameters), it is instead constrained
// so the expected number of substitutions matches crudeBranchLength,
// an external prior estimate of the branch's divergence. The
// excess-divergence model is mandatory: delta_eff is always
// branch_length*(2+delta). Scored with the branch's forward marginal
// log-likelihood, not Viterbi.
type PerBranchRho struct {
	Data
	NodeID            int
	AncestorID        int
	CrudeBranchLength float64
	Progress          *Progress
}

// NewPerBranchRho validates the mandatory excess-divergence
// requirement before any evaluation, per the model-misuse error
// taxonomy.
func NewPerBranchRho(d Data, nodeID, ancestorID int, crudeBranchLength float64, progress *Progress) *PerBranchRho {
	if !d.ExcessDivergenceModel {
		panic("optimize: PerBranchRho requires ExcessDivergenceModel=true")
	}
	return &PerBranchRho{Data: d, NodeID: nodeID, AncestorID: ancestorID, CrudeBranchLength: crudeBranchLength, Progress: progress}
}

func (o *PerBranchRho) Evaluate(x []float64) float64 {
	if len(x) != 3 && len(x) != 4 {
		panic(fmt.Sprintf("optimize: PerBranchRho.Evaluate: 3 or 4 parameters required, got %d", len(x)))
	}
	if o.Progress != nil {
		o.Progress.Tick()
	}

	r := pow10(x[0])
	importRatio := 1.0 / (1.0 + pow10(-x[1]))
	delta := pow10(x[2])

	var branchLength float64
	if len(x) == 3 {
		branchLength = o.CrudeBranchLength / (1.0 + importRatio/(1.0+importRatio)*(2.0+delta))
	} else {
		branchLength = pow10(x[3])
	}
	minBL := o.minBranchLength()
	if branchLength < minBL {
		branchLength = minBL
	}

	meanImportLength := importRatio / branchLength / r
	deltaEff := branchLength * (2.0 + delta)

	branch := o.branch(o.AncestorID, o.NodeID, recomb.Params{
		BranchLength:     branchLength,
		RhoOverTheta:     r,
		MeanImportLength: meanImportLength,
		ImportDivergence: deltaEff,
	})
	logL, err := recomb.Forward(branch)
	if err != nil {
		panic(fmt.Sprintf("optimize: PerBranchRho.Evaluate: %v", err))
	}
	return -logL
}
