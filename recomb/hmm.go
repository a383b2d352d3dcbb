/*
Package recomb implements the per-branch recombination hidden Markov
model: for a fixed branch (ancestor, descendant) and fixed parameters,
the two-state Unimported/Imported chain over compatible-column
positions, its forward marginal likelihood, and its Viterbi decoding.
*/
package recomb

import (
	"fmt"
	"math"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/xfloat"
)

// ImportationState is the hidden state of the per-branch HMM at one
// compatible column.
type ImportationState int

const (
	Unimported ImportationState = iota
	Imported
)

func (s ImportationState) String() string {
	if s == Imported {
		return "Imported"
	}
	return "Unimported"
}

// MinDivergence is the numerical floor below which a branch length or
// effective import divergence is clamped upward, to keep the HKY85
// transition matrices well-conditioned.
const MinDivergence = 1e-7

// Params holds the per-branch parameters the HMM is evaluated under.
// ImportDivergence is the already-resolved effective import divergence
// δ_eff: whether that equals δ or b+δ depends on the excess-divergence
// flag, and resolving it is the caller's responsibility, since the
// formula differs across the optimiser's driver variants.
type Params struct {
	BranchLength     float64
	RhoOverTheta     float64
	MeanImportLength float64
	ImportDivergence float64
}

// clamp raises BranchLength and ImportDivergence to MinDivergence when
// below it.
func (p Params) clamp() Params {
	if p.BranchLength < MinDivergence {
		p.BranchLength = MinDivergence
	}
	if p.ImportDivergence < MinDivergence {
		p.ImportDivergence = MinDivergence
	}
	return p
}

func (p Params) validate() error {
	if p.MeanImportLength <= 1 {
		return fmt.Errorf("recomb: mean import length must be > 1, got %v", p.MeanImportLength)
	}
	return nil
}

// priors returns (p_U, p_I), the stationary distribution implied by R
// and L.
func (p Params) priors() (pU, pI float64) {
	pI = (p.RhoOverTheta * p.MeanImportLength) / (1 + p.RhoOverTheta*p.MeanImportLength)
	return 1 - pI, pI
}

// transition is the 2x2 transition matrix over states {U, I} for a gap
// of n = 1+g adjacent steps, expressed via the chain's spectral form:
// the stationary distribution plus a decaying term in the second
// eigenvalue lambda.
type transition struct {
	uu, ui, iu, ii float64
}

func (p Params) transitionPow(n int) transition {
	pU, pI := p.priors()
	lambda := 1 - 1/p.MeanImportLength - (1/p.MeanImportLength)*(pI/pU)
	ln := math.Pow(lambda, float64(n))
	return transition{
		uu: pU + pI*ln,
		ui: pI * (1 - ln),
		iu: pU * (1 - ln),
		ii: pI + pU*ln,
	}
}

// Branch bundles everything the HMM needs about one tree branch: the
// reconstructed nucleotide at every node for every pattern, the
// ordered sequence of compatible columns, and the substitution model.
type Branch struct {
	Model      hky85.Model
	Columns    []align.CompatibleColumn
	NodeNuc    [][]nucleotide.Nucleotide
	AncestorID int
	Descendant int
	Params     Params
}

// emissions precomputes, for every pattern, the U and I emission
// probabilities in extended precision, keyed by pattern index.
func (b Branch) emissions() ([]xfloat.Scalar, []xfloat.Scalar, error) {
	p := b.Params.clamp()
	ptransB := b.Model.PtransX(p.BranchLength)
	ptransDelta := b.Model.PtransX(p.ImportDivergence)
	pi := b.Model.Pi

	numPatterns := len(b.NodeNuc[b.AncestorID])
	eU := make([]xfloat.Scalar, numPatterns)
	eI := make([]xfloat.Scalar, numPatterns)
	for pat := 0; pat < numPatterns; pat++ {
		x := b.NodeNuc[b.AncestorID][pat]
		y := b.NodeNuc[b.Descendant][pat]
		eU[pat] = marginalizeAmbiguous(x, y, pi, func(xv, yv nucleotide.Nucleotide) xfloat.Scalar {
			return ptransB[xv][yv]
		})
		eI[pat] = marginalizeAmbiguous(x, y, pi, func(xv, yv nucleotide.Nucleotide) xfloat.Scalar {
			inner := xfloat.Zero()
			for z := 0; z < 4; z++ {
				inner = inner.Add(ptransB[xv][z].MulFloat64(pi[z]).Mul(ptransDelta[z][yv]))
			}
			return inner
		})
	}
	return eU, eI, nil
}

// marginalizeAmbiguous evaluates f(x, y), summing over every certain
// state weighted by its stationary frequency whenever x or y is
// Ambiguous. For compatible columns this is a defensive generality:
// the compatibility filter already excludes any column carrying an
// ambiguous tip call, and ancestral reconstruction never assigns
// Ambiguous to an internal node.
func marginalizeAmbiguous(x, y nucleotide.Nucleotide, pi nucleotide.Frequencies, f func(x, y nucleotide.Nucleotide) xfloat.Scalar) xfloat.Scalar {
	xs, xw := certainStates(x, pi)
	ys, yw := certainStates(y, pi)
	sum := xfloat.Zero()
	for i, xv := range xs {
		for j, yv := range ys {
			sum = sum.Add(f(xv, yv).MulFloat64(xw[i] * yw[j]))
		}
	}
	return sum
}

func certainStates(n nucleotide.Nucleotide, pi nucleotide.Frequencies) ([]nucleotide.Nucleotide, []float64) {
	if n != nucleotide.Ambiguous {
		return []nucleotide.Nucleotide{n}, []float64{1}
	}
	states := make([]nucleotide.Nucleotide, 4)
	weights := make([]float64, 4)
	for i := 0; i < 4; i++ {
		states[i] = nucleotide.Nucleotide(i)
		weights[i] = pi[i]
	}
	return states, weights
}

// Forward returns the natural log of the marginal likelihood of the
// observed ancestor/descendant base pairs along the branch's
// compatible columns, summing over the hidden importation path.
func Forward(b Branch) (float64, error) {
	if err := b.Params.validate(); err != nil {
		return 0, err
	}
	if len(b.Columns) == 0 {
		return xfloat.One().Log(), nil
	}
	eU, eI, err := b.emissions()
	if err != nil {
		return 0, err
	}

	pU, pI := b.Params.priors()
	alphaU := xfloat.From(pU).Mul(eU[b.Columns[0].Pattern])
	alphaI := xfloat.From(pI).Mul(eI[b.Columns[0].Pattern])

	for k := 1; k < len(b.Columns); k++ {
		col := b.Columns[k]
		t := b.Params.transitionPow(1 + col.GapBefore)
		nextU := alphaU.MulFloat64(t.uu).Add(alphaI.MulFloat64(t.iu)).Mul(eU[col.Pattern])
		nextI := alphaU.MulFloat64(t.ui).Add(alphaI.MulFloat64(t.ii)).Mul(eI[col.Pattern])
		alphaU, alphaI = nextU, nextI
	}
	total := alphaU.Add(alphaI)
	return total.Log(), nil
}

// Viterbi returns the extended-precision maximum joint likelihood over
// hidden paths and the corresponding decoded importation state at
// every compatible column (not every pattern: a pattern reused by
// several columns is decoded independently at each occurrence, since
// its context of neighbouring columns differs).
func Viterbi(b Branch) (xfloat.Scalar, []ImportationState, error) {
	if err := b.Params.validate(); err != nil {
		return xfloat.Scalar{}, nil, err
	}
	if len(b.Columns) == 0 {
		return xfloat.One(), nil, nil
	}
	eU, eI, err := b.emissions()
	if err != nil {
		return xfloat.Scalar{}, nil, err
	}

	M := len(b.Columns)
	deltaU := make([]xfloat.Scalar, M)
	deltaI := make([]xfloat.Scalar, M)
	backU := make([]ImportationState, M)
	backI := make([]ImportationState, M)

	pU, pI := b.Params.priors()
	deltaU[0] = xfloat.From(pU).Mul(eU[b.Columns[0].Pattern])
	deltaI[0] = xfloat.From(pI).Mul(eI[b.Columns[0].Pattern])

	for k := 1; k < M; k++ {
		col := b.Columns[k]
		t := b.Params.transitionPow(1 + col.GapBefore)

		fromUtoU := deltaU[k-1].MulFloat64(t.uu)
		fromItoU := deltaI[k-1].MulFloat64(t.iu)
		bestToU, viaU := fromUtoU, Unimported
		if fromItoU.Greater(fromUtoU) {
			bestToU, viaU = fromItoU, Imported
		}
		deltaU[k] = bestToU.Mul(eU[col.Pattern])
		backU[k] = viaU

		fromUtoI := deltaU[k-1].MulFloat64(t.ui)
		fromItoI := deltaI[k-1].MulFloat64(t.ii)
		bestToI, viaI := fromUtoI, Unimported
		if fromItoI.Greater(fromUtoI) {
			bestToI, viaI = fromItoI, Imported
		}
		deltaI[k] = bestToI.Mul(eI[col.Pattern])
		backI[k] = viaI
	}

	path := make([]ImportationState, M)
	final := Unimported
	if deltaI[M-1].Greater(deltaU[M-1]) {
		final = Imported
	}
	path[M-1] = final
	ml := deltaU[M-1]
	if final == Imported {
		ml = deltaI[M-1]
	}

	for k := M - 1; k > 0; k-- {
		if path[k] == Unimported {
			path[k-1] = backU[k]
		} else {
			path[k-1] = backI[k]
		}
	}

	return ml, path, nil
}
