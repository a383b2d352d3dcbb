/*
Package hky85 implements the HKY85 time-reversible nucleotide
substitution model: the closed-form transition probability matrix
P(t), its extended-precision twin used inside the per-branch HMM, a
derivative dP/dt, and the expected substitution rate helper used by
the approximate branch-length estimator.
*/
package hky85

import (
	"math"

	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/xfloat"
)

// Model bundles the two parameters of HKY85: the equilibrium base
// frequencies and the transition/transversion rate ratio.
type Model struct {
	Pi    nucleotide.Frequencies
	Kappa float64
}

// beta is the rate-matrix scaling factor that normalises the expected
// substitution rate to 1 per unit time at stationarity.
func (m Model) beta() float64 {
	piR := m.Pi.PurineSum()
	piY := m.Pi.PyrimidineSum()
	piA, piG, piC, piT := m.Pi[nucleotide.Adenine], m.Pi[nucleotide.Guanine], m.Pi[nucleotide.Cytosine], m.Pi[nucleotide.Thymine]
	denom := 2*(piA*piG+piC*piT)*m.Kappa + 2*piR*piY
	if denom == 0 {
		return 1
	}
	return 1 / denom
}

// isPurine reports whether a nucleotide is A or G.
func isPurine(n nucleotide.Nucleotide) bool {
	return n == nucleotide.Adenine || n == nucleotide.Guanine
}

// group sum returns pi_R for purines, pi_Y for pyrimidines.
func (m Model) groupSum(n nucleotide.Nucleotide) float64 {
	if isPurine(n) {
		return m.Pi.PurineSum()
	}
	return m.Pi.PyrimidineSum()
}

// Ptrans returns the HKY85 transition probability matrix P(t) in
// standard float64 precision. Row i, column j is Prob(j | i, t).
// Satisfies P(0) = I and, as t -> infinity, every row converges to pi.
func (m Model) Ptrans(t float64) [4][4]float64 {
	var p [4][4]float64
	if t < 0 {
		t = 0
	}
	beta := m.beta()
	piR := m.Pi.PurineSum()
	piY := m.Pi.PyrimidineSum()
	e1 := math.Exp(-beta * t)
	e2R := math.Exp(-(piR*m.Kappa + piY) * beta * t)
	e2Y := math.Exp(-(piY*m.Kappa + piR) * beta * t)

	for i := 0; i < 4; i++ {
		from := nucleotide.Nucleotide(i)
		fromGroupSum := m.groupSum(from)
		for j := 0; j < 4; j++ {
			to := nucleotide.Nucleotide(j)
			piTo := m.Pi[to]
			var e2 float64
			sameGroup := isPurine(from) == isPurine(to)
			if isPurine(from) {
				e2 = e2R
			} else {
				e2 = e2Y
			}
			switch {
			case i == j:
				p[i][j] = piTo + piTo*(1/fromGroupSum-1)*e1 + (fromGroupSum-piTo)/fromGroupSum*e2
			case sameGroup:
				p[i][j] = piTo + piTo*(1/fromGroupSum-1)*e1 - piTo/fromGroupSum*e2
			default:
				p[i][j] = piTo * (1 - e1)
			}
		}
	}
	return p
}

// PtransX returns the HKY85 transition matrix in extended precision,
// used inside the per-branch HMM so that products across thousands of
// compatible columns never underflow a plain float64.
func (m Model) PtransX(t float64) [4][4]xfloat.Scalar {
	p := m.Ptrans(t)
	var px [4][4]xfloat.Scalar
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			px[i][j] = xfloat.From(p[i][j])
		}
	}
	return px
}

// DPtrans returns dP/dt at time t, provided for future use by
// gradient-aware optimisers; it is not required for correctness of
// the likelihood calculations in this package.
func (m Model) DPtrans(t float64) [4][4]float64 {
	const h = 1e-6
	p1 := m.Ptrans(t + h)
	p0 := m.Ptrans(math.Max(0, t-h))
	var d [4][4]float64
	denom := 2 * h
	if t < h {
		p0 = m.Ptrans(t)
		denom = h
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d[i][j] = (p1[i][j] - p0[i][j]) / denom
		}
	}
	return d
}

// ExpectedRate returns the per-site expected substitution rate implied
// by an observed ancestral base composition n (counts indexed by
// Nucleotide), under this model's kappa and pi. It is used to
// normalise the approximate branch-length estimator: the raw mutation
// proportion is divided by this rate rather than by the raw site
// count, correcting for base-composition bias in the rate matrix.
func ExpectedRate(n [4]float64, kappa float64, pi nucleotide.Frequencies) float64 {
	m := Model{Pi: pi, Kappa: kappa}
	beta := m.beta()
	total := n[0] + n[1] + n[2] + n[3]
	if total == 0 {
		return 0
	}
	rate := 0.0
	for i := 0; i < 4; i++ {
		from := nucleotide.Nucleotide(i)
		groupSum := m.groupSum(from)
		// Exit rate from base `from` in the HKY85 rate matrix:
		// sum_{j != from} q_{from,j} = beta*(kappa*(transition partner freq) + transversion freq)
		transitionPartnerFreq := groupSum - pi[from]
		transversionFreq := 1 - groupSum
		exitRate := beta * (kappa*transitionPartnerFreq + transversionFreq)
		rate += (n[i] / total) * exitRate
	}
	return rate
}
