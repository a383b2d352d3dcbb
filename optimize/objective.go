/*
Package optimize implements the objective-function drivers that sit
between the per-branch recombination HMM and a generic, gradient-free
numerical minimiser: per-branch, whole-tree, and post-hoc branch-length
variants, each exposing a scalar function of a log10-space parameter
vector for an external optimiser to minimise.
*/
package optimize

import (
	"math"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/recomb"
)

// Objective is a scalar function of a parameter vector, always
// supplied and read back in log10 space by the caller of Minimizer so
// the underlying quantities (branch lengths, rates, tract lengths)
// stay positive without a constrained optimiser.
type Objective interface {
	Evaluate(x []float64) float64
}

// Minimizer is the black-box, gradient-free local optimiser every
// driver is run through. This package provides one implementation,
// GonumMinimizer; selecting and tuning one (Powell's method,
// Nelder-Mead, or similar) is the responsibility of the caller wiring
// an inference run together.
type Minimizer interface {
	Minimize(obj Objective, x0 []float64) (xMin []float64, fMin float64, err error)
}

// Data bundles the immutable, shared inference state every objective
// reads: the numbered tree, the substitution model, the reconstructed
// ancestral nucleotides, the compressed pattern table, and the ordered
// sequence of compatible columns the HMM runs over. None of it is
// mutated by any driver; each driver only ever holds its own
// per-branch or per-tree outputs.
type Data struct {
	Tree                  *marginal.MarginalTree
	Model                 hky85.Model
	NodeNuc               [][]nucleotide.Nucleotide
	Table                 align.PatternTable
	Columns               []align.CompatibleColumn
	ExcessDivergenceModel bool
	MinBranchLength       float64
}

func (d Data) minBranchLength() float64 {
	if d.MinBranchLength > 0 {
		return d.MinBranchLength
	}
	return recomb.MinDivergence
}

func (d Data) branch(ancestorID, descendantID int, p recomb.Params) recomb.Branch {
	return recomb.Branch{
		Model:      d.Model,
		Columns:    d.Columns,
		NodeNuc:    d.NodeNuc,
		AncestorID: ancestorID,
		Descendant: descendantID,
		Params:     p,
	}
}

// effectiveDivergence resolves delta_eff from the raw import
// divergence parameter delta and a branch length, per the
// excess-divergence flag: additive (b+delta) when set, delta alone
// otherwise.
func (d Data) effectiveDivergence(branchLength, delta float64) float64 {
	if d.ExcessDivergenceModel {
		return branchLength + delta
	}
	return delta
}

func pow10(x float64) float64 {
	return math.Pow(10, x)
}

// Pow10 exports pow10 for callers outside this package that build
// initial parameter vectors or decode a minimiser's result, such as
// package engine.
func Pow10(x float64) float64 {
	return pow10(x)
}

// nonPenultimateBranches returns the node ids 0..Penultimate()-1, the
// branches a whole-tree objective iterates over. The penultimate
// node's branch is never optimised and contributes no likelihood term
// (its implicit value is 1), a property of the root-adjacent topology
// that must be preserved rather than re-derived.
func nonPenultimateBranches(mt *marginal.MarginalTree) []int {
	ids := make([]int, mt.Penultimate())
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// NonPenultimateBranches exports nonPenultimateBranches for callers
// outside this package that assemble driver inputs and outputs, such
// as package engine.
func NonPenultimateBranches(mt *marginal.MarginalTree) []int {
	return nonPenultimateBranches(mt)
}

// NumTreeParams exports numTreeParams, the parameter count JointTree
// expects for this Data's tree.
func (d Data) NumTreeParams() int {
	return d.numTreeParams()
}

// EffectiveMinBranchLength returns the effective minimum branch length: the
// configured value if positive, else the HMM's divergence floor.
func (d Data) EffectiveMinBranchLength() float64 {
	return d.minBranchLength()
}
