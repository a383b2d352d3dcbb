/*
Package ancestral implements maximum-likelihood ancestral sequence
reconstruction under HKY85: Felsenstein pruning up the tree to compute
per-pattern root likelihoods, followed by a root-to-tips traceback
that assigns the single best-supported nucleotide to every internal
node, for every compatible-column pattern.
*/
package ancestral

import (
	"fmt"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/xfloat"
)

// Result is the output of Reconstruct: for every node id and pattern
// index, the observed (tips) or maximum-likelihood (internal nodes)
// nucleotide, plus the product over patterns of root likelihoods
// raised to their column counts.
type Result struct {
	// NodeNuc[id][pattern] is the nucleotide at node id for pattern.
	NodeNuc    [][]nucleotide.Nucleotide
	Likelihood xfloat.Scalar
}

// Reconstruct runs Felsenstein pruning and traceback for every
// pattern in table, over mt under model. Returns a fatal error if any
// non-tip node does not have exactly two children (the tree is not
// binary).
func Reconstruct(mt *marginal.MarginalTree, model hky85.Model, table align.PatternTable) (Result, error) {
	for _, n := range mt.Nodes {
		if !n.IsTip && len(n.Children) != 2 {
			return Result{}, fmt.Errorf("ancestral: node %d is not binary (%d children)", n.Id, len(n.Children))
		}
	}

	size := len(mt.Nodes)
	numPatterns := len(table.Bases)
	nodeNuc := make([][]nucleotide.Nucleotide, size)
	for i := range nodeNuc {
		nodeNuc[i] = make([]nucleotide.Nucleotide, numPatterns)
	}

	// Cache the transition matrix per branch (indexed by node id), since
	// every pattern reuses the same tree and branch lengths.
	ptrans := make([][4][4]xfloat.Scalar, size)
	for _, n := range mt.Nodes {
		if n.Ancestor >= 0 {
			ptrans[n.Id] = model.PtransX(n.EdgeTime)
		}
	}

	total := xfloat.One()
	lup := make([][4]xfloat.Scalar, size)

	for p := 0; p < numPatterns; p++ {
		bases := table.Bases[p]
		for _, n := range mt.Nodes {
			if n.IsTip {
				obs := bases[n.Id]
				for i := 0; i < 4; i++ {
					if obs == nucleotide.Ambiguous || int(obs) == i {
						lup[n.Id][i] = xfloat.One()
					} else {
						lup[n.Id][i] = xfloat.Zero()
					}
				}
				continue
			}
			for i := 0; i < 4; i++ {
				acc := xfloat.One()
				for _, c := range n.Children {
					cp := ptrans[c]
					sum := xfloat.Zero()
					for j := 0; j < 4; j++ {
						sum = sum.Add(cp[i][j].Mul(lup[c][j]))
					}
					acc = acc.Mul(sum)
				}
				lup[n.Id][i] = acc
			}
		}

		root := mt.Root()
		rootLike := xfloat.Zero()
		for i := 0; i < 4; i++ {
			rootLike = rootLike.Add(lup[root][i].MulFloat64(model.Pi[i]))
		}
		total = total.Mul(rootLike.Pow(table.Cpat[p]))

		// Root-to-tips traceback: pick the base maximising
		// pi(i)*Lup(i) at the root, then for every other internal
		// node the base maximising Lup(i)*P(ancestor_base -> i) over
		// its own branch, given the already-chosen ancestor base.
		rootBase := argmax4X(func(i int) xfloat.Scalar {
			return lup[root][i].MulFloat64(model.Pi[i])
		})
		nodeNuc[root][p] = nucleotide.Nucleotide(rootBase)

		for id := root - 1; id >= 0; id-- {
			n := mt.Nodes[id]
			if n.IsTip {
				nodeNuc[id][p] = bases[id]
				continue
			}
			ancBase := nodeNuc[n.Ancestor][p]
			pAbove := model.Ptrans(n.EdgeTime)
			base := argmax4X(func(i int) xfloat.Scalar {
				return lup[id][i].MulFloat64(pAbove[int(ancBase)][i])
			})
			nodeNuc[id][p] = nucleotide.Nucleotide(base)
		}
	}

	return Result{NodeNuc: nodeNuc, Likelihood: total}, nil
}

// argmax4X returns the index in 0..3 maximising f, ties broken toward
// the smallest index. Comparisons stay in extended precision so that
// traceback remains correct even when per-pattern likelihoods have
// underflowed a plain float64.
func argmax4X(f func(int) xfloat.Scalar) int {
	best := 0
	bestVal := f(0)
	for i := 1; i < 4; i++ {
		v := f(i)
		if v.Greater(bestVal) {
			bestVal = v
			best = i
		}
	}
	return best
}
