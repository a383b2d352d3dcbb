package recomb

import (
	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/xfloat"
)

// PlainBranchLikelihood computes the ordinary (non-recombining)
// Felsenstein branch likelihood: the product, over distinct patterns,
// of the HKY85 transition probability from the ancestor's to the
// descendant's reconstructed base at branch length t, each raised to
// its pattern's column count. It ignores importation entirely, for
// use by a post-hoc branch-length rescaling step run after the
// recombination-aware inference has fixed every node's ancestral
// state.
func PlainBranchLikelihood(model hky85.Model, nodeNuc [][]nucleotide.Nucleotide, ancestorID, descendantID int, table align.PatternTable, branchLength float64) xfloat.Scalar {
	if branchLength < MinDivergence {
		branchLength = MinDivergence
	}
	ptrans := model.PtransX(branchLength)
	total := xfloat.One()
	for p := range table.Bases {
		x := nodeNuc[ancestorID][p]
		y := nodeNuc[descendantID][p]
		e := marginalizeAmbiguous(x, y, model.Pi, func(xv, yv nucleotide.Nucleotide) xfloat.Scalar {
			return ptrans[xv][yv]
		})
		total = total.Mul(e.Pow(table.Cpat[p]))
	}
	return total
}
