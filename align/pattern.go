/*
Package align implements the alignment-pattern compression and
compatibility filter that feed the likelihood machinery: which columns
exhibit no homoplasy on the fixed tree topology, and the grouping of
those columns into distinct per-tip nucleotide patterns.
*/
package align

import (
	"fmt"

	"github.com/fredericlemoine/bitset"

	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
)

// Alignment is a decoded, tip-indexed nucleotide alignment: Columns[s]
// holds one nucleotide per tip for alignment column s, tip order
// matching marginal tree tip ids 0..NumTips-1.
type Alignment struct {
	Columns [][]nucleotide.Nucleotide
	NumTips int
}

// CompatibilityResult is the output of the compatibility filter: for
// each alignment column, whether it carries an ambiguous call at any
// tip (AnyN) and whether it is compatible (IsCompat: no ambiguous
// call, no homoplasy on the tree topology, and, when purging
// singletons, not a singleton).
type CompatibilityResult struct {
	IsCompat []bool
	AnyN     []bool
}

// ComputeCompatibility marks every alignment column compatible with
// mt's topology iff its tip partition induces no homoplasy: for a
// biallelic column this is the classical four-gamete test evaluated
// against the tree's bipartitions; for a multi-allelic column every
// induced (allele-vs-rest) bipartition must independently pass it.
// Columns carrying any ambiguous call are marked incompatible and
// recorded in AnyN. With purgeSingletons, columns whose minor allele
// appears in exactly one tip are also marked incompatible.
func ComputeCompatibility(a Alignment, mt *marginal.MarginalTree, purgeSingletons bool) (CompatibilityResult, error) {
	if mt.NumTips != a.NumTips {
		return CompatibilityResult{}, fmt.Errorf("align: alignment has %d tips, tree has %d", a.NumTips, mt.NumTips)
	}
	edgeBitsets, err := edgeBipartitions(mt)
	if err != nil {
		return CompatibilityResult{}, err
	}

	n := len(a.Columns)
	res := CompatibilityResult{
		IsCompat: make([]bool, n),
		AnyN:     make([]bool, n),
	}
	for s, column := range a.Columns {
		anyN := false
		for _, c := range column {
			if c == nucleotide.Ambiguous {
				anyN = true
				break
			}
		}
		res.AnyN[s] = anyN
		if anyN {
			res.IsCompat[s] = false
			continue
		}
		compat, singleton := columnCompatible(column, edgeBitsets, mt.NumTips)
		if compat && purgeSingletons && singleton {
			compat = false
		}
		res.IsCompat[s] = compat
	}
	return res, nil
}

// edgeBipartitions returns, for every node, the bitset of tips
// descending from it -- for a non-root node, the bipartition its
// branch induces; for the root, the set of all tips.
func edgeBipartitions(mt *marginal.MarginalTree) ([]*bitset.BitSet, error) {
	sets := make([]*bitset.BitSet, len(mt.Nodes))
	var fill func(id int) *bitset.BitSet
	fill = func(id int) *bitset.BitSet {
		if sets[id] != nil {
			return sets[id]
		}
		b := bitset.New(uint(mt.NumTips))
		n := mt.Nodes[id]
		if n.IsTip {
			b.Set(uint(id))
		} else {
			for _, c := range n.Children {
				b = b.Union(fill(c))
			}
		}
		sets[id] = b
		return b
	}
	for id := range mt.Nodes {
		fill(id)
	}
	return sets, nil
}

// columnCompatible applies the four-gamete-style test: for a column
// to be compatible, every allele's set of carrying tips (or its
// complement) must equal some edge bipartition of the tree, or be the
// trivial all-tips / empty partition. singleton reports whether the
// rarest allele is carried by exactly one tip.
func columnCompatible(column []nucleotide.Nucleotide, edges []*bitset.BitSet, numTips int) (compat bool, singleton bool) {
	groups := make(map[nucleotide.Nucleotide]*bitset.BitSet)
	for tip, c := range column {
		b, ok := groups[c]
		if !ok {
			b = bitset.New(uint(numTips))
			groups[c] = b
		}
		b.Set(uint(tip))
	}
	if len(groups) <= 1 {
		return true, false
	}

	minCount := numTips + 1
	for _, b := range groups {
		if int(b.Count()) < minCount {
			minCount = int(b.Count())
		}
	}
	singleton = minCount == 1

	for _, b := range groups {
		if int(b.Count()) == numTips {
			continue
		}
		if !matchesSomeEdge(b, edges, numTips) {
			return false, singleton
		}
	}
	return true, singleton
}

func matchesSomeEdge(b *bitset.BitSet, edges []*bitset.BitSet, numTips int) bool {
	for _, e := range edges {
		if e.Equal(b) {
			return true
		}
		if int(e.Count()) == numTips-int(b.Count()) && e.Union(b).Count() == uint(numTips) && e.Intersection(b).Count() == 0 {
			return true
		}
	}
	return false
}

// PatternTable is the compressed representation of every compatible
// column: distinct per-tip nucleotide assignments, with auxiliary maps
// back to the alignment.
type PatternTable struct {
	// Bases[p] is the per-tip nucleotide vector of pattern p.
	Bases [][]nucleotide.Nucleotide
	// Pat1[p] is one representative compatible column of pattern p.
	Pat1 []int
	// Cpat[p] is the number of compatible columns sharing pattern p.
	Cpat []int
	// Ipat[s] is the pattern index of compatible column s, or -1 if
	// column s is not compatible.
	Ipat []int
}

// Compress groups the compatible columns of an alignment into
// patterns of identical per-tip nucleotide vectors (compared tip by
// tip in tip-index order), numbering the patterns in order of first
// appearance along the alignment.
func Compress(a Alignment, compat CompatibilityResult) PatternTable {
	table := PatternTable{
		Ipat: make([]int, len(a.Columns)),
	}
	key := func(column []nucleotide.Nucleotide) string {
		buf := make([]byte, len(column))
		for i, c := range column {
			buf[i] = byte(c)
		}
		return string(buf)
	}
	seen := make(map[string]int)
	for s, column := range a.Columns {
		if !compat.IsCompat[s] {
			table.Ipat[s] = -1
			continue
		}
		k := key(column)
		p, ok := seen[k]
		if !ok {
			p = len(table.Bases)
			seen[k] = p
			cp := make([]nucleotide.Nucleotide, len(column))
			copy(cp, column)
			table.Bases = append(table.Bases, cp)
			table.Pat1 = append(table.Pat1, s)
			table.Cpat = append(table.Cpat, 0)
		}
		table.Cpat[p]++
		table.Ipat[s] = p
	}
	return table
}

// NumCompatibleColumns returns the total count of compatible columns,
// the sum of Cpat, which must equal the count implied by Ipat.
func (t PatternTable) NumCompatibleColumns() int {
	total := 0
	for _, c := range t.Cpat {
		total += c
	}
	return total
}

// CompatibleColumn is one entry of the ordered sequence of compatible
// columns the per-branch HMM runs over: which pattern supplies its
// ancestor/descendant nucleotides, and how many incompatible columns
// separate it from the previous compatible column (for the first, how
// many incompatible columns precede it).
type CompatibleColumn struct {
	Pattern   int
	GapBefore int
}

// CompatiblePositions walks the alignment in column order and returns
// the ordered sequence of compatible columns, recording the gap of
// incompatible columns preceding each one. Mean import length is
// measured in these raw alignment positions, not in compatible-column
// units: a long run of incompatible columns between two compatible
// ones still lengthens an import tract spanning them.
func CompatiblePositions(compat CompatibilityResult, table PatternTable) []CompatibleColumn {
	cols := make([]CompatibleColumn, 0, table.NumCompatibleColumns())
	gap := 0
	for s, ok := range compat.IsCompat {
		if !ok {
			gap++
			continue
		}
		cols = append(cols, CompatibleColumn{Pattern: table.Ipat[s], GapBefore: gap})
		gap = 0
	}
	return cols
}
