package align

import (
	"testing"

	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
)

// twoTipTree builds the 2-tip marginal tree (A:0.1,B:0.1) directly,
// bypassing Newick parsing, mirroring scenario S1 of the spec.
func twoTipTree() *marginal.MarginalTree {
	return &marginal.MarginalTree{
		NumTips: 2,
		Nodes: []marginal.Node{
			{Id: 0, Ancestor: 2, EdgeTime: 0.1, Name: "A", IsTip: true},
			{Id: 1, Ancestor: 2, EdgeTime: 0.1, Name: "B", IsTip: true},
			{Id: 2, Ancestor: -1, Children: []int{0, 1}, IsTip: false},
		},
	}
}

func TestCompatibilitySingleColumn(t *testing.T) {
	mt := twoTipTree()
	a := Alignment{
		NumTips: 2,
		Columns: [][]nucleotide.Nucleotide{
			{nucleotide.Adenine, nucleotide.Guanine},
		},
	}
	res, err := ComputeCompatibility(a, mt, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsCompat[0] {
		t.Fatal("two-tip biallelic column should be compatible")
	}
}

func TestIdenticalSequencesAllMonomorphic(t *testing.T) {
	mt := &marginal.MarginalTree{
		NumTips: 4,
		Nodes: []marginal.Node{
			{Id: 0, Ancestor: 4, EdgeTime: 0.1, Name: "A", IsTip: true},
			{Id: 1, Ancestor: 4, EdgeTime: 0.1, Name: "B", IsTip: true},
			{Id: 2, Ancestor: 5, EdgeTime: 0.1, Name: "C", IsTip: true},
			{Id: 3, Ancestor: 5, EdgeTime: 0.1, Name: "D", IsTip: true},
			{Id: 4, Ancestor: 5, EdgeTime: 0.1, Children: []int{0, 1}},
			{Id: 5, Ancestor: -1, Children: []int{4, 2, 3}},
		},
	}
	cols := make([][]nucleotide.Nucleotide, 100)
	for i := range cols {
		cols[i] = []nucleotide.Nucleotide{nucleotide.Adenine, nucleotide.Adenine, nucleotide.Adenine, nucleotide.Adenine}
	}
	a := Alignment{NumTips: 4, Columns: cols}
	res, err := ComputeCompatibility(a, mt, true)
	if err != nil {
		t.Fatal(err)
	}
	for s, compat := range res.IsCompat {
		// A monomorphic column has a single allele group (the whole
		// tip set), which is trivially compatible with any topology.
		if !compat {
			t.Fatalf("column %d should be (trivially) compatible", s)
		}
	}
}

func TestCompressRoundTrip(t *testing.T) {
	mt := twoTipTree()
	a := Alignment{
		NumTips: 2,
		Columns: [][]nucleotide.Nucleotide{
			{nucleotide.Adenine, nucleotide.Guanine},
			{nucleotide.Adenine, nucleotide.Guanine},
			{nucleotide.Cytosine, nucleotide.Thymine},
		},
	}
	compat, err := ComputeCompatibility(a, mt, false)
	if err != nil {
		t.Fatal(err)
	}
	table := Compress(a, compat)
	if len(table.Bases) != 2 {
		t.Fatalf("expected 2 distinct patterns, got %d", len(table.Bases))
	}
	if table.Cpat[table.Ipat[0]] != 2 {
		t.Fatalf("expected pattern of column 0 to have cpat=2")
	}
	total := table.NumCompatibleColumns()
	if total != 3 {
		t.Fatalf("NumCompatibleColumns = %d, want 3", total)
	}
	// Expanding ipat and the pattern bases must reconstruct the
	// original compatible-column matrix.
	for s, column := range a.Columns {
		p := table.Ipat[s]
		for tip, base := range column {
			if table.Bases[p][tip] != base {
				t.Fatalf("column %d tip %d: got %v, want %v", s, tip, table.Bases[p][tip], base)
			}
		}
	}
}
