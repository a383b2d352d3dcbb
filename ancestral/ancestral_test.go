package ancestral

import (
	"math"
	"testing"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
)

// Scenario S1 from the spec: tree (A:0.1,B:0.1), A="A", B="G".
func TestS1TwoTipsOneColumn(t *testing.T) {
	mt := &marginal.MarginalTree{
		NumTips: 2,
		Nodes: []marginal.Node{
			{Id: 0, Ancestor: 2, EdgeTime: 0.1, Name: "A", IsTip: true},
			{Id: 1, Ancestor: 2, EdgeTime: 0.1, Name: "B", IsTip: true},
			{Id: 2, Ancestor: -1, Children: []int{0, 1}},
		},
	}
	model := hky85.Model{Pi: nucleotide.Frequencies{0.25, 0.25, 0.25, 0.25}, Kappa: 2.0}
	table := align.PatternTable{
		Bases: [][]nucleotide.Nucleotide{{nucleotide.Adenine, nucleotide.Guanine}},
		Pat1:  []int{0},
		Cpat:  []int{1},
		Ipat:  []int{0},
	}

	res, err := Reconstruct(mt, model, table)
	if err != nil {
		t.Fatal(err)
	}

	p := model.Ptrans(0.1)
	best := -1
	var bestScore float64
	for i := 0; i < 4; i++ {
		score := model.Pi[i] * p[i][nucleotide.Adenine] * p[i][nucleotide.Guanine]
		if best == -1 || score > bestScore {
			bestScore = score
			best = i
		}
	}
	got := res.NodeNuc[2][0]
	if int(got) != best {
		t.Fatalf("root ML base = %v, want %v", got, nucleotide.Nucleotide(best))
	}
	if res.NodeNuc[0][0] != nucleotide.Adenine || res.NodeNuc[1][0] != nucleotide.Guanine {
		t.Fatal("tip bases must be passed through verbatim")
	}
}

func TestFelsensteinConsistency(t *testing.T) {
	mt := &marginal.MarginalTree{
		NumTips: 3,
		Nodes: []marginal.Node{
			{Id: 0, Ancestor: 3, EdgeTime: 0.2, Name: "A", IsTip: true},
			{Id: 1, Ancestor: 3, EdgeTime: 0.15, Name: "B", IsTip: true},
			{Id: 2, Ancestor: 4, EdgeTime: 0.3, Name: "C", IsTip: true},
			{Id: 3, Ancestor: 4, EdgeTime: 0.1, Children: []int{0, 1}},
			{Id: 4, Ancestor: -1, Children: []int{3, 2}},
		},
	}
	model := hky85.Model{Pi: nucleotide.Frequencies{0.3, 0.2, 0.2, 0.3}, Kappa: 2.5}
	table := align.PatternTable{
		Bases: [][]nucleotide.Nucleotide{
			{nucleotide.Adenine, nucleotide.Adenine, nucleotide.Guanine},
			{nucleotide.Cytosine, nucleotide.Thymine, nucleotide.Thymine},
		},
		Pat1: []int{0, 1},
		Cpat: []int{3, 2},
		Ipat: []int{0, 0, 0, 1, 1},
	}
	res, err := Reconstruct(mt, model, table)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Likelihood.Finite() {
		t.Fatal("likelihood must have a finite log")
	}
	if res.Likelihood.Float64() <= 0 {
		t.Fatal("likelihood must be positive")
	}
	// Summing independently per compatible column (expanding each
	// pattern to its column count) must recover the same log-likelihood.
	logSum := 0.0
	for p, cpat := range table.Cpat {
		// log(rootLike[p]) for this pattern, recovered from the total
		// by isolating one pattern at a time.
		single := table
		single.Cpat = []int{1}
		single.Bases = [][]nucleotide.Nucleotide{table.Bases[p]}
		single.Pat1 = []int{0}
		single.Ipat = []int{0}
		r, err := Reconstruct(mt, model, single)
		if err != nil {
			t.Fatal(err)
		}
		logSum += float64(cpat) * r.Likelihood.Log()
	}
	if math.Abs(logSum-res.Likelihood.Log()) > 1e-9 {
		t.Fatalf("sum over columns logL = %v, want %v", logSum, res.Likelihood.Log())
	}
}

func TestNonBinaryRejected(t *testing.T) {
	mt := &marginal.MarginalTree{
		NumTips: 3,
		Nodes: []marginal.Node{
			{Id: 0, IsTip: true, Ancestor: 3},
			{Id: 1, IsTip: true, Ancestor: 3},
			{Id: 2, IsTip: true, Ancestor: 3},
			{Id: 3, Ancestor: -1, Children: []int{0, 1, 2}},
		},
	}
	model := hky85.Model{Pi: nucleotide.Frequencies{0.25, 0.25, 0.25, 0.25}, Kappa: 2}
	_, err := Reconstruct(mt, model, align.PatternTable{})
	if err == nil {
		t.Fatal("expected error for non-binary root")
	}
}
