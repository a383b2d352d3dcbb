package optimize

import (
	"math"
	"testing"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
)

// testTree builds a 3-tip tree ((A,B),C) directly as a MarginalTree,
// bypassing Newick parsing, with nodes 0=A,1=B,2=C,3=(A,B),4=root.
func testTree() *marginal.MarginalTree {
	return &marginal.MarginalTree{
		NumTips: 3,
		Nodes: []marginal.Node{
			{Id: 0, Ancestor: 3, EdgeTime: 0.05, Name: "A", IsTip: true},
			{Id: 1, Ancestor: 3, EdgeTime: 0.05, Name: "B", IsTip: true},
			{Id: 2, Ancestor: 4, EdgeTime: 0.1, Name: "C", IsTip: true},
			{Id: 3, Ancestor: 4, EdgeTime: 0.02, Children: []int{0, 1}},
			{Id: 4, Ancestor: -1, Children: []int{3, 2}},
		},
	}
}

func testData() Data {
	mt := testTree()
	model := hky85.Model{Pi: nucleotide.Frequencies{0.25, 0.25, 0.25, 0.25}, Kappa: 2.0}
	nodeNuc := [][]nucleotide.Nucleotide{
		{nucleotide.Adenine, nucleotide.Thymine},
		{nucleotide.Adenine, nucleotide.Thymine},
		{nucleotide.Guanine, nucleotide.Cytosine},
		{nucleotide.Adenine, nucleotide.Thymine},
		{nucleotide.Adenine, nucleotide.Cytosine},
	}
	table := align.PatternTable{
		Bases: [][]nucleotide.Nucleotide{
			{nucleotide.Adenine, nucleotide.Adenine, nucleotide.Guanine},
			{nucleotide.Thymine, nucleotide.Thymine, nucleotide.Cytosine},
		},
		Pat1: []int{0, 1},
		Cpat: []int{1, 1},
		Ipat: []int{0, 1},
	}
	compat := align.CompatibilityResult{IsCompat: []bool{true, true}, AnyN: []bool{false, false}}
	columns := align.CompatiblePositions(compat, table)
	return Data{
		Tree:    mt,
		Model:   model,
		NodeNuc: nodeNuc,
		Table:   table,
		Columns: columns,
	}
}

func TestPerBranchJointParamCountPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for wrong parameter count")
		}
	}()
	o := &PerBranchJoint{Data: testData(), NodeID: 0, AncestorID: 3}
	o.Evaluate([]float64{0, 0})
}

func TestJointTreeParamCount(t *testing.T) {
	d := testData()
	o := &JointTree{Data: d}
	want := d.numTreeParams()
	if want != 3+d.Tree.Penultimate() {
		t.Fatalf("numTreeParams = %d, want %d", want, 3+d.Tree.Penultimate())
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for wrong parameter count")
		}
	}()
	o.Evaluate([]float64{0, 0})
}

func TestFixedBranchMatchesPerBranchProduct(t *testing.T) {
	d := testData()

	tree := &FixedBranch{Data: d}
	treeX := []float64{math.Log10(0.02), math.Log10(30), math.Log10(0.1)}
	treeNegLogL := tree.Evaluate(treeX)

	sum := 0.0
	for _, i := range nonPenultimateBranches(d.Tree) {
		node := d.Tree.Nodes[i]
		perBranch := &PerBranchJoint{Data: d, NodeID: i, AncestorID: node.Ancestor}
		// Force x[0] to log10(edge time) so the per-branch driver's free
		// branch length matches FixedBranch's fixed one, isolating the
		// branch-independence property.
		negLogL := perBranch.Evaluate([]float64{math.Log10(node.EdgeTime), math.Log10(0.02), math.Log10(30), math.Log10(0.1)})
		sum += negLogL
	}
	if math.Abs(sum-treeNegLogL) > 1e-9 {
		t.Fatalf("sum of per-branch -logL = %v, want %v (tree objective)", sum, treeNegLogL)
	}
}

func TestPerBranchRhoRequiresExcessDivergence(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when excess-divergence model is disabled")
		}
	}()
	d := testData()
	d.ExcessDivergenceModel = false
	NewPerBranchRho(d, 0, 3, 0.05, nil)
}

func TestSingleRhoRejectsExcessDivergence(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when excess-divergence model is enabled")
		}
	}()
	d := testData()
	d.ExcessDivergenceModel = true
	NewSingleRho(d, false, []float64{0.01, 0.01, 0.01}, nil)
}

func TestSingleRhoBranchLengthFallsBackWhenSubstitutionsExceedDivergence(t *testing.T) {
	d := testData()
	o := NewSingleRho(d, false, []float64{0.5, 0.01, 0.01}, nil)
	b := o.branchLength(0.5, 0.01, 10, 0.1)
	if b != 0.5 {
		t.Fatalf("expected fallback b = s = 0.5, got %v", b)
	}
}

func TestApproxBranchLengthWarnsOnceAndRuns(t *testing.T) {
	d := testData()
	d.ExcessDivergenceModel = true
	o := NewApproxBranchLength(d)
	negLogL := o.Evaluate([]float64{math.Log10(0.02), math.Log10(30), math.Log10(0.1)})
	if math.IsNaN(negLogL) || math.IsInf(negLogL, 0) {
		t.Fatalf("ApproxBranchLength.Evaluate returned non-finite value %v", negLogL)
	}
}

func TestRescaleBranchIgnoresRecombinationParams(t *testing.T) {
	d := testData()
	o := &RescaleBranch{Data: d, NodeID: 0, AncestorID: 3}
	negLogL := o.Evaluate([]float64{math.Log10(0.05)})
	if math.IsNaN(negLogL) || math.IsInf(negLogL, 0) {
		t.Fatalf("RescaleBranch.Evaluate returned non-finite value %v", negLogL)
	}
}
