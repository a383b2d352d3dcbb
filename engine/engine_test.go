package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolbioinfo/gorecomb/align"
	"github.com/evolbioinfo/gorecomb/hky85"
	"github.com/evolbioinfo/gorecomb/marginal"
	"github.com/evolbioinfo/gorecomb/nucleotide"
	"github.com/evolbioinfo/gorecomb/tree"
)

// threeTipTree builds ((A:0.05,B:0.05):0.02,C:0.1); directly, since
// Newick parsing is out of scope for this module.
func threeTipTree() *tree.Tree {
	t := tree.NewTree()
	root := t.NewNode()
	ab := t.NewNode()
	a := t.NewNode()
	b := t.NewNode()
	c := t.NewNode()
	a.SetName("A")
	b.SetName("B")
	c.SetName("C")
	t.ConnectNodes(root, ab).SetLength(0.02)
	t.ConnectNodes(ab, a).SetLength(0.05)
	t.ConnectNodes(ab, b).SetLength(0.05)
	t.ConnectNodes(root, c).SetLength(0.1)
	t.SetRoot(root)
	return t
}

func col(a, b, c nucleotide.Nucleotide) []nucleotide.Nucleotide {
	return []nucleotide.Nucleotide{a, b, c}
}

func threeTipAlignment() align.Alignment {
	return align.Alignment{
		NumTips: 3,
		Columns: [][]nucleotide.Nucleotide{
			col(nucleotide.Adenine, nucleotide.Adenine, nucleotide.Guanine),
			col(nucleotide.Thymine, nucleotide.Thymine, nucleotide.Cytosine),
			col(nucleotide.Adenine, nucleotide.Adenine, nucleotide.Adenine),
			col(nucleotide.Guanine, nucleotide.Guanine, nucleotide.Guanine),
		},
	}
}

func testModel() hky85.Model {
	return hky85.Model{Pi: nucleotide.Frequencies{0.25, 0.25, 0.25, 0.25}, Kappa: 2.0}
}

func TestRunJointTreeProducesOneResultPerBranch(t *testing.T) {
	cfg := Config{
		Model:  testModel(),
		Policy: marginal.StatusAndAge,
		Driver: JointTreeDriver,
	}
	result, err := Run(threeTipTree(), threeTipAlignment(), cfg)
	require.NoError(t, err)
	assert.Len(t, result.Branches, result.MarginalTree.Penultimate())
	assert.False(t, math.IsNaN(result.NegLogLikelihood) || math.IsInf(result.NegLogLikelihood, 0),
		"NegLogLikelihood is not finite: %v", result.NegLogLikelihood)
	for _, br := range result.Branches {
		assert.Greater(t, br.BranchLength, 0.0, "branch %d", br.NodeID)
		assert.NotNil(t, br.IsImported, "branch %d: IsImported not populated", br.NodeID)
	}
}

func TestRunFixedBranchKeepsInputEdgeLengths(t *testing.T) {
	cfg := Config{
		Model:  testModel(),
		Policy: marginal.StatusAndAge,
		Driver: FixedBranchDriver,
	}
	result, err := Run(threeTipTree(), threeTipAlignment(), cfg)
	require.NoError(t, err)
	for _, br := range result.Branches {
		node := result.MarginalTree.Nodes[br.NodeID]
		assert.Equal(t, node.EdgeTime, br.BranchLength, "branch %d", br.NodeID)
	}
}

func TestRunRescaleBranchIgnoresRecombination(t *testing.T) {
	cfg := Config{
		Model:  testModel(),
		Policy: marginal.StatusAndAge,
		Driver: RescaleBranchDriver,
	}
	result, err := Run(threeTipTree(), threeTipAlignment(), cfg)
	require.NoError(t, err)
	for _, br := range result.Branches {
		assert.Nil(t, br.IsImported, "branch %d: RescaleBranch should not populate IsImported", br.NodeID)
	}
}
