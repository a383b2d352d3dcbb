/*
Package marginal implements the arena-indexed phylogeny the rest of
the recombination-inference engine operates on: a contiguous array of
nodes addressed by small integers, with ancestor and child links as
indices rather than pointers. This removes cyclic ownership concerns
and makes per-branch iteration trivially safe to parallelize, at the
cost of needing a one-time numbering pass when the tree is built from
a parsed, pointer-based input phylogeny.
*/
package marginal

import (
	"fmt"
	"sort"

	"github.com/evolbioinfo/gorecomb/tree"
)

// OrderPolicy selects one of the two tie-breaking numbering schemes
// used to convert a parsed tree into a MarginalTree. Once assigned,
// node indices are invariant for the whole inference run.
type OrderPolicy int

const (
	// StatusAndAge sorts tips before internal nodes, and within a
	// class by ascending age, a node's age being its height above its
	// deepest descendant tip (tips keep their relative post-order
	// position since all tips share age 0).
	StatusAndAge OrderPolicy = iota
	// StatusLabelAndAge sorts tips before internal nodes; tips among
	// themselves sort by an externally supplied label order; internal
	// nodes sort by ascending age.
	StatusLabelAndAge
)

// Node is one entry of the arena. Children and Ancestor are indices
// into the owning MarginalTree's Nodes slice; Ancestor is -1 only for
// the root.
type Node struct {
	Id       int
	Ancestor int
	Children []int
	EdgeTime float64
	Name     string
	IsTip    bool
}

// MarginalTree is the immutable, numbered phylogeny consumed by
// pattern compression, ancestral reconstruction and the per-branch
// HMM. Node indices 0..N-1 are tips, N..2N-3 are non-root internal
// nodes, and 2N-2 is the root.
type MarginalTree struct {
	Nodes   []Node
	NumTips int
}

// Size returns the total node count, 2*NumTips-1.
func (mt *MarginalTree) Size() int {
	return len(mt.Nodes)
}

// Root returns the index of the root node.
func (mt *MarginalTree) Root() int {
	return len(mt.Nodes) - 1
}

// Penultimate returns the index of the special root-adjacent node
// whose branch contributes no independent likelihood term.
func (mt *MarginalTree) Penultimate() int {
	return len(mt.Nodes) - 2
}

// TipName returns the label of tip node id.
func (mt *MarginalTree) TipName(id int) string {
	return mt.Nodes[id].Name
}

// Build converts a rooted, parsed input phylogeny into a MarginalTree,
// assigning node indices per the given ordering policy. labelOrder is
// only consulted under StatusLabelAndAge, mapping tip label to its
// rank; every tip must have a distinct rank or Build fails.
func Build(t *tree.Tree, policy OrderPolicy, labelOrder map[string]int) (*MarginalTree, error) {
	if !t.Rooted() {
		return nil, fmt.Errorf("marginal: input tree is not rooted (root has %d neighbors, want 2)", t.Root().Nneigh())
	}
	t.ReorderEdges(t.Root(), nil)

	type info struct {
		node     *tree.Node
		ancestor *tree.Node
		age      float64
	}
	ancestorOf := make(map[*tree.Node]*tree.Node)
	ageOf := make(map[*tree.Node]float64)

	var walk func(n, prev *tree.Node) error
	walk = func(n, prev *tree.Node) error {
		ancestorOf[n] = prev
		if n.Tip() {
			if prev != nil && n.Nneigh() != 1 {
				return fmt.Errorf("marginal: tip node %q has %d neighbors", n.Name(), n.Nneigh())
			}
			ageOf[n] = 0
			return nil
		}
		wantNeigh := 3
		if prev == nil {
			wantNeigh = 2
		}
		if n.Nneigh() != wantNeigh {
			return fmt.Errorf("marginal: non-binary node %q has %d neighbors, want %d", n.Name(), n.Nneigh(), wantNeigh)
		}
		age := 0.0
		for i, c := range n.Neigh() {
			if c == prev {
				continue
			}
			if err := walk(c, n); err != nil {
				return err
			}
			childAge := ageOf[c] + n.Edges()[i].Length()
			if childAge > age {
				age = childAge
			}
		}
		ageOf[n] = age
		return nil
	}
	if err := walk(t.Root(), nil); err != nil {
		return nil, err
	}

	post := t.PostOrder()
	rest := make([]*tree.Node, 0, len(post)-1)
	for _, n := range post {
		if n != t.Root() {
			rest = append(rest, n)
		}
	}

	if policy == StatusLabelAndAge {
		seen := make(map[int]*tree.Node)
		for _, n := range rest {
			if !n.Tip() {
				continue
			}
			rank, ok := labelOrder[n.Name()]
			if !ok {
				return nil, fmt.Errorf("marginal: tip %q has no label order entry", n.Name())
			}
			if other, dup := seen[rank]; dup {
				return nil, fmt.Errorf("marginal: tips %q and %q cannot have the same label order", other.Name(), n.Name())
			}
			seen[rank] = n
		}
	}

	less := func(i, j int) bool {
		a, b := rest[i], rest[j]
		aTip, bTip := a.Tip(), b.Tip()
		if aTip != bTip {
			return aTip // tips sort before internal nodes
		}
		if aTip && policy == StatusLabelAndAge {
			return labelOrder[a.Name()] < labelOrder[b.Name()]
		}
		return ageOf[a] < ageOf[b]
	}
	sort.SliceStable(rest, less)

	all := append(rest, t.Root())
	index := make(map[*tree.Node]int, len(all))
	for i, n := range all {
		index[n] = i
	}

	numTips := 0
	nodes := make([]Node, len(all))
	for i, n := range all {
		anc := -1
		edgeTime := 0.0
		if a := ancestorOf[n]; a != nil {
			anc = index[a]
			for k, nb := range n.Neigh() {
				if nb == a {
					edgeTime = n.Edges()[k].Length()
					break
				}
			}
		}
		var children []int
		for _, nb := range n.Neigh() {
			if nb != ancestorOf[n] {
				children = append(children, index[nb])
			}
		}
		isTip := n.Tip()
		if isTip {
			numTips++
		}
		nodes[i] = Node{
			Id:       i,
			Ancestor: anc,
			Children: children,
			EdgeTime: edgeTime,
			Name:     n.Name(),
			IsTip:    isTip,
		}
	}

	return &MarginalTree{Nodes: nodes, NumTips: numTips}, nil
}
