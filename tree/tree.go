/*
Package tree implements the rooted phylogeny representation consumed
by the recombination-inference engine. Newick tokenizing and file I/O
are the responsibility of an external parser; this package only
provides the pointer-based tree that parser builds, plus the
traversal utilities the marginal-tree constructor needs to renumber
it into the arena form used by the rest of the engine.
*/
package tree

import (
	"bytes"
	"errors"
	"sort"
)

// Tree is a rooted binary (or, at the root, possibly bifurcating)
// phylogeny over a set of named tips.
type Tree struct {
	root     *Node
	tipIndex map[string]uint
}

// Trees is the element type of a channel of parsed trees, mirroring
// the convention used by streaming Newick readers.
type Trees struct {
	Tree *Tree
	Id   int
	Err  error
}

// NewTree returns an empty tree with no root.
func NewTree() *Tree {
	return &Tree{
		root:     nil,
		tipIndex: make(map[string]uint),
	}
}

// NewNode allocates a node not yet attached to the tree.
func (t *Tree) NewNode() *Node {
	return &Node{
		name:    "",
		comment: make([]string, 0),
		neigh:   make([]*Node, 0, 3),
		br:      make([]*Edge, 0, 3),
		depth:   NIL_DEPTH,
		id:      NIL_ID,
	}
}

// NewEdge allocates an edge not yet attached to any nodes.
func (t *Tree) NewEdge() *Edge {
	return &Edge{
		length:  NIL_LENGTH,
		support: NIL_SUPPORT,
		id:      NIL_ID,
		pvalue:  NIL_PVALUE,
	}
}

// SetRoot sets the tree's root node. Does not validate that the node
// belongs to the tree.
func (t *Tree) SetRoot(r *Node) {
	t.root = r
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Rooted returns true if the root has exactly two neighbors (a proper
// bifurcating root), false if it is a trifurcating pseudo-root.
func (t *Tree) Rooted() bool {
	return t.root.Nneigh() == 2
}

// ConnectNodes connects parent to child with a new edge and returns it.
func (t *Tree) ConnectNodes(parent *Node, child *Node) *Edge {
	e := t.NewEdge()
	e.setLeft(parent)
	e.setRight(child)
	parent.addChild(child, e)
	child.addChild(parent, e)
	return e
}

// Nodes returns every node of the tree in a pre-order traversal.
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, 0, 64)
	t.nodesRecur(&nodes, nil, nil)
	return nodes
}

func (t *Tree) nodesRecur(nodes *[]*Node, cur *Node, prev *Node) {
	if cur == nil {
		cur = t.Root()
	}
	*nodes = append(*nodes, cur)
	for _, n := range cur.neigh {
		if n != prev {
			t.nodesRecur(nodes, n, cur)
		}
	}
}

// PostOrder returns every node of the tree such that every descendant
// appears before its ancestor. This is the traversal order the
// marginal-tree constructor relies on to number nodes 0..2N-2.
func (t *Tree) PostOrder() []*Node {
	nodes := make([]*Node, 0, 64)
	t.postOrderRecur(t.Root(), nil, &nodes)
	return nodes
}

func (t *Tree) postOrderRecur(cur, prev *Node, out *[]*Node) {
	for _, n := range cur.neigh {
		if n != prev {
			t.postOrderRecur(n, cur, out)
		}
	}
	*out = append(*out, cur)
}

// Tips returns every leaf node of the tree.
func (t *Tree) Tips() []*Node {
	tips := make([]*Node, 0, 64)
	t.tipsRecur(&tips, nil, nil)
	return tips
}

func (t *Tree) tipsRecur(tips *[]*Node, cur *Node, prev *Node) {
	if cur == nil {
		cur = t.Root()
	}
	if cur.Tip() {
		*tips = append(*tips, cur)
	}
	for _, n := range cur.neigh {
		if n != prev {
			t.tipsRecur(tips, n, cur)
		}
	}
}

// AllTipNames returns the label of every tip of the tree.
func (t *Tree) AllTipNames() []string {
	names := make([]string, 0, 64)
	for _, tip := range t.Tips() {
		names = append(names, tip.name)
	}
	return names
}

// SortedTips returns tip labels in ascending lexicographic order.
func (t *Tree) SortedTips() []string {
	names := t.AllTipNames()
	sort.Strings(names)
	return names
}

// UpdateTipIndex rebuilds the name-to-bitset-index map from the
// lexicographic order of tip labels.
func (t *Tree) UpdateTipIndex() {
	names := t.SortedTips()
	for k := range t.tipIndex {
		delete(t.tipIndex, k)
	}
	for i, n := range names {
		t.tipIndex[n] = uint(i)
	}
}

// TipIndex returns the bitset index of the named tip.
func (t *Tree) TipIndex(name string) (uint, error) {
	if len(t.tipIndex) == 0 {
		return 0, errors.New("tip name index is not initialized, call UpdateTipIndex() first")
	}
	v, ok := t.tipIndex[name]
	if !ok {
		return 0, errors.New("no tip named " + name + " in the tree")
	}
	return v, nil
}

// ExistsTip returns true if a tip with the given name exists.
func (t *Tree) ExistsTip(name string) bool {
	_, ok := t.tipIndex[name]
	return ok
}

// String returns the tree in Newick format.
func (t *Tree) String() string {
	return t.Newick()
}

// Newick returns the tree in Newick format, including root comments.
func (t *Tree) Newick() string {
	var buf bytes.Buffer
	t.newickRecur(t.root, nil, &buf)
	for _, c := range t.root.comment {
		buf.WriteString("[")
		buf.WriteString(c)
		buf.WriteString("]")
	}
	buf.WriteString(";")
	return buf.String()
}

func (t *Tree) newickRecur(n, prev *Node, buf *bytes.Buffer) {
	children := make([]*Node, 0, 2)
	for _, c := range n.neigh {
		if c != prev {
			children = append(children, c)
		}
	}
	if len(children) == 0 {
		buf.WriteString(n.name)
	} else {
		buf.WriteString("(")
		for i, c := range children {
			if i > 0 {
				buf.WriteString(",")
			}
			t.newickRecur(c, n, buf)
		}
		buf.WriteString(")")
		buf.WriteString(n.name)
	}
	if prev != nil {
		idx, err := n.NodeIndex(prev)
		if err == nil {
			e := n.br[idx]
			if e.Length() != NIL_LENGTH {
				buf.WriteString(":")
				buf.WriteString(formatLength(e.Length()))
			}
		}
	}
}

// ReorderEdges reorients every edge reachable from n so that, with
// respect to n as root, left is always the ancestor-side node and
// right is always the descendant-side node. Needed after a reroot.
func (t *Tree) ReorderEdges(n *Node, prev *Node) {
	for _, next := range n.br {
		if next.right != prev && next.left != prev {
			if next.right == n {
				next.right, next.left = next.left, next.right
			}
			t.ReorderEdges(next.right, n)
		}
	}
}
