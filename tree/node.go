package tree

import "errors"

// NIL_ID marks a node or edge that has not yet been assigned an
// identifier.
const NIL_ID = -1

// NIL_DEPTH marks a node whose depth has not been computed.
const NIL_DEPTH = -1

// Node is a node of an input phylogeny, as read from a rooted Newick
// tree by an external parser. Edges to neighbors are kept in the same
// order as the neigh slice they correspond to.
type Node struct {
	name    string
	comment []string
	neigh   []*Node
	br      []*Edge
	depth   int
	id      int
}

// Name returns the node label, empty for unlabeled internal nodes.
func (n *Node) Name() string {
	return n.name
}

// SetName sets the node label.
func (n *Node) SetName(name string) {
	n.name = name
}

// Comments returns the bracketed NHX-style comments attached to the node.
func (n *Node) Comments() []string {
	return n.comment
}

// AddComment appends a comment to the node.
func (n *Node) AddComment(c string) {
	n.comment = append(n.comment, c)
}

// ClearComments removes all comments attached to the node.
func (n *Node) ClearComments() {
	n.comment = n.comment[:0]
}

// Neigh returns the neighbors of the node (ancestor and children, once
// the tree has been rooted and edges reoriented).
func (n *Node) Neigh() []*Node {
	return n.neigh
}

// Edges returns the edges to each neighbor, aligned with Neigh().
func (n *Node) Edges() []*Edge {
	return n.br
}

// Nneigh returns the number of neighbors.
func (n *Node) Nneigh() int {
	return len(n.neigh)
}

// Tip returns true if the node has a single neighbor.
func (n *Node) Tip() bool {
	return len(n.neigh) == 1
}

// Depth returns the stored depth of the node (shortest path, in edges,
// to a tip), or an error while it is unset (NIL_DEPTH). Nothing in this
// package sets it.
func (n *Node) Depth() (int, error) {
	if n.depth == NIL_DEPTH {
		return 0, errors.New("depth has not been computed")
	}
	return n.depth, nil
}

// Id returns the node's assigned identifier, or NIL_ID if unset.
func (n *Node) Id() int {
	return n.id
}

// SetId sets the node's identifier.
func (n *Node) SetId(id int) {
	n.id = id
}

// EdgeIndex returns the index of the given edge among n's edges.
func (n *Node) EdgeIndex(e *Edge) (int, error) {
	for i, e2 := range n.br {
		if e2 == e {
			return i, nil
		}
	}
	return 0, errors.New("edge does not connect to this node")
}

// NodeIndex returns the index of the given neighbor among n's neighbors.
func (n *Node) NodeIndex(other *Node) (int, error) {
	for i, n2 := range n.neigh {
		if n2 == other {
			return i, nil
		}
	}
	return 0, errors.New("node is not a neighbor")
}

// addChild appends a neighbor/edge pair to the node.
func (n *Node) addChild(child *Node, e *Edge) {
	n.neigh = append(n.neigh, child)
	n.br = append(n.br, e)
}

// delNeighbor removes a neighbor (and its edge) from the node.
func (n *Node) delNeighbor(other *Node) error {
	idx, err := n.NodeIndex(other)
	if err != nil {
		return err
	}
	n.neigh = append(n.neigh[:idx], n.neigh[idx+1:]...)
	n.br = append(n.br[:idx], n.br[idx+1:]...)
	return nil
}
