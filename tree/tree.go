// Package tree implements a rooted ordered tree of symbol nodes, backed
// by an arena of integer-indexed slots rather than pointer-linked nodes.
// Parents are stored as slot indices and child lists as index slices, so
// sibling swaps never alias node storage.
package tree

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeID identifies a node within a single Tree's arena. It is only
// meaningful relative to the Tree that produced it.
type NodeID int

const noParent NodeID = -1

type nodeData struct {
	name        string
	parent      NodeID
	children    []NodeID
	ancestors   int
	metadata    any
	externalID  uuid.UUID
	hasExternal bool
}

// Tree is a rooted ordered tree. The zero value is not usable; construct
// one with New.
type Tree struct {
	nodes []nodeData
	root  NodeID
}

// New creates an empty tree with no root. Call CreateRoot before using it.
func New() *Tree {
	return &Tree{root: noParent}
}

// Node is a lightweight, comparable handle into a Tree's arena. Two Node
// values compare equal with == iff they reference the same tree and slot,
// satisfying the "stable identity" requirement for tree nodes.
type Node struct {
	t  *Tree
	id NodeID
}

// IsZero reports whether n is the zero Node value, used to represent
// "no node" (e.g. a parent lookup on the root).
func (n Node) IsZero() bool {
	return n.t == nil
}

// ID returns the node's arena slot.
func (n Node) ID() NodeID { return n.id }

func (n Node) data() *nodeData {
	return &n.t.nodes[n.id]
}

// Name returns the node's human-readable label.
func (n Node) Name() string {
	if n.IsZero() {
		return ""
	}
	return n.data().name
}

// SetMetadata attaches opaque caller data to the node. The tree copies
// this value when deep-copying but never inspects it.
func (n Node) SetMetadata(v any) {
	n.data().metadata = v
}

// Metadata returns the opaque data previously attached with SetMetadata.
func (n Node) Metadata() any {
	return n.data().metadata
}

// ExternalID returns a stable identifier for provenance tracking. If the
// caller never assigned one, a uuid.UUID is lazily minted and cached so
// repeated calls are stable for the lifetime of the node.
func (n Node) ExternalID() uuid.UUID {
	d := n.data()
	if !d.hasExternal {
		d.externalID = uuid.New()
		d.hasExternal = true
	}
	return d.externalID
}

// SetExternalID assigns a caller-supplied stable identifier to the node.
func (n Node) SetExternalID(id uuid.UUID) {
	d := n.data()
	d.externalID = id
	d.hasExternal = true
}

// AncestorCount returns the node's depth from the root; the root has
// depth 0. It is computed once at creation time and does not change as
// siblings are reordered.
func (n Node) AncestorCount() int {
	if n.IsZero() {
		return 0
	}
	return n.data().ancestors
}

// Parent returns the node's parent and true, or the zero Node and false
// if n is the root.
func (n Node) Parent() (Node, bool) {
	d := n.data()
	if d.parent == noParent {
		return Node{}, false
	}
	return Node{t: n.t, id: d.parent}, true
}

// Children returns a snapshot slice of the node's children in order.
// Mutating the returned slice does not affect the tree; use AddChildAt
// and RemoveChild, or SwapChildren, to mutate structure.
func (n Node) Children() []Node {
	d := n.data()
	out := make([]Node, len(d.children))
	for i, id := range d.children {
		out[i] = Node{t: n.t, id: id}
	}
	return out
}

// ChildAt returns the child at index i.
func (n Node) ChildAt(i int) Node {
	d := n.data()
	return Node{t: n.t, id: d.children[i]}
}

// ChildCount returns the number of children n has.
func (n Node) ChildCount() int {
	return len(n.data().children)
}

// IsLeaf reports whether n has no children.
func (n Node) IsLeaf() bool {
	return n.ChildCount() == 0
}

// Tree returns the tree n belongs to.
func (n Node) Tree() *Tree { return n.t }

// CreateRoot creates the tree's root node. It may only be called once per
// tree.
func (t *Tree) CreateRoot(name string) Node {
	if t.root != noParent {
		panic("tree: CreateRoot called on a tree that already has a root")
	}
	t.nodes = append(t.nodes, nodeData{name: name, parent: noParent})
	t.root = NodeID(len(t.nodes) - 1)
	return Node{t: t, id: t.root}
}

// CreateChild creates a new node named name and appends it as the last
// child of parent.
func (t *Tree) CreateChild(parent Node, name string) Node {
	t.nodes = append(t.nodes, nodeData{
		name:      name,
		parent:    parent.id,
		ancestors: parent.AncestorCount() + 1,
	})
	id := NodeID(len(t.nodes) - 1)
	pd := &t.nodes[parent.id]
	pd.children = append(pd.children, id)
	return Node{t: t, id: id}
}

// Root returns the tree's root node. It is the zero Node if no root has
// been created yet.
func (t *Tree) Root() Node {
	if t.root == noParent {
		return Node{}
	}
	return Node{t: t, id: t.root}
}

// NodeCount returns the total number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// Nodes returns every node in the tree, in creation order. Iteration
// order is deterministic, which the filter engine relies on for full
// row/column matrix scans.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	for i := range t.nodes {
		out[i] = Node{t: t, id: NodeID(i)}
	}
	return out
}

// AddChildAt inserts child as parent's child at position index, shifting
// later children right. child must already belong to this tree (created
// via CreateChild); this only relinks it, it does not create a new node.
func (t *Tree) AddChildAt(parent Node, index int, child Node) error {
	if parent.t != t || child.t != t {
		return fmt.Errorf("tree: AddChildAt: node does not belong to this tree")
	}
	pd := &t.nodes[parent.id]
	if index < 0 || index > len(pd.children) {
		return fmt.Errorf("tree: AddChildAt: index %d out of range [0,%d]", index, len(pd.children))
	}
	pd.children = append(pd.children, noParent)
	copy(pd.children[index+1:], pd.children[index:])
	pd.children[index] = child.id
	t.nodes[child.id].parent = parent.id
	return nil
}

// RemoveChild removes child from parent's child list. It returns an error
// if child is not currently one of parent's children.
func (t *Tree) RemoveChild(parent Node, child Node) error {
	pd := &t.nodes[parent.id]
	for i, id := range pd.children {
		if id == child.id {
			pd.children = append(pd.children[:i], pd.children[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("tree: RemoveChild: %q is not a child of %q", child.Name(), parent.Name())
}

// SwapChildren exchanges the children of parent at positions i and k,
// per the copy-tree swap procedure: remove both, then re-insert each at
// the other's original position. This works regardless of whether the
// underlying storage is a simple slice or something more exotic, and
// keeps NodeIDs (hence node identity) stable across the swap.
func SwapChildren(parent Node, i, k int) error {
	t := parent.t
	if t == nil {
		return fmt.Errorf("tree: SwapChildren: zero parent node")
	}
	n := parent.ChildCount()
	if i < 0 || i >= n || k < 0 || k >= n {
		return fmt.Errorf("tree: SwapChildren: index out of range (i=%d, k=%d, n=%d)", i, k, n)
	}
	if i == k {
		return nil
	}
	lo, hi := i, k
	if lo > hi {
		lo, hi = hi, lo
	}
	loNode := parent.ChildAt(lo)
	hiNode := parent.ChildAt(hi)
	if err := t.RemoveChild(parent, hiNode); err != nil {
		return err
	}
	if err := t.RemoveChild(parent, loNode); err != nil {
		return err
	}
	if err := t.AddChildAt(parent, lo, hiNode); err != nil {
		return err
	}
	if err := t.AddChildAt(parent, hi, loNode); err != nil {
		return err
	}
	return nil
}

// DeepCopy produces an isomorphic clone of t: same names, same opaque
// metadata (shallow-copied, since the tree never inspects it), same
// ancestor counts, but a fresh arena with independent, mutable child
// lists. It returns the clone and a map from every node of t to its
// counterpart in the clone, built in the same pass.
func DeepCopy(t *Tree) (*Tree, map[Node]Node) {
	clone := New()
	copyMap := make(map[Node]Node, len(t.nodes))
	if t.root == noParent {
		return clone, copyMap
	}

	var walk func(from, to Node)
	walk = func(from, to Node) {
		to.data().metadata = from.data().metadata
		if from.data().hasExternal {
			to.SetExternalID(from.data().externalID)
		}
		copyMap[from] = to
		for _, fromChild := range from.Children() {
			toChild := clone.CreateChild(to, fromChild.Name())
			walk(fromChild, toChild)
		}
	}

	origRoot := t.Root()
	cloneRoot := clone.CreateRoot(origRoot.Name())
	walk(origRoot, cloneRoot)

	return clone, copyMap
}

// Signature renders n's subtree in function-like notation: a leaf
// renders as its name, an internal node as name(child1,child2,...).
// This is the inverse of treeio.Parse.
func Signature(n Node) string {
	if n.IsZero() {
		return ""
	}
	if n.IsLeaf() {
		return n.Name()
	}
	var b strings.Builder
	b.WriteString(n.Name())
	b.WriteByte('(')
	for i, c := range n.Children() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Signature(c))
	}
	b.WriteByte(')')
	return b.String()
}
