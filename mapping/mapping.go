// Package mapping implements the candidate mapping matrix and the output
// context mapping: a mutable, sparse two-argument relation between the
// nodes of a source tree and a target tree.
package mapping

import (
	"github.com/sematrix/spsm/relation"
	"github.com/sematrix/spsm/tree"
)

// Element is an immutable mapping triple. Relation is never IDK: writing
// IDK into a Matrix deletes the entry rather than storing it.
type Element struct {
	Source   tree.Node
	Target   tree.Node
	Relation relation.Relation
}

type pairKey struct {
	s tree.Node
	t tree.Node
}

// Matrix is a mutable partial function (source_node, target_node) ->
// Relation, tied to a specific source and target tree for node
// enumeration. A missing entry reads as relation.IDK.
type Matrix struct {
	sourceContext *tree.Tree
	targetContext *tree.Tree
	entries       map[pairKey]relation.Relation
	similarity    float64
}

// NewMatrix creates an empty matrix over the given source and target
// trees.
func NewMatrix(sourceContext, targetContext *tree.Tree) *Matrix {
	return &Matrix{
		sourceContext: sourceContext,
		targetContext: targetContext,
		entries:       make(map[pairKey]relation.Relation),
	}
}

// SourceContext returns the tree this matrix's source nodes belong to.
func (m *Matrix) SourceContext() *tree.Tree { return m.sourceContext }

// TargetContext returns the tree this matrix's target nodes belong to.
func (m *Matrix) TargetContext() *tree.Tree { return m.targetContext }

// Get returns the relation stored for (s, t), defaulting to relation.IDK
// if no entry exists.
func (m *Matrix) Get(s, t tree.Node) relation.Relation {
	if r, ok := m.entries[pairKey{s, t}]; ok {
		return r
	}
	return relation.IDK
}

// Set stores r for (s, t). Setting relation.IDK deletes any existing
// entry rather than storing it, per the candidate matrix's tombstone
// semantics.
func (m *Matrix) Set(s, t tree.Node, r relation.Relation) {
	key := pairKey{s, t}
	if r == relation.IDK {
		delete(m.entries, key)
		return
	}
	m.entries[key] = r
}

// Add inserts a mapping element. e.Relation must not be relation.IDK.
func (m *Matrix) Add(e Element) {
	m.Set(e.Source, e.Target, e.Relation)
}

// IterSourceNodes returns every node of the source tree, including those
// with no non-IDK entries. Iteration order is deterministic (the source
// tree's creation order) because the filter engine relies on full-row
// scans.
func (m *Matrix) IterSourceNodes() []tree.Node {
	return m.sourceContext.Nodes()
}

// IterTargetNodes returns every node of the target tree, including those
// with no non-IDK entries.
func (m *Matrix) IterTargetNodes() []tree.Node {
	return m.targetContext.Nodes()
}

// Size returns the number of non-IDK entries currently stored.
func (m *Matrix) Size() int {
	return len(m.entries)
}

// Elements returns every surviving (non-IDK) mapping element, in
// unspecified order.
func (m *Matrix) Elements() []Element {
	out := make([]Element, 0, len(m.entries))
	for k, r := range m.entries {
		out = append(out, Element{Source: k.s, Target: k.t, Relation: r})
	}
	return out
}

// SetSimilarity attaches a similarity score to the matrix.
func (m *Matrix) SetSimilarity(s float64) {
	m.similarity = s
}

// Similarity returns the previously attached similarity score.
func (m *Matrix) Similarity() float64 {
	return m.similarity
}
