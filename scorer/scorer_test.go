package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sematrix/spsm/mapping"
	"github.com/sematrix/spsm/relation"
	"github.com/sematrix/spsm/tree"
)

// mapped builds two trees from parallel child-name lists and a mapping
// relating equally-named nodes with EQ.
func mapped(sourceChildren, targetChildren []string) *mapping.Matrix {
	s := tree.New()
	sf := s.CreateRoot("f")
	for _, name := range sourceChildren {
		s.CreateChild(sf, name)
	}

	tt := tree.New()
	tf := tt.CreateRoot("f")
	for _, name := range targetChildren {
		tt.CreateChild(tf, name)
	}

	m := mapping.NewMatrix(s, tt)
	m.Set(sf, tf, relation.EQ)
	for _, sn := range s.Nodes() {
		for _, tn := range tt.Nodes() {
			if !sn.IsLeaf() || !tn.IsLeaf() {
				continue
			}
			if sn.Name() == tn.Name() {
				m.Set(sn, tn, relation.EQ)
			}
		}
	}
	return m
}

func TestSymmetricIdentical(t *testing.T) {
	m := mapped([]string{"a", "b"}, []string{"a", "b"})
	assert.Equal(t, 1.0, Symmetric(m))
}

func TestSymmetricExtraSourceLeaf(t *testing.T) {
	m := mapped([]string{"a", "b", "c"}, []string{"a", "b"})
	assert.InDelta(t, 0.75, Symmetric(m), 1e-9)
}

func TestSymmetricEmptyMapping(t *testing.T) {
	m := mapped([]string{"a"}, []string{"a"})
	empty := mapping.NewMatrix(m.SourceContext(), m.TargetContext())
	// Nothing is EQ-mapped, so every node substitutes.
	assert.Equal(t, 0.0, Symmetric(empty))
}

func TestAsymmetricExtraTargetIsFree(t *testing.T) {
	m := mapped([]string{"a", "b"}, []string{"a", "b", "c", "d"})
	assert.Equal(t, 1.0, Asymmetric(m))
	assert.Less(t, Symmetric(m), 1.0)
}

func TestAsymmetricMissingSourcePenalized(t *testing.T) {
	m := mapped([]string{"a", "b", "c"}, []string{"a", "b"})
	// c must be deleted from the query: 1 - 1/4.
	assert.InDelta(t, 0.75, Asymmetric(m), 1e-9)
}

func TestScoresClampAndEmptyTrees(t *testing.T) {
	s := tree.New()
	tt := tree.New()
	m := mapping.NewMatrix(s, tt)
	assert.Equal(t, 1.0, Symmetric(m))
	assert.Equal(t, 1.0, Asymmetric(m))
}

func TestWeightedParams(t *testing.T) {
	m := mapped([]string{"a", "b", "c"}, []string{"a", "b"})
	p := DefaultParams()
	p.WeightDelete = 2
	// ed doubles with the heavier delete weight: 1 - 2/4.
	assert.InDelta(t, 0.5, SymmetricWith(m, p), 1e-9)

	// AsymmetricWith ignores any insert weight the caller sets.
	p = DefaultParams()
	p.WeightInsert = 5
	grown := mapped([]string{"a"}, []string{"a", "x", "y"})
	assert.Equal(t, 1.0, AsymmetricWith(grown, p))
}

func TestMatchedComparator(t *testing.T) {
	m := mapped([]string{"a"}, []string{"a"})
	cmp := MatchedComparator(m)

	sa := m.SourceContext().Nodes()[1]
	ta := m.TargetContext().Nodes()[1]
	assert.True(t, cmp(sa, ta))
	assert.False(t, cmp(ta, sa), "comparator is directional")
	assert.False(t, cmp(m.SourceContext().Root(), ta))
}
