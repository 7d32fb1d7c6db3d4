// Package scorer computes a similarity score for a filtered mapping
// matrix via tree edit distance. Symmetric treats source and target
// sizes equally; Asymmetric weights insertions into the target at zero
// cost, so a reference tree that is a superset of the query tree does
// not depress the score.
package scorer

import (
	"github.com/sematrix/spsm/mapping"
	"github.com/sematrix/spsm/relation"
	"github.com/sematrix/spsm/ted"
	"github.com/sematrix/spsm/tree"
)

// Params carries the tunable edit-distance parameters. The zero value
// is not useful; start from DefaultParams.
type Params struct {
	PathLengthLimit  int
	WeightInsert     float64
	WeightDelete     float64
	WeightSubstitute float64
}

// DefaultParams returns the standard unit edit weights and path-length
// safeguard.
func DefaultParams() Params {
	return Params{
		PathLengthLimit:  ted.DefaultPathLengthLimit,
		WeightInsert:     ted.DefaultWeightInsert,
		WeightDelete:     ted.DefaultWeightDelete,
		WeightSubstitute: ted.DefaultWeightSubstitute,
	}
}

// MatchedComparator returns a ted.Comparator treating two nodes as equal
// iff m relates them with relation.EQ. Any other relation, or none,
// counts as a substitution.
func MatchedComparator(m *mapping.Matrix) ted.Comparator {
	return func(a, b tree.Node) bool {
		return m.Get(a, b) == relation.EQ
	}
}

// Symmetric computes 1 - ted/max(|source|,|target|), clamped to [0,1].
func Symmetric(m *mapping.Matrix) float64 {
	return SymmetricWith(m, DefaultParams())
}

// SymmetricWith is Symmetric with explicit edit-distance parameters.
func SymmetricWith(m *mapping.Matrix, p Params) float64 {
	return score(m, p, symmetricDenominator)
}

// Asymmetric computes 1 - ted/|source| with the insert weight forced to
// zero, clamped to [0,1]. Intended for scoring a query tree against a
// reference tree that may legitimately be larger.
func Asymmetric(m *mapping.Matrix) float64 {
	return AsymmetricWith(m, DefaultParams())
}

// AsymmetricWith is Asymmetric with explicit edit-distance parameters.
// The insert weight is forced to zero regardless of p.WeightInsert.
func AsymmetricWith(m *mapping.Matrix, p Params) float64 {
	p.WeightInsert = 0
	return score(m, p, asymmetricDenominator)
}

func symmetricDenominator(m *mapping.Matrix) float64 {
	s, t := m.SourceContext().NodeCount(), m.TargetContext().NodeCount()
	if s > t {
		return float64(s)
	}
	return float64(t)
}

func asymmetricDenominator(m *mapping.Matrix) float64 {
	return float64(m.SourceContext().NodeCount())
}

func score(m *mapping.Matrix, p Params, denom func(*mapping.Matrix) float64) float64 {
	calc := ted.New(
		m.SourceContext(), m.TargetContext(), MatchedComparator(m), ted.WorstCaseDistanceConversion{},
		ted.WithPathLengthLimit(p.PathLengthLimit),
		ted.WithWeightInsert(p.WeightInsert),
		ted.WithWeightDelete(p.WeightDelete),
		ted.WithWeightSubstitute(p.WeightSubstitute),
	)
	calc.Calculate()
	ed := calc.GetTreeEditDistance()

	d := denom(m)
	if d == 0 {
		return 1
	}
	sim := 1 - ed/d
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}
