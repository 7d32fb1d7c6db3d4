// Package relation defines the fixed five-member semantic relation
// enumeration and its total precedence order.
package relation

import "math"

// Relation is one of the five semantic relations a candidate matrix may
// hold between a source node and a target node.
type Relation int

const (
	// EQ means the source and target are semantically equivalent.
	EQ Relation = iota
	// MG means the source is more general than the target.
	MG
	// LG means the source is less general than the target.
	LG
	// DJ means the source and target are disjoint.
	DJ
	// IDK is the absent/tombstone value: unknown, or "no relation".
	// Writing IDK into a mapping matrix deletes the entry.
	IDK
)

// String renders the relation in the single-character fixture notation:
// = > < ! ?.
func (r Relation) String() string {
	switch r {
	case EQ:
		return "="
	case MG:
		return ">"
	case LG:
		return "<"
	case DJ:
		return "!"
	case IDK:
		return "?"
	default:
		return "?"
	}
}

// ParseSymbol maps the single-character fixture notation (=, >, <, !,
// ?) back to a Relation. Any unrecognized symbol is IDK.
func ParseSymbol(s string) Relation {
	switch s {
	case "=":
		return EQ
	case ">":
		return MG
	case "<":
		return LG
	case "!":
		return DJ
	default:
		return IDK
	}
}

// Precedence returns the precedence number for r: 1 is most precedent,
// 5 (IDK) is least. Any value outside the five known relations is treated
// as IDK-equivalent, i.e. maximally unprecedented.
func Precedence(r Relation) int {
	switch r {
	case EQ:
		return 1
	case MG:
		return 2
	case LG:
		return 3
	case DJ:
		return 4
	case IDK:
		return 5
	default:
		return math.MaxInt32
	}
}

// ComparePrecedence compares a and b by precedence. It returns +1 if a is
// strictly more precedent than b (numerically lower precedence number),
// 0 if they are equally precedent, and -1 if a is less precedent than b.
func ComparePrecedence(a, b Relation) int {
	pa, pb := Precedence(a), Precedence(b)
	switch {
	case pa < pb:
		return 1
	case pa == pb:
		return 0
	default:
		return -1
	}
}

// IsPrecedent reports whether a is strictly more precedent than b.
func IsPrecedent(a, b Relation) bool {
	return ComparePrecedence(a, b) == 1
}
