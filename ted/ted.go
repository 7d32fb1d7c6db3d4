// Package ted computes tree edit distance between two ordered trees
// using the Zhang-Shasha algorithm, parameterized by a pluggable node
// comparator and insert/delete/substitute weights.
package ted

import (
	"sort"

	"github.com/sematrix/spsm/tree"
)

// Comparator reports whether two tree nodes should be treated as equal
// for the purposes of the edit distance (cost-0 substitution). The
// scorer package supplies one backed by a filtered SPSM mapping.
type Comparator func(a, b tree.Node) bool

// DistanceConversion post-processes the raw weighted edit distance
// before Calculate caches it for GetTreeEditDistance, so alternative normalizations
// can be substituted without changing TreeEditDistance's call sites.
type DistanceConversion interface {
	Convert(raw float64, sourceSize, targetSize int) float64
}

// WorstCaseDistanceConversion returns the raw distance unchanged.
type WorstCaseDistanceConversion struct{}

// Convert implements DistanceConversion.
func (WorstCaseDistanceConversion) Convert(raw float64, _, _ int) float64 {
	return raw
}

// Default edit weights and the path-length safeguard.
const (
	DefaultPathLengthLimit  = 512
	DefaultWeightInsert     = 1.0
	DefaultWeightDelete     = 1.0
	DefaultWeightSubstitute = 1.0
)

// Option configures an optional TreeEditDistance parameter.
type Option func(*TreeEditDistance)

// WithPathLengthLimit overrides DefaultPathLengthLimit.
func WithPathLengthLimit(n int) Option {
	return func(t *TreeEditDistance) { t.pathLengthLimit = n }
}

// WithWeightInsert overrides DefaultWeightInsert.
func WithWeightInsert(w float64) Option {
	return func(t *TreeEditDistance) { t.wInsert = w }
}

// WithWeightDelete overrides DefaultWeightDelete.
func WithWeightDelete(w float64) Option {
	return func(t *TreeEditDistance) { t.wDelete = w }
}

// WithWeightSubstitute overrides DefaultWeightSubstitute.
func WithWeightSubstitute(w float64) Option {
	return func(t *TreeEditDistance) { t.wSubstitute = w }
}

// TreeEditDistance computes the weighted tree edit distance between two
// ordered trees. Construct with New, then call Calculate before reading
// GetTreeEditDistance.
type TreeEditDistance struct {
	source, target  *tree.Tree
	comparator      Comparator
	conversion      DistanceConversion
	pathLengthLimit int
	wInsert         float64
	wDelete         float64
	wSubstitute     float64

	distance   float64
	calculated bool
}

// New constructs a TreeEditDistance calculator between source and
// target, using comparator for node equality and conversion for the
// final distance post-processing.
func New(source, target *tree.Tree, comparator Comparator, conversion DistanceConversion, opts ...Option) *TreeEditDistance {
	t := &TreeEditDistance{
		source:          source,
		target:          target,
		comparator:      comparator,
		conversion:      conversion,
		pathLengthLimit: DefaultPathLengthLimit,
		wInsert:         DefaultWeightInsert,
		wDelete:         DefaultWeightDelete,
		wSubstitute:     DefaultWeightSubstitute,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Calculate runs the Zhang-Shasha algorithm and caches the result for
// GetTreeEditDistance.
func (t *TreeEditDistance) Calculate() {
	raw := t.zhangShasha()
	t.distance = t.conversion.Convert(raw, t.source.NodeCount(), t.target.NodeCount())
	t.calculated = true
}

// GetTreeEditDistance returns the distance computed by the last call to
// Calculate. It returns 0 if Calculate has not been called yet.
func (t *TreeEditDistance) GetTreeEditDistance() float64 {
	if !t.calculated {
		return 0
	}
	return t.distance
}

// postorder walks root's subtree (or the empty tree if root is the zero
// Node)
// and returns its nodes in postorder (1-indexed; index 0 is an unused
// sentinel) along with l, the postorder index of each node's leftmost
// leaf descendant.
func postorder(root tree.Node) (nodes []tree.Node, l []int) {
	nodes = []tree.Node{{}}
	l = []int{0}
	if root.IsZero() {
		return nodes, l
	}

	leftmost := make(map[tree.Node]int)

	var walk func(n tree.Node)
	walk = func(n tree.Node) {
		children := n.Children()
		for _, c := range children {
			walk(c)
		}
		nodes = append(nodes, n)
		idx := len(nodes) - 1
		if len(children) == 0 {
			leftmost[n] = idx
		} else {
			leftmost[n] = leftmost[children[0]]
		}
		l = append(l, leftmost[n])
	}
	walk(root)
	return nodes, l
}

// keyroots returns, for a postorder-labeled tree, the ascending set of
// keyroot indices: the root plus every node that has a left sibling.
// This is the standard reformulation of "no node with a larger postorder
// index shares the same leftmost-leaf-descendant" used to drive the
// Zhang-Shasha double loop.
func keyroots(nodes []tree.Node) []int {
	n := len(nodes) - 1
	kr := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		node := nodes[i]
		parent, ok := node.Parent()
		if !ok {
			kr = append(kr, i)
			continue
		}
		siblings := parent.Children()
		if len(siblings) > 0 && siblings[0] != node {
			kr = append(kr, i)
		}
	}
	sort.Ints(kr)
	return kr
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func (t *TreeEditDistance) zhangShasha() float64 {
	sourceNodes, l1 := postorder(t.source.Root())
	targetNodes, l2 := postorder(t.target.Root())
	n := len(sourceNodes) - 1
	m := len(targetNodes) - 1

	switch {
	case n == 0 && m == 0:
		return 0
	case n == 0:
		return float64(m) * t.wInsert
	case m == 0:
		return float64(n) * t.wDelete
	}

	if n > t.pathLengthLimit || m > t.pathLengthLimit {
		// Safeguard against the algorithm's O(n^2 m^2) worst case on
		// pathologically large trees: fall back to the coarse upper
		// bound of deleting everything from source and inserting
		// everything into target.
		return float64(n)*t.wDelete + float64(m)*t.wInsert
	}

	kr1 := keyroots(sourceNodes)
	kr2 := keyroots(targetNodes)

	treedist := make([][]float64, n+1)
	for i := range treedist {
		treedist[i] = make([]float64, m+1)
	}

	for _, i := range kr1 {
		for _, j := range kr2 {
			t.treeDist(sourceNodes, targetNodes, l1, l2, i, j, treedist)
		}
	}

	return treedist[n][m]
}

// treeDist fills in treedist[li..i][lj..j] for the subforest pair rooted
// at keyroots i and j, following Zhang & Shasha (1989).
func (t *TreeEditDistance) treeDist(sourceNodes, targetNodes []tree.Node, l1, l2 []int, i, j int, treedist [][]float64) {
	li, lj := l1[i], l2[j]
	rows := i - li + 2
	cols := j - lj + 2

	forestdist := make([][]float64, rows)
	for r := range forestdist {
		forestdist[r] = make([]float64, cols)
	}

	for di := li; di <= i; di++ {
		forestdist[di-li+1][0] = forestdist[di-li][0] + t.wDelete
	}
	for dj := lj; dj <= j; dj++ {
		forestdist[0][dj-lj+1] = forestdist[0][dj-lj] + t.wInsert
	}

	for di := li; di <= i; di++ {
		for dj := lj; dj <= j; dj++ {
			ri, cj := di-li+1, dj-lj+1

			del := forestdist[ri-1][cj] + t.wDelete
			ins := forestdist[ri][cj-1] + t.wInsert

			if l1[di] == li && l2[dj] == lj {
				substCost := t.wSubstitute
				if t.comparator(sourceNodes[di], targetNodes[dj]) {
					substCost = 0
				}
				sub := forestdist[ri-1][cj-1] + substCost
				forestdist[ri][cj] = min3(del, ins, sub)
				treedist[di][dj] = forestdist[ri][cj]
			} else {
				bi, bj := l1[di]-1-li+1, l2[dj]-1-lj+1
				sub := forestdist[bi][bj] + treedist[di][dj]
				forestdist[ri][cj] = min3(del, ins, sub)
			}
		}
	}
}
