// Package filter implements the structure-preserving semantic matching
// (SPSM) filter: it prunes a dense candidate relation matrix down to a
// one-to-one, structure-preserving mapping, coordinating that pruning
// with a recursive sibling-reordering pass over a copy of the input
// trees.
package filter

import (
	"log/slog"
	"strings"

	"github.com/sematrix/spsm/mapping"
	"github.com/sematrix/spsm/relation"
	"github.com/sematrix/spsm/scorer"
	"github.com/sematrix/spsm/tree"
)

// relationScanOrder is the fixed [EQ, MG, LG] order filterSiblings tries
// at each sibling position. DJ and IDK never participate in sibling
// matching.
var relationScanOrder = [...]relation.Relation{relation.EQ, relation.MG, relation.LG}

// engine carries the mutable state threaded through one Process call:
// the per-depth traversal cursors for the sibling-reordering pass, plus
// the behavior switches and log destination.
type engine struct {
	opts    Options
	logger  *slog.Logger
	sourceI []int // cursor stacks indexed by tree depth
	targetI []int
}

// Process runs the SPSM filter over candidate and returns the filtered
// mapping over a reordered copy of the source and target trees; an
// empty candidate is returned unchanged instead. candidate is mutated in
// place and must be treated as consumed by the caller afterward.
func Process(candidate *mapping.Matrix) (*mapping.Matrix, error) {
	return ProcessWithOptions(candidate, Options{}, slog.Default())
}

// ProcessWithOptions is Process with explicit behavior-switch and logger
// injection.
func ProcessWithOptions(candidate *mapping.Matrix, opts Options, logger *slog.Logger) (*mapping.Matrix, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if candidate.Size() == 0 {
		return candidate, nil
	}

	sourceTree := candidate.SourceContext()
	targetTree := candidate.TargetContext()

	reorderedSource, sourceCopyMap := tree.DeepCopy(sourceTree)
	reorderedTarget, targetCopyMap := tree.DeepCopy(targetTree)

	// Mirror every candidate entry onto the copies so the reordering
	// pass can consult and prune relations without touching node
	// identity in the original trees.
	unorderedCandidate := mapping.NewMatrix(reorderedSource, reorderedTarget)
	for _, e := range candidate.Elements() {
		cs, ok := sourceCopyMap[e.Source]
		if !ok {
			continue
		}
		ct, ok := targetCopyMap[e.Target]
		if !ok {
			continue
		}
		unorderedCandidate.Set(cs, ct, e.Relation)
	}

	spsmMapping := mapping.NewMatrix(sourceTree, targetTree)
	unorderedSpsmMapping := mapping.NewMatrix(reorderedSource, reorderedTarget)

	e := &engine{opts: opts, logger: logger}

	// Root gate: without EQ, MG or LG between the two roots the output
	// stays empty and only the similarity is computed.
	rootRelation := candidate.Get(sourceTree.Root(), targetTree.Root())
	if rootRelation == relation.EQ || rootRelation == relation.MG || rootRelation == relation.LG {
		e.setStrongestMapping(sourceTree.Root(), targetTree.Root(), candidate, spsmMapping)
		e.setStrongestMapping(reorderedSource.Root(), reorderedTarget.Root(), unorderedCandidate, unorderedSpsmMapping)

		if err := e.filterMappingsOfChildren(
			sourceTree.Root(), targetTree.Root(),
			reorderedSource.Root(), reorderedTarget.Root(),
			candidate, unorderedCandidate,
			spsmMapping, unorderedSpsmMapping,
		); err != nil {
			return nil, err
		}
	} else {
		logger.Debug("root gate failed, returning empty mapping",
			"root_relation", rootRelation.String())
	}

	similarity := scorer.Symmetric
	if opts.AsymmetricSimilarity {
		similarity = scorer.Asymmetric
	}
	unorderedSimilarity := similarity(unorderedSpsmMapping)
	orderedSimilarity := similarity(spsmMapping)
	unorderedSpsmMapping.SetSimilarity(unorderedSimilarity)

	logger.Info("filter complete",
		"similarity", unorderedSimilarity,
		"ordered_similarity", orderedSimilarity,
		"mapped_pairs", unorderedSpsmMapping.Size())

	return unorderedSpsmMapping, nil
}

// filterMappingsOfChildren recurses into a matched pair's children. It
// pushes a fresh traversal cursor for this depth, runs the sibling pass
// if both sides have at least one child, then pops the cursor on the
// way out.
func (e *engine) filterMappingsOfChildren(
	sourceParent, targetParent, reorderedSourceParent, reorderedTargetParent tree.Node,
	candidate, unordered, spsmMapping, unorderedSpsmMapping *mapping.Matrix,
) error {
	e.sourceI = append(e.sourceI, 0)
	e.targetI = append(e.targetI, 0)
	defer func() {
		e.sourceI = e.sourceI[:len(e.sourceI)-1]
		e.targetI = e.targetI[:len(e.targetI)-1]
	}()

	if sourceParent.ChildCount() >= 1 && targetParent.ChildCount() >= 1 {
		return e.filterSiblings(
			sourceParent, targetParent, reorderedSourceParent, reorderedTargetParent,
			candidate, unordered, spsmMapping, unorderedSpsmMapping,
		)
	}
	return nil
}

// filterSiblings runs the iterative left-to-right sibling policy: for
// each working source position it tries a direct match, then a forward
// search, in [EQ, MG, LG] order; if nothing matches, the source node is
// swapped past a shrinking working window and retried with the node
// that took its slot.
//
// Siblings are only compared at the same depth under an already-matched
// parent. Descendants of an unmatched parent are dropped: with source
// A(B(C)) and target B(A(C)), the common C is lost because A and B do
// not correspond at the root level. It should be reviewed whether this
// behaviour is intended.
func (e *engine) filterSiblings(
	sourceParent, targetParent, reorderedSourceParent, reorderedTargetParent tree.Node,
	candidate, unordered, spsmMapping, unorderedSpsmMapping *mapping.Matrix,
) error {
	source := sourceParent.Children()
	target := targetParent.Children()

	sourceDepth := len(e.sourceI) - 1
	targetDepth := len(e.targetI) - 1

	srcSize := len(source)

	for e.sourceI[sourceDepth] < srcSize && e.targetI[targetDepth] < len(target) {
		i := e.sourceI[sourceDepth]
		j := e.targetI[targetDepth]
		found := false

		for _, r := range relationScanOrder {
			if candidate.Get(source[i], target[j]) == r {
				e.setStrongestMapping(source[i], target[j], candidate, spsmMapping)

				reorderedSource := reorderedSourceParent.Children()
				reorderedTarget := reorderedTargetParent.Children()
				e.setStrongestMapping(reorderedSource[i], reorderedTarget[j], unordered, unorderedSpsmMapping)

				if err := e.filterMappingsOfChildren(
					source[i], target[j], reorderedSource[i], reorderedTarget[j],
					candidate, unordered, spsmMapping, unorderedSpsmMapping,
				); err != nil {
					return err
				}

				e.sourceI[sourceDepth]++
				e.targetI[targetDepth]++
				found = true
				break
			}

			k := e.findRelatedIndex(source, target, reorderedSourceParent, reorderedTargetParent, r, i, j, candidate, unordered, spsmMapping, unorderedSpsmMapping)
			// The threshold compares against the source cursor rather
			// than the target cursor the forward scan started from; the
			// two cursors only ever advance in lockstep, so the
			// asymmetry is not observable, but it is kept as-is.
			if k > i {
				target[j], target[k] = target[k], target[j]
				if err := tree.SwapChildren(reorderedTargetParent, j, k); err != nil {
					return NewMappingFilterError("swap target siblings", err)
				}

				reorderedSource := reorderedSourceParent.Children()
				reorderedTarget := reorderedTargetParent.Children()

				if err := e.filterMappingsOfChildren(
					source[i], target[j], reorderedSource[i], reorderedTarget[j],
					candidate, unordered, spsmMapping, unorderedSpsmMapping,
				); err != nil {
					return err
				}

				e.sourceI[sourceDepth]++
				e.targetI[targetDepth]++
				found = true
				break
			}
		}

		if !found {
			// No related target among the remaining siblings: push this
			// source node past the working window and shrink it. The
			// cursor stays put so the node that took slot i is retried
			// next.
			last := srcSize - 1
			source[i], source[last] = source[last], source[i]
			if err := tree.SwapChildren(reorderedSourceParent, i, last); err != nil {
				return NewMappingFilterError("swap source siblings", err)
			}
			srcSize--
		}
	}

	return nil
}

// findRelatedIndex scans target[j+1:] for the first node related to
// source[i] by r. On a match it immediately records the strongest
// mapping for that pair and returns the found index; if nothing is
// found it instead resolves the strongest remaining mapping for
// source[i] in isolation and returns -1.
func (e *engine) findRelatedIndex(
	source, target []tree.Node,
	reorderedSourceParent, reorderedTargetParent tree.Node,
	r relation.Relation, i, j int,
	candidate, unordered, spsmMapping, unorderedSpsmMapping *mapping.Matrix,
) int {
	reorderedSource := reorderedSourceParent.Children()
	reorderedTarget := reorderedTargetParent.Children()

	sourceNode := source[i]
	reorderedSourceNode := reorderedSource[i]

	for k := j + 1; k < len(target); k++ {
		targetNode := target[k]
		reorderedTargetNode := reorderedTarget[k]
		if candidate.Get(sourceNode, targetNode) == r {
			e.setStrongestMapping(sourceNode, targetNode, candidate, spsmMapping)
			e.setStrongestMapping(reorderedSourceNode, reorderedTargetNode, unordered, unorderedSpsmMapping)
			return k
		}
	}

	e.computeStrongestMappingForSource(sourceNode, candidate, spsmMapping)
	e.computeStrongestMappingForSource(reorderedSourceNode, unordered, unorderedSpsmMapping)

	return -1
}

// setStrongestMapping commits candidate.Get(s,t) into out when s and t
// are same-structure, then prunes weaker entries from s's row and
// unconditionally clears t's column. When the pair is not
// same-structure it falls back to computeStrongestMappingForSource.
func (e *engine) setStrongestMapping(s, t tree.Node, candidate, out *mapping.Matrix) {
	if !isSameStructure(s, t) {
		e.computeStrongestMappingForSource(s, candidate, out)
		return
	}

	winner := candidate.Get(s, t)
	out.Set(s, t, winner)

	for _, n := range candidate.IterTargetNodes() {
		skip := n == t
		if e.opts.RichRowPruneVariant {
			// The variant compares against s, a source-tree node, which
			// a target-tree node n can never equal, so the skip never
			// triggers. See Options.RichRowPruneVariant.
			skip = false
		}
		if !skip && candidate.Get(s, n) != relation.IDK && relation.IsPrecedent(winner, candidate.Get(s, n)) {
			candidate.Set(s, n, relation.IDK)
		}
	}

	for _, n := range candidate.IterSourceNodes() {
		if n != s {
			candidate.Set(n, t, relation.IDK)
		}
	}
}

// computeStrongestMappingForSource performs the two-pass row selection:
// scan s's row for the strongest same-structure relation (skipping any
// target whose column holds a stronger claim from another source),
// resolve ties, then commit the winner and clear its row and column.
func (e *engine) computeStrongestMappingForSource(s tree.Node, candidate, out *mapping.Matrix) {
	var strongest []mapping.Element
	var strongestTarget tree.Node
	have := false

	for _, j := range candidate.IterTargetNodes() {
		if !isSameStructure(s, j) {
			candidate.Set(s, j, relation.IDK)
			continue
		}
		rel := candidate.Get(s, j)
		if !have {
			if rel != relation.IDK && !e.existsStrongerInColumn(s, j, candidate) {
				strongestTarget = j
				strongest = []mapping.Element{{Source: s, Target: j, Relation: rel}}
				have = true
			}
			continue
		}
		if rel == relation.IDK {
			continue
		}
		if relation.ComparePrecedence(strongest[0].Relation, rel) == -1 && !e.existsStrongerInColumn(s, j, candidate) {
			strongestTarget = j
			strongest[0] = mapping.Element{Source: s, Target: j, Relation: rel}
		}
	}

	if !have || strongest[0].Relation == relation.IDK {
		return
	}

	// Second pass: erase strictly weaker row entries, collect
	// equally-precedent ones as tie candidates.
	for _, j := range candidate.IterTargetNodes() {
		if j == strongestTarget {
			continue
		}
		rel := candidate.Get(s, j)
		if rel == relation.IDK {
			continue
		}
		switch relation.ComparePrecedence(strongest[0].Relation, rel) {
		case 1:
			candidate.Set(s, j, relation.IDK)
		case 0:
			if isSameStructure(s, j) {
				strongest = append(strongest, mapping.Element{Source: s, Target: j, Relation: rel})
			}
		}
	}

	if len(strongest) > 1 {
		e.resolveStrongestMappingConflicts(s, strongest, candidate, out)
		return
	}

	for _, n := range candidate.IterSourceNodes() {
		if n != s {
			candidate.Set(n, strongestTarget, relation.IDK)
		}
	}

	if strongest[0].Relation != relation.IDK {
		out.Add(strongest[0])
		e.deleteRemainingRelationsFromMatrix(strongest[0], candidate)
	}
}

// resolveStrongestMappingConflicts breaks a tie among several
// equally-precedent candidates for s by preferring the one whose name
// matches s's (case-insensitive, trimmed); if none match, the first
// tied candidate wins.
func (e *engine) resolveStrongestMappingConflicts(s tree.Node, strongest []mapping.Element, candidate, out *mapping.Matrix) {
	sourceName := strings.TrimSpace(strings.ToLower(s.Name()))

	winner := -1
	for i, el := range strongest {
		if strings.TrimSpace(strings.ToLower(el.Target.Name())) == sourceName {
			winner = i
			break
		}
	}
	if winner == -1 {
		winner = 0
	}

	if e.logger != nil {
		targets := make([]string, len(strongest))
		for i, el := range strongest {
			targets[i] = el.Target.Name()
		}
		e.logger.Debug("more than one strongest relation", "source", s.Name(), "candidates", targets)
	}

	if strongest[winner].Relation != relation.IDK {
		out.Add(strongest[winner])
		e.deleteRemainingRelationsFromMatrix(strongest[winner], candidate)
	}
}

// deleteRemainingRelationsFromMatrix clears every other entry in el's
// row and column, enforcing the one-to-one invariant once el has been
// chosen as the winner for both its source and target.
func (e *engine) deleteRemainingRelationsFromMatrix(el mapping.Element, candidate *mapping.Matrix) {
	for _, i := range candidate.IterSourceNodes() {
		if i != el.Source {
			candidate.Set(i, el.Target, relation.IDK)
		}
	}
	for _, j := range candidate.IterTargetNodes() {
		if j != el.Target {
			candidate.Set(el.Source, j, relation.IDK)
		}
	}
}

// existsStrongerInColumn reports whether some other source node has a
// relation to t that is more precedent than s's.
func (e *engine) existsStrongerInColumn(s, t tree.Node, candidate *mapping.Matrix) bool {
	current := candidate.Get(s, t)
	for _, i := range candidate.IterSourceNodes() {
		if i == s {
			continue
		}
		other := candidate.Get(i, t)
		if other != relation.IDK && relation.IsPrecedent(other, current) {
			return true
		}
	}
	return false
}

// isSameStructure reports whether s and t are both leaves or both
// internal nodes; two zero (absent) nodes are considered same-structure.
// Leaves stand for parameters and internal nodes for functions, so a
// parameter is never matched to a function.
func isSameStructure(s, t tree.Node) bool {
	sZero, tZero := s.IsZero(), t.IsZero()
	if sZero && tZero {
		return true
	}
	if sZero != tZero {
		return false
	}
	return s.IsLeaf() == t.IsLeaf()
}
