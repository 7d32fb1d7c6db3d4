package filter

// Options configures the filter's documented behavior switches. The
// zero value gives the default behavior: the simple row-prune
// comparison and the symmetric similarity weighting.
type Options struct {
	// RichRowPruneVariant selects the alternate row-pruning comparison
	// inside setStrongestMapping's source-row cleanup. The algorithm
	// circulates in two forms:
	//
	//   - simple (default, false): skip the entry whose target node
	//     equals t, then erase every weaker entry in s's row.
	//   - rich (true): skip the entry whose *source* node equals s
	//     instead. n ranges over target-tree nodes and s is a
	//     source-tree node, so the skip never triggers and every row
	//     entry is compared against the winning relation, t's own
	//     included.
	//
	// t's own entry always holds the winning relation when the loop
	// runs, so the two forms behave identically in practice; the switch
	// exists because the intent differs between them, not the outcome.
	RichRowPruneVariant bool

	// AsymmetricSimilarity attaches the asymmetric (query-vs-reference)
	// similarity to the returned mapping instead of the symmetric one:
	// insertions into the target cost nothing and the distance is
	// normalized by the source size alone.
	AsymmetricSimilarity bool
}
