// Package spsm wires the filter and scorer packages together into the
// single entry point callers use to match two function-like expression
// trees end-to-end.
package spsm

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sematrix/spsm/filter"
	"github.com/sematrix/spsm/mapping"
	"github.com/sematrix/spsm/tree"
)

// TreeMatcherError wraps a filter.MappingFilterError with the
// source/target pair that was being matched when the filter failed.
type TreeMatcherError struct {
	msg   string
	cause error
}

func (e *TreeMatcherError) Error() string {
	return fmt.Sprintf("spsm: tree matcher: %s: %v", e.msg, e.cause)
}

func (e *TreeMatcherError) Unwrap() error { return e.cause }

// Mode selects which similarity weighting Match attaches to the result.
type Mode int

const (
	// Symmetric scores both trees' sizes equally (default).
	Symmetric Mode = iota
	// Asymmetric scores the source (query) tree against the target
	// (reference) tree without penalizing target-only nodes.
	Asymmetric
)

// Match runs the SPSM filter over candidate and returns the filtered
// mapping with a similarity score computed according to mode. candidate
// is mutated in place; the returned matrix is the filtered result over
// reordered tree copies, not candidate itself. An empty candidate is the
// exception: it is returned unchanged, with no similarity computed.
func Match(candidate *mapping.Matrix, mode Mode) (*mapping.Matrix, error) {
	return MatchWithOptions(candidate, mode, filter.Options{}, slog.Default())
}

// MatchWithOptions is Match with explicit filter-option and logger
// injection, for callers who need the documented behavior switches or
// structured log routing.
func MatchWithOptions(candidate *mapping.Matrix, mode Mode, opts filter.Options, logger *slog.Logger) (*mapping.Matrix, error) {
	source, target := candidate.SourceContext(), candidate.TargetContext()

	opts.AsymmetricSimilarity = mode == Asymmetric

	filtered, err := filter.ProcessWithOptions(candidate, opts, logger)
	if err != nil {
		var mfe *filter.MappingFilterError
		if errors.As(err, &mfe) {
			return nil, &TreeMatcherError{
				msg:   fmt.Sprintf("matching source[%s] against target[%s]", tree.Signature(source.Root()), tree.Signature(target.Root())),
				cause: mfe,
			}
		}
		return nil, err
	}

	return filtered, nil
}
