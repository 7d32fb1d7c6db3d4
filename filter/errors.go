package filter

import "fmt"

// MappingFilterError is the single error kind the filter engine raises.
// It indicates the candidate matrix or trees are structurally
// inconsistent, e.g. a sibling swap was requested against a node whose
// parent cannot be resolved.
type MappingFilterError struct {
	msg   string
	cause error
}

// NewMappingFilterError wraps cause (which may be nil) with a
// human-readable message.
func NewMappingFilterError(msg string, cause error) *MappingFilterError {
	return &MappingFilterError{msg: msg, cause: cause}
}

func (e *MappingFilterError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("spsm: mapping filter error: %s: %v", e.msg, e.cause)
	}
	return fmt.Sprintf("spsm: mapping filter error: %s", e.msg)
}

func (e *MappingFilterError) Unwrap() error {
	return e.cause
}
