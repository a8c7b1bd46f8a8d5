package section

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a section did not complete.
type FailureKind string

const (
	// LookupFailure: the design source or element selection could not be resolved.
	LookupFailure FailureKind = "lookup"
	// GenerationFailure: the generation service failed or was unreachable.
	GenerationFailure FailureKind = "generation"
	// PreconditionFailure: the section cannot be generated as configured.
	PreconditionFailure FailureKind = "precondition"
)

var (
	ErrNotFound          = errors.New("section not found")
	ErrSkipped           = errors.New("section is skipped")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSuperseded        = errors.New("result superseded by a newer request")
	ErrMissingSource     = errors.New("clone with kept content requires designRef.sourceId")
)

// Failure is the single human-readable outcome of a failed section attempt.
// Failures are local to one section and always retryable.
type Failure struct {
	Kind      FailureKind
	SectionID string
	Label     string
	Err       error
}

func (f *Failure) Error() string {
	name := f.Label
	if name == "" {
		name = f.SectionID
	}
	switch f.Kind {
	case LookupFailure:
		return fmt.Sprintf("Section %q could not resolve its design source: %v", name, f.Err)
	case PreconditionFailure:
		return fmt.Sprintf("Section %q cannot be generated: %v", name, f.Err)
	default:
		return fmt.Sprintf("Section %q failed to generate: %v", name, f.Err)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf returns the failure kind of err, or "" when err is not a Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
