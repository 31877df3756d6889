package common

import (
	"errors"
	"fmt"
)

// Error kinds raised by the acquisition and enhancement pipeline.
// Match with errors.Is; wrap with NewError.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrParse      = errors.New("parse failed")
	ErrNotFound   = errors.New("not found")
	ErrSearch     = errors.New("search failed")
	ErrGeneration = errors.New("generation failed")
	ErrValidation = errors.New("validation failed")
	ErrBusy       = errors.New("a run is already in progress")
	ErrExists     = errors.New("already exists")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrNotFound, "not_found"},
	{ErrValidation, "validation"},
	{ErrGeneration, "generation"},
	{ErrSearch, "search"},
	{ErrFetch, "fetch"},
	{ErrParse, "parse"},
	{ErrBusy, "busy"},
	{ErrExists, "exists"},
}

// PipelineError attaches a kind and the failing operation to an underlying error
type PipelineError struct {
	Kind error
	Op   string
	Err  error
}

// NewError wraps err with a kind. err may be nil when the kind alone describes the failure.
func NewError(kind error, op string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: err}
}

// Errorf builds a PipelineError with a formatted message
func Errorf(kind error, op string, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message returns the error text without the kind prefix
func (e *PipelineError) Message() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// KindOf returns the short kind name of err, or "internal" for unclassified errors.
// The outermost PipelineError decides when kinds are nested.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var perr *PipelineError
	if errors.As(err, &perr) {
		if name := kindName(perr.Kind); name != "" {
			return name
		}
	}
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "internal"
}

func kindName(kind error) string {
	for _, k := range kindNames {
		if kind == k.kind {
			return k.name
		}
	}
	return ""
}
