package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionFailed marks an entry whose retries were exhausted. It is entry-local, never fatal to a run.
	ErrExtractionFailed = errors.New("extraction failed")
	ErrParse            = errors.New("reply is not valid JSON")
	ErrSchema           = errors.New("reply does not match the result schema")
)

// ParseError carries the reply text that could not be decoded.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// SchemaError reports a reply that decoded but is not a single ookla / open signal object.
type SchemaError struct {
	Text   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrSchema, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrSchema, e.Reason)
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchema}
	}
	return []error{ErrSchema, e.Err}
}
