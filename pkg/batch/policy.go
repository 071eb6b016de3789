package batch

import (
	"fmt"
	"strings"
)

// FailurePolicy decides what happens to the run when an entry cannot be extracted.
type FailurePolicy string

const (
	// PolicySkip records a null slot for the entry and moves on.
	PolicySkip FailurePolicy = "skip"
	// PolicyAbort closes the output array and stops the run at the failing entry.
	PolicyAbort FailurePolicy = "abort"
)

func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want %q or %q)", value, PolicySkip, PolicyAbort)
	}
}
