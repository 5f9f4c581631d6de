package invoice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvoiceExpired = errors.New("invoice expired")

// ValidationError carries per-field detail for bad create input. It is
// surfaced to the caller and never retried.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%v: %v", k, e.Fields[k]))
	}
	return "invalid invoice request: " + strings.Join(parts, "; ")
}
