package library

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnauthorized is returned when the remote API rejects the bearer token
// or credentials (HTTP 401).
var ErrUnauthorized = errors.New("library: unauthorized")

// ErrNotFound is returned when the requested record does not exist (HTTP 404).
var ErrNotFound = errors.New("library: not found")

// ServerError represents a 5xx response from the remote API.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("library: server error (status %d)", e.StatusCode)
}

// ValidationError carries per-field messages from a rejected write (typically
// HTTP 422). Fields maps a field name to its messages; General holds a
// response-level message when the server sent no field map.
type ValidationError struct {
	Fields  map[string][]string
	General string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.General != "" {
			return "library: validation failed: " + e.General
		}
		return "library: validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], "; "))
	}
	return "library: validation failed: " + strings.Join(parts, ", ")
}

// Messages flattens the error into displayable lines, field messages first.
func (e *ValidationError) Messages() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []string
	for _, name := range names {
		out = append(out, e.Fields[name]...)
	}
	if len(out) == 0 && e.General != "" {
		out = append(out, e.General)
	}
	return out
}
