package settings

import (
	"fmt"
	"sort"
	"strings"
)

// RootPath addresses the document as a whole, e.g. when the payload is not an object.
const RootPath = "$"

// FieldError reports one problem with one configuration field.
type FieldError struct {
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Category Category `json:"category,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func newFieldError(path, format string, args ...any) FieldError {
	return FieldError{
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Category: CategoryOf(path),
	}
}

// ValidationErrors is the full, ordered list of problems found in a configuration.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "configuration is valid"
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("configuration has %d error(s): %s", len(v), strings.Join(msgs, "; "))
}

// Err returns nil when there are no errors so callers can use the usual idiom.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Paths lists the failing field paths in order.
func (v ValidationErrors) Paths() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Path
	}
	return out
}

func (v ValidationErrors) ForCategory(c Category) []FieldError {
	out := []FieldError{}
	for _, e := range v {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// sorted orders errors by category, then path, then message, dropping duplicates.
func (v ValidationErrors) sorted() ValidationErrors {
	if len(v) == 0 {
		return nil
	}
	rank := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		rank[c] = i
	}
	out := make(ValidationErrors, len(v))
	copy(out, v)
	sort.SliceStable(out, func(i, j int) bool {
		ri, okI := rank[out[i].Category]
		rj, okJ := rank[out[j].Category]
		if !okI {
			ri = len(Categories)
		}
		if !okJ {
			rj = len(Categories)
		}
		if ri != rj {
			return ri < rj
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	deduped := out[:0]
	for i, e := range out {
		if i > 0 && e == out[i-1] {
			continue
		}
		deduped = append(deduped, e)
	}
	return deduped
}
