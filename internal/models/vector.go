package models

import (
	"fmt"
	"reflect"
)

// VectorRecord is one entry in an embedding collection.
type VectorRecord struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata"`
}

// QueryResult is the raw top-k answer of a similarity query, closest first.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]any
	Distances []float64
}

// Len returns the number of matches.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Documents)
}

// MetadataFilter is a predicate over entry metadata. A nil filter matches
// every entry.
type MetadataFilter interface {
	Matches(metadata map[string]any) bool
	String() string
}

// Equals matches entries whose Field equals Value.
type Equals struct {
	Field string
	Value any
}

// Matches implements MetadataFilter.
func (e Equals) Matches(metadata map[string]any) bool {
	actual, ok := metadata[e.Field]
	if !ok {
		return false
	}
	return valuesEqual(actual, e.Value)
}

func (e Equals) String() string {
	return fmt.Sprintf("%s = %v", e.Field, e.Value)
}

// And matches entries that satisfy every predicate.
type And []MetadataFilter

// Matches implements MetadataFilter.
func (a And) Matches(metadata map[string]any) bool {
	for _, f := range a {
		if f != nil && !f.Matches(metadata) {
			return false
		}
	}
	return true
}

func (a And) String() string {
	s := "("
	for i, f := range a {
		if i > 0 {
			s += " AND "
		}
		s += f.String()
	}
	return s + ")"
}

// valuesEqual compares metadata values, treating all numeric kinds as equal
// when they hold the same number. Stored numbers may come back as a
// different width than the one the filter was built with.
func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
