package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SearchTerm is one externally supplied search record: a unique ID plus
// arbitrary caller-defined string fields (e.g. Artist, Title). Immutable.
type SearchTerm struct {
	ID     int
	Fields map[string]string
}

// UnmarshalJSON accepts the flat input shape {"id": 1, "Artist": "...", ...}
// where every non-id field becomes a string entry in Fields.
func (t *SearchTerm) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Fields = make(map[string]string)
	for k, v := range raw {
		if k == "id" {
			switch id := v.(type) {
			case float64:
				t.ID = int(id)
			default:
				return fmt.Errorf("search term id must be an integer, got %T", v)
			}
			continue
		}
		if s, ok := v.(string); ok {
			t.Fields[k] = s
		} else {
			t.Fields[k] = fmt.Sprint(v)
		}
	}
	return nil
}

// MarshalJSON emits the same flat shape the input uses.
func (t SearchTerm) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Fields)+1)
	out["id"] = t.ID
	for k, v := range t.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// BuildQuery assembles the query string for this term. Artist and Title
// are used when present (the dominant input shape); only when neither
// exists do the remaining fields contribute, in sorted key order so the
// result is deterministic.
func (t SearchTerm) BuildQuery() string {
	var parts []string
	for _, key := range []string{"Artist", "Title"} {
		if v, ok := t.Fields[key]; ok && v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		rest := make([]string, 0, len(t.Fields))
		for k := range t.Fields {
			rest = append(rest, k)
		}
		sort.Strings(rest)
		for _, k := range rest {
			if v := t.Fields[k]; v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, " ")
}

// ValidateTerms checks an input term list before any network activity:
// at least one term, unique positive IDs, at least one usable field each.
func ValidateTerms(terms []SearchTerm) error {
	if len(terms) == 0 {
		return NewError(ErrCodeInvalidInput, "no search terms supplied", nil)
	}
	seen := make(map[int]bool, len(terms))
	for i, t := range terms {
		if seen[t.ID] {
			return NewError(ErrCodeInvalidInput,
				fmt.Sprintf("duplicate search term id %d", t.ID), nil)
		}
		seen[t.ID] = true
		if t.BuildQuery() == "" {
			return NewError(ErrCodeInvalidInput,
				fmt.Sprintf("search term %d (index %d) has no searchable fields", t.ID, i), nil)
		}
	}
	return nil
}
