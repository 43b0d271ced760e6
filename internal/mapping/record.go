package mapping

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Record is the flat output of a mapping pass: one value per mapped target
// field. Values are nil, string, float64, bool, []any or map[string]any.
type Record struct {
	values map[string]any
}

// NewRecord builds a Record from literal values. Mostly useful in tests.
func NewRecord(values map[string]any) Record {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Record{values: cp}
}

// Has reports whether field was produced by the mapping pass, even if its
// value is nil.
func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

func (r Record) Value(field string) any {
	return r.values[field]
}

func (r Record) Fields() []string {
	out := make([]string, 0, len(r.values))
	for k := range r.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r Record) ExternalID() string {
	return scalarText(r.values[ExternalIDField])
}

// Ref returns a single foreign identifier. An absent, nil or empty field
// reports false.
func (r Record) Ref(field string) (string, bool, error) {
	v, ok := r.values[field]
	if !ok || v == nil {
		return "", false, nil
	}
	switch t := v.(type) {
	case string:
		return t, t != "", nil
	case []any:
		// a list where one id was expected: take the first
		for _, el := range t {
			if s, ok := el.(string); ok && s != "" {
				return s, true, nil
			}
		}
		return "", false, nil
	}
	return "", false, &Error{Field: field, Err: fmt.Errorf("expected reference id, got %s", kindOf(v))}
}

// Refs returns a list of foreign identifiers, in mapped order with
// duplicates removed. A single string is treated as a one-element list.
func (r Record) Refs(field string) ([]string, error) {
	v, ok := r.values[field]
	if !ok || v == nil {
		return nil, nil
	}
	var raw []any
	switch t := v.(type) {
	case string:
		raw = []any{t}
	case []any:
		raw = t
	default:
		return nil, &Error{Field: field, Err: fmt.Errorf("expected reference ids, got %s", kindOf(v))}
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		s, ok := el.(string)
		if !ok {
			return nil, &Error{Field: field, Err: fmt.Errorf("reference list holds %s", kindOf(el))}
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// MarshalJSON encodes the record with sorted keys, so equal records encode
// to identical bytes.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.values)
}
