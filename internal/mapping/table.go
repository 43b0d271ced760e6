package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ExternalIDField is the natural key every table must map.
const ExternalIDField = "externalId"

type fieldExpr struct {
	target string
	expr   *Expr
}

// Table is a compiled mapping table for one resource type. It is immutable
// and safe for concurrent use.
type Table struct {
	resourceType string
	fields       []fieldExpr
}

// NewTable compiles mapping (target field -> expression) for resourceType.
// Target names are matched case-insensitively against allowed and stored in
// their canonical spelling. Unknown targets and malformed expressions are
// rejected here, never at apply time.
func NewTable(resourceType string, mapping map[string]string, allowed []string) (*Table, error) {
	canonical := make(map[string]string, len(allowed))
	for _, f := range allowed {
		canonical[strings.ToLower(f)] = f
	}

	t := &Table{resourceType: resourceType}
	seen := make(map[string]bool, len(mapping))
	for name, src := range mapping {
		target, ok := canonical[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%s: unknown target field %q", resourceType, name)
		}
		if seen[target] {
			return nil, fmt.Errorf("%s: field %s mapped twice", resourceType, target)
		}
		seen[target] = true

		expr, err := Compile(src)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", resourceType, target, err)
		}
		t.fields = append(t.fields, fieldExpr{target: target, expr: expr})
	}
	if !seen[ExternalIDField] {
		return nil, fmt.Errorf("%s: %s must be mapped", resourceType, ExternalIDField)
	}

	sort.Slice(t.fields, func(i, j int) bool { return t.fields[i].target < t.fields[j].target })
	return t, nil
}

func (t *Table) ResourceType() string { return t.resourceType }

// Fields returns the mapped target fields in sorted order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.target
	}
	return out
}

// Apply maps one resource into a Record. Every mapped field is present in
// the result; paths missing from the resource come back as nil.
func (t *Table) Apply(resource map[string]any) (Record, error) {
	if rt, ok := resource["resourceType"].(string); ok && rt != t.resourceType {
		return Record{}, &Error{
			ResourceType: t.resourceType,
			Err:          fmt.Errorf("resource is a %s", rt),
		}
	}

	values := make(map[string]any, len(t.fields))
	for _, f := range t.fields {
		v, err := f.expr.Eval(resource)
		if err != nil {
			return Record{}, &Error{
				ResourceType: t.resourceType,
				ExternalID:   scalarText(resource["id"]),
				Field:        f.target,
				Expr:         f.expr.String(),
				Err:          err,
			}
		}
		values[f.target] = v
	}

	rec := Record{values: values}
	if rec.ExternalID() == "" {
		return Record{}, &Error{
			ResourceType: t.resourceType,
			Field:        ExternalIDField,
			Err:          errors.New("natural key is empty"),
		}
	}
	return rec, nil
}
