package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/fhir"
)

// Op is the tag of a compiled instruction. The set is closed: every
// expression in a mapping table compiles to a sequence of these.
type Op uint8

const (
	OpField   Op = iota + 1 // descend into an object member
	OpIndex                 // pick one array element by position
	OpMatch                 // pick the first array element whose key equals a value
	OpEach                  // apply the rest of the path to every array element
	OpRef                   // reduce a reference string to its id
	OpDefault               // substitute a literal when the result is empty
	OpLiteral               // constant value, ignores the resource
)

func (o Op) String() string {
	switch o {
	case OpField:
		return "field"
	case OpIndex:
		return "index"
	case OpMatch:
		return "match"
	case OpEach:
		return "each"
	case OpRef:
		return "ref"
	case OpDefault:
		return "default"
	case OpLiteral:
		return "literal"
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

type Instr struct {
	Op    Op
	Name  string // member name for OpField, key for OpMatch
	Index int
	Value string // comparison value for OpMatch, text for OpDefault and OpLiteral
}

// Expr is a compiled path expression.
type Expr struct {
	src  string
	path []Instr
	mods []Instr
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Compile parses a path expression such as
//
//	name[0].given[0]
//	telecom[system=phone].value
//	participant[*].individual.reference | ref
//	status | default=unknown
//	'active'
func Compile(src string) (*Expr, error) {
	parts := splitOutside(src, '|')
	head := strings.TrimSpace(parts[0])
	if head == "" {
		return nil, fmt.Errorf("expression %q: empty path", src)
	}

	e := &Expr{src: src}
	if strings.HasPrefix(head, "'") {
		if len(head) < 2 || !strings.HasSuffix(head, "'") {
			return nil, fmt.Errorf("expression %q: unterminated literal", src)
		}
		e.path = []Instr{{Op: OpLiteral, Value: head[1 : len(head)-1]}}
	} else {
		path, err := compilePath(head)
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", src, err)
		}
		e.path = path
	}

	for _, m := range parts[1:] {
		m = strings.TrimSpace(m)
		switch {
		case m == "ref":
			e.mods = append(e.mods, Instr{Op: OpRef})
		case strings.HasPrefix(m, "default="):
			e.mods = append(e.mods, Instr{Op: OpDefault, Value: strings.TrimPrefix(m, "default=")})
		default:
			return nil, fmt.Errorf("expression %q: unknown modifier %q", src, m)
		}
	}
	return e, nil
}

func compilePath(s string) ([]Instr, error) {
	var prog []Instr
	for _, seg := range splitOutside(s, '.') {
		name, sel, hasSel := strings.Cut(seg, "[")
		name = strings.TrimSpace(name)
		if !identPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid member name %q", name)
		}
		prog = append(prog, Instr{Op: OpField, Name: name})
		if !hasSel {
			continue
		}
		if !strings.HasSuffix(sel, "]") || strings.Count(sel, "]") != 1 {
			return nil, fmt.Errorf("malformed selector in %q", seg)
		}
		sel = strings.TrimSuffix(sel, "]")

		switch {
		case sel == "*":
			prog = append(prog, Instr{Op: OpEach})
		case strings.Contains(sel, "="):
			key, val, _ := strings.Cut(sel, "=")
			if !identPattern.MatchString(key) {
				return nil, fmt.Errorf("invalid match key %q", key)
			}
			prog = append(prog, Instr{Op: OpMatch, Name: key, Value: val})
		default:
			idx, err := strconv.Atoi(sel)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("invalid index %q", sel)
			}
			prog = append(prog, Instr{Op: OpIndex, Index: idx})
		}
	}
	return prog, nil
}

// splitOutside splits s on sep, ignoring separators inside brackets or
// single quotes.
func splitOutside(s string, sep byte) []string {
	var parts []string
	depth, quoted, start := 0, false, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func (e *Expr) String() string { return e.src }

// Eval applies the expression to a decoded JSON tree. Missing members and
// out-of-range indexes yield nil. A shape the expression cannot walk yields
// an error.
func (e *Expr) Eval(tree any) (any, error) {
	var (
		v   any
		err error
	)
	if len(e.path) == 1 && e.path[0].Op == OpLiteral {
		v = e.path[0].Value
	} else if v, err = evalPath(tree, e.path); err != nil {
		return nil, err
	}

	for _, m := range e.mods {
		switch m.Op {
		case OpRef:
			if v, err = refValue(v); err != nil {
				return nil, err
			}
		case OpDefault:
			if isEmpty(v) {
				v = m.Value
			}
		}
	}
	return v, nil
}

func evalPath(v any, path []Instr) (any, error) {
	for i, in := range path {
		if v == nil {
			if in.Op == OpEach {
				return []any{}, nil
			}
			return nil, nil
		}
		switch in.Op {
		case OpField:
			obj, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("cannot read member %q of %s", in.Name, kindOf(v))
			}
			v = obj[in.Name]
		case OpIndex:
			arr, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("cannot index %s", kindOf(v))
			}
			if in.Index >= len(arr) {
				return nil, nil
			}
			v = arr[in.Index]
		case OpMatch:
			arr, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("cannot select [%s=%s] from %s", in.Name, in.Value, kindOf(v))
			}
			var found any
			for _, el := range arr {
				if obj, ok := el.(map[string]any); ok && scalarText(obj[in.Name]) == in.Value {
					found = el
					break
				}
			}
			v = found
		case OpEach:
			arr, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("cannot iterate %s", kindOf(v))
			}
			rest := path[i+1:]
			nested := hasEach(rest)
			out := make([]any, 0, len(arr))
			for _, el := range arr {
				r, err := evalPath(el, rest)
				if err != nil {
					return nil, err
				}
				if r == nil {
					continue
				}
				if sub, ok := r.([]any); ok && nested {
					out = append(out, sub...)
					continue
				}
				out = append(out, r)
			}
			return out, nil
		}
	}
	return v, nil
}

func hasEach(path []Instr) bool {
	for _, in := range path {
		if in.Op == OpEach {
			return true
		}
	}
	return false
}

func refValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if id := fhir.ReferenceID(t); id != "" {
			return id, nil
		}
		return nil, nil
	case []any:
		out := make([]any, 0, len(t))
		for _, el := range t {
			s, ok := el.(string)
			if !ok {
				return nil, fmt.Errorf("reference list holds %s", kindOf(el))
			}
			if id := fhir.ReferenceID(s); id != "" {
				out = append(out, id)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot read a reference from %s", kindOf(v))
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func kindOf(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
