package mapping

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Merger copies record fields onto a typed entity. Fields the record does not
// carry leave the destination untouched; a field the record carries as nil
// clears it. The first conversion failure is kept and reported by Err, after
// which every call is a no-op.
type Merger struct {
	rec Record
	err error
}

func NewMerger(rec Record) *Merger {
	return &Merger{rec: rec}
}

func (m *Merger) Err() error { return m.err }

func (m *Merger) take(field string) (any, bool) {
	if m.err != nil || !m.rec.Has(field) {
		return nil, false
	}
	return m.rec.values[field], true
}

func (m *Merger) fail(field string, v any, want string) {
	m.err = &Error{Field: field, Err: fmt.Errorf("expected %s, got %s", want, kindOf(v))}
}

func (m *Merger) String(field string, dst *string) {
	v, ok := m.take(field)
	if !ok {
		return
	}
	s, ok := asString(v)
	if !ok {
		m.fail(field, v, "text")
		return
	}
	*dst = s
}

// StringPtr stores nil for a nil or empty value.
func (m *Merger) StringPtr(field string, dst **string) {
	v, ok := m.take(field)
	if !ok {
		return
	}
	s, ok := asString(v)
	if !ok {
		m.fail(field, v, "text")
		return
	}
	if s == "" {
		*dst = nil
		return
	}
	*dst = &s
}

func (m *Merger) Bool(field string, dst *bool) {
	v, ok := m.take(field)
	if !ok {
		return
	}
	switch t := v.(type) {
	case nil:
		*dst = false
	case bool:
		*dst = t
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			m.fail(field, v, "boolean")
			return
		}
		*dst = b
	default:
		m.fail(field, v, "boolean")
	}
}

func (m *Merger) TimePtr(field string, dst **time.Time) {
	v, ok := m.take(field)
	if !ok {
		return
	}
	if isEmpty(v) {
		*dst = nil
		return
	}
	s, isStr := v.(string)
	if !isStr {
		m.fail(field, v, "date or dateTime")
		return
	}
	ts, err := ParseTime(s)
	if err != nil {
		m.err = &Error{Field: field, Err: err}
		return
	}
	*dst = &ts
}

func (m *Merger) FloatPtr(field string, dst **float64) {
	v, ok := m.take(field)
	if !ok {
		return
	}
	switch t := v.(type) {
	case nil:
		*dst = nil
	case float64:
		*dst = &t
	case string:
		if t == "" {
			*dst = nil
			return
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			m.fail(field, v, "number")
			return
		}
		*dst = &f
	default:
		m.fail(field, v, "number")
	}
}

func (m *Merger) IntPtr(field string, dst **int) {
	v, ok := m.take(field)
	if !ok {
		return
	}
	switch t := v.(type) {
	case nil:
		*dst = nil
	case float64:
		// -MinInt is 2^63 on 64-bit, the first value int cannot hold
		if t != math.Trunc(t) || t < math.MinInt || t >= -float64(math.MinInt) {
			m.fail(field, v, "integer")
			return
		}
		n := int(t)
		*dst = &n
	case string:
		if t == "" {
			*dst = nil
			return
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			m.fail(field, v, "integer")
			return
		}
		*dst = &n
	default:
		m.fail(field, v, "integer")
	}
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64, bool:
		return scalarText(t), true
	}
	return "", false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseTime accepts the FHIR date, dateTime and instant forms, including
// partial dates. Values without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
