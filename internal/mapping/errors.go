package mapping

import "fmt"

// Error reports that a single resource could not be mapped. The resource is
// skipped; the rest of the collection is unaffected.
type Error struct {
	ResourceType string
	ExternalID   string
	Field        string
	Expr         string
	Err          error
}

func (e *Error) Error() string {
	msg := "mapping"
	if e.ResourceType != "" {
		msg += " " + e.ResourceType
	}
	if e.ExternalID != "" {
		msg += "/" + e.ExternalID
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %s", e.Field)
	}
	if e.Expr != "" {
		msg += fmt.Sprintf(" (%s)", e.Expr)
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
