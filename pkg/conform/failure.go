package conform

import (
	"fmt"
)

// FailureKind classifies a conformance failure.
type FailureKind string

const (
	FieldCountMismatch FailureKind = "field_count_mismatch"
	MissingField       FailureKind = "missing_field"
	TypeMismatch       FailureKind = "type_mismatch"
	BadDateFormat      FailureKind = "bad_date_format"
	EnumViolation      FailureKind = "enum_violation"
	ErrorCountMismatch FailureKind = "error_count_mismatch"
	DetailMismatch     FailureKind = "detail_mismatch"
)

// Failure is the first point where a payload departs from its definition.
// Field is a dotted path with bracketed indices, e.g. gpaLevels[2].term.
type Failure struct {
	Kind     FailureKind `json:"kind"`
	Field    string      `json:"field,omitempty"`
	Expected any         `json:"expected,omitempty"`
	Actual   any         `json:"actual,omitempty"`
}

func (f *Failure) Error() string {
	field := f.Field
	if field == "" {
		field = "(root)"
	}
	switch f.Kind {
	case FieldCountMismatch:
		return fmt.Sprintf("%s: expected %v fields, got %v", field, f.Expected, f.Actual)
	case MissingField:
		return fmt.Sprintf("%s: missing field", field)
	case TypeMismatch:
		return fmt.Sprintf("%s: expected %v, got %v", field, f.Expected, f.Actual)
	case BadDateFormat:
		return fmt.Sprintf("%s: %q does not match %v", field, f.Actual, f.Expected)
	case EnumViolation:
		return fmt.Sprintf("%s: %v is not one of %v", field, f.Actual, f.Expected)
	case ErrorCountMismatch:
		return fmt.Sprintf("%s: expected %v error, got %v", field, f.Expected, f.Actual)
	case DetailMismatch:
		return fmt.Sprintf("%s: expected %q, got %q", field, f.Expected, f.Actual)
	}
	return fmt.Sprintf("%s: %s", field, f.Kind)
}
