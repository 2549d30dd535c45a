package openapi

import (
	"sort"
)

// Kind is the resolved runtime expectation for a schema node.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// kindFromType maps an OpenAPI type keyword onto a Kind.
func kindFromType(t string) (Kind, bool) {
	switch t {
	case "string":
		return KindString, true
	case "integer":
		return KindInteger, true
	case "number":
		return KindNumber, true
	case "boolean":
		return KindBoolean, true
	case "array":
		return KindArray, true
	case "object":
		return KindObject, true
	}
	return KindUnknown, false
}

// Property is one node of a definition tree. Object nodes always carry at
// least one entry in Properties and array nodes always carry Items.
type Property struct {
	Kind   Kind
	Format string
	// Float is set for number nodes formatted as float or double. Other
	// number nodes expect integral values.
	Float      bool
	Enum       []any
	Properties Properties
	Items      *Property
}

// ExpectsInteger reports whether numeric values for this node must be integral.
func (p *Property) ExpectsInteger() bool {
	return p.Kind == KindInteger || (p.Kind == KindNumber && !p.Float)
}

// TypeName is the expected type as shown in failures and rendered trees.
func (p *Property) TypeName() string {
	switch {
	case p.Kind == KindNumber && p.Float:
		return "float"
	case p.Kind == KindNumber:
		return "integer"
	}
	return p.Kind.String()
}

// Properties maps field names to their definitions.
type Properties map[string]*Property

// Names returns the field names in sorted order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Multiplicity selects how a resource envelope carries its data member.
type Multiplicity int

const (
	MultiplicityOne Multiplicity = iota
	MultiplicityMany
)

func (m Multiplicity) String() string {
	if m == MultiplicityMany {
		return "many"
	}
	return "one"
}

// ParseMultiplicity accepts "one" or "many". The empty string means one.
func ParseMultiplicity(s string) (Multiplicity, bool) {
	switch s {
	case "", "one", "single":
		return MultiplicityOne, true
	case "many", "list":
		return MultiplicityMany, true
	}
	return MultiplicityOne, false
}

// Warning is a non-fatal loader diagnostic.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return w.Path + ": " + w.Message
}
