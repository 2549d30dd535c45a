package openapi

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pb33f/libopenapi/datamodel/high/base"
	v2 "github.com/pb33f/libopenapi/datamodel/high/v2"
	"github.com/pb33f/libopenapi/orderedmap"
)

// SpecLoadError reports a definition that cannot be turned into a usable
// property tree. It is scoped to a single definition title.
type SpecLoadError struct {
	Title  string
	Path   string
	Reason string
	Err    error
}

func (e *SpecLoadError) Error() string {
	if e == nil {
		return "spec load error"
	}
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Path == "" || e.Path == e.Title {
		return fmt.Sprintf("definition %q: %s", e.Title, msg)
	}
	return fmt.Sprintf("definition %q at %s: %s", e.Title, e.Path, msg)
}

func (e *SpecLoadError) Unwrap() error { return e.Err }

type loadOptions struct {
	strictKinds bool
}

// LoadOption customizes LoadDefinitions.
type LoadOption func(*loadOptions)

// WithStrictKinds makes nodes with no resolvable kind fail their definition
// instead of producing a warning.
func WithStrictKinds() LoadOption {
	return func(o *loadOptions) { o.strictKinds = true }
}

// LoadDefinitions maps every entry under the document's definitions onto a
// Property tree. Broken definitions are recorded and reported on lookup; the
// rest stay usable.
func LoadDefinitions(model *v2.Swagger, opts ...LoadOption) (*Definitions, []Warning) {
	var schemas *orderedmap.Map[string, *base.SchemaProxy]
	if model != nil && model.Definitions != nil {
		schemas = model.Definitions.Definitions
	}
	return loadSchemas(schemas, opts...)
}

func loadSchemas(schemas *orderedmap.Map[string, *base.SchemaProxy], opts ...LoadOption) (*Definitions, []Warning) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	defs := newDefinitions()
	var warnings []Warning
	if schemas == nil {
		return defs, nil
	}

	for title, proxy := range schemas.FromOldest() {
		b := &treeBuilder{title: title, opts: o}
		prop, err := b.build(proxy, title, []string{"#/definitions/" + title})
		warnings = append(warnings, b.warnings...)
		if err != nil {
			defs.invalid[title] = err
			defs.titles = append(defs.titles, title)
			continue
		}
		defs.add(title, prop)
	}
	defs.sortTitles()
	return defs, warnings
}

type treeBuilder struct {
	title    string
	opts     *loadOptions
	warnings []Warning
}

func (b *treeBuilder) fail(path, reason string, err error) *SpecLoadError {
	return &SpecLoadError{Title: b.title, Path: path, Reason: reason, Err: err}
}

// build converts one schema node. refs holds the $ref chain leading here and
// is used to stop on cycles.
func (b *treeBuilder) build(proxy *base.SchemaProxy, path string, refs []string) (*Property, *SpecLoadError) {
	if proxy == nil {
		return nil, b.fail(path, "missing schema", nil)
	}

	if proxy.IsReference() {
		ref := proxy.GetReference()
		for _, seen := range refs {
			if seen == ref {
				return nil, b.fail(path, "circular reference to "+ref, nil)
			}
		}
		refs = append(refs, ref)
	}

	schema, err := proxy.BuildSchema()
	if err != nil {
		return nil, b.fail(path, "building schema", err)
	}
	if schema == nil {
		return nil, b.fail(path, "missing schema", nil)
	}

	prop := &Property{Format: schema.Format}
	prop.Kind = b.resolveKind(schema, path)
	if prop.Kind == KindUnknown && b.opts.strictKinds {
		return nil, b.fail(path, "unable to resolve type", nil)
	}
	if prop.Kind == KindNumber {
		prop.Float = schema.Format == "float" || schema.Format == "double"
	}
	for _, n := range schema.Enum {
		if n == nil {
			continue
		}
		prop.Enum = append(prop.Enum, enumLiteral(n.ShortTag(), n.Value))
	}

	switch prop.Kind {
	case KindObject:
		if schema.Properties == nil || schema.Properties.Len() == 0 {
			return nil, b.fail(path, "object has no properties", nil)
		}
		prop.Properties = make(Properties, schema.Properties.Len())
		for name, child := range schema.Properties.FromOldest() {
			childProp, err := b.build(child, path+"."+name, refs)
			if err != nil {
				return nil, err
			}
			prop.Properties[name] = childProp
		}
	case KindArray:
		if schema.Items == nil || !schema.Items.IsA() || schema.Items.A == nil {
			return nil, b.fail(path, "array has no items", nil)
		}
		items, err := b.build(schema.Items.A, path+"[]", refs)
		if err != nil {
			return nil, err
		}
		prop.Items = items
	}

	return prop, nil
}

func (b *treeBuilder) resolveKind(schema *base.Schema, path string) Kind {
	for _, t := range schema.Type {
		if t == "null" {
			continue
		}
		if kind, ok := kindFromType(t); ok {
			return kind
		}
		b.warnings = append(b.warnings, Warning{Path: path, Message: fmt.Sprintf("unrecognized type %q", t)})
		return KindUnknown
	}
	if schema.Properties != nil && schema.Properties.Len() > 0 {
		return KindObject
	}
	b.warnings = append(b.warnings, Warning{Path: path, Message: "no type and no properties"})
	return KindUnknown
}

// enumLiteral turns a YAML scalar into the Go value a decoded JSON payload
// would carry for it. Numbers become json.Number.
func enumLiteral(tag, value string) any {
	switch tag {
	case "!!int", "!!float":
		return json.Number(value)
	case "!!bool":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	case "!!null":
		return nil
	}
	return value
}
