package openapi

import (
	"sort"
)

// ErrorTitle is the definition every error envelope is checked against.
const ErrorTitle = "Error"

// Definitions holds the loaded definition trees keyed by title. It is
// read-only once LoadDefinitions returns and safe for concurrent use.
type Definitions struct {
	trees   map[string]*Property
	invalid map[string]*SpecLoadError
	titles  []string
}

func newDefinitions() *Definitions {
	return &Definitions{
		trees:   make(map[string]*Property),
		invalid: make(map[string]*SpecLoadError),
	}
}

func (d *Definitions) add(title string, prop *Property) {
	d.trees[title] = prop
	d.titles = append(d.titles, title)
}

func (d *Definitions) sortTitles() {
	sort.Strings(d.titles)
}

// Titles returns every definition title, including ones that failed to load.
func (d *Definitions) Titles() []string {
	out := make([]string, len(d.titles))
	copy(out, d.titles)
	return out
}

// Invalid returns the load errors keyed by title.
func (d *Definitions) Invalid() map[string]*SpecLoadError {
	out := make(map[string]*SpecLoadError, len(d.invalid))
	for k, v := range d.invalid {
		out[k] = v
	}
	return out
}

// Definition returns the tree for title.
func (d *Definitions) Definition(title string) (*Property, error) {
	if err, ok := d.invalid[title]; ok {
		return nil, err
	}
	prop, ok := d.trees[title]
	if !ok {
		return nil, &SpecLoadError{Title: title, Reason: "definition not found"}
	}
	return prop, nil
}

// Properties returns the top-level fields of an object definition.
func (d *Definitions) Properties(title string) (Properties, error) {
	prop, err := d.Definition(title)
	if err != nil {
		return nil, err
	}
	if prop.Kind != KindObject {
		return nil, &SpecLoadError{Title: title, Reason: "definition is " + prop.Kind.String() + ", not object"}
	}
	return prop.Properties, nil
}

// ResourceAttributes walks a resource envelope down to the attribute fields:
// data.attributes for a single resource, data.items.attributes for a list.
func (d *Definitions) ResourceAttributes(title string, m Multiplicity) (Properties, error) {
	root, err := d.Definition(title)
	if err != nil {
		return nil, err
	}

	path := title + ".data"
	data, err := child(title, root, "data", path)
	if err != nil {
		return nil, err
	}

	if m == MultiplicityMany {
		if data.Kind != KindArray || data.Items == nil {
			return nil, &SpecLoadError{Title: title, Path: path + ".items", Reason: "missing"}
		}
		data = data.Items
		path += ".items"
	}

	attrs, err := child(title, data, "attributes", path+".attributes")
	if err != nil {
		return nil, err
	}
	if attrs.Kind != KindObject {
		return nil, &SpecLoadError{Title: title, Path: path + ".attributes.properties", Reason: "missing"}
	}
	return attrs.Properties, nil
}

func child(title string, parent *Property, name, path string) (*Property, error) {
	if parent.Kind != KindObject {
		return nil, &SpecLoadError{Title: title, Path: path, Reason: "missing"}
	}
	prop, ok := parent.Properties[name]
	if !ok {
		return nil, &SpecLoadError{Title: title, Path: path, Reason: "missing"}
	}
	return prop, nil
}
