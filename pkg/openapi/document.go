package openapi

import (
	"strings"
)

// Document is the immutable view of a loaded contract that test runs share.
type Document struct {
	Title       string
	Version     string
	Host        string
	BasePath    string
	Schemes     []string
	Produces    []string
	Paths       []string
	Definitions *Definitions
	Warnings    []Warning
}

// Document builds the shared contract view from the loaded model.
func (p *Parser) Document(opts ...LoadOption) (*Document, error) {
	model, err := p.Model()
	if err != nil {
		return nil, err
	}
	paths, err := p.PathKeys()
	if err != nil {
		return nil, err
	}

	defs, warnings := LoadDefinitions(model, opts...)
	if err := p.BuildError(); err != nil {
		warnings = append([]Warning{{Path: "document", Message: err.Error()}}, warnings...)
	}
	doc := &Document{
		Host:        model.Host,
		BasePath:    model.BasePath,
		Schemes:     model.Schemes,
		Produces:    model.Produces,
		Paths:       paths,
		Definitions: defs,
		Warnings:    warnings,
	}
	if info, _ := p.GetInfo(); info != nil {
		doc.Title = info.Title
		doc.Version = info.Version
	}
	return doc, nil
}

// ResourceNames returns the last segment of every path, skipping path
// parameters, deduplicated in document order.
func (d *Document) ResourceNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, path := range d.Paths {
		name := lastStaticSegment(path)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func lastStaticSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		return seg
	}
	return ""
}
