package openapi

import (
	"context"
)

// DefinitionCompletions returns every loadable definition title. The shell
// handles prefix filtering.
func (v *Viewer) DefinitionCompletions(ctx context.Context) ([]string, error) {
	doc, err := v.Document(ctx)
	if err != nil {
		return nil, err
	}

	invalid := doc.Definitions.Invalid()
	var titles []string
	for _, title := range doc.Definitions.Titles() {
		if _, bad := invalid[title]; bad {
			continue
		}
		titles = append(titles, title)
	}
	return titles, nil
}

// PathCompletions returns the document's paths, optionally filtered with the
// same prefix* syntax GetPaths accepts.
func (v *Viewer) PathCompletions(ctx context.Context, filter string) ([]string, error) {
	doc, err := v.Document(ctx)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, path := range doc.Paths {
		if matchesPathFilter(path, filter) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Operations returns the GET operations whose path matches filter
func (v *Viewer) Operations(ctx context.Context, filter string) ([]PathInfo, error) {
	if err := v.ensureSpecLoaded(ctx); err != nil {
		return nil, err
	}
	return v.parser.GetPaths(filter, "GET")
}
