package openapi

import (
	"context"
	"fmt"
	"sync"
)

// Viewer loads a contract once on first use and serves rendered views,
// headers and completions from it.
type Viewer struct {
	parser    *Parser
	displayer *Displayer
	specURL   string
	opts      []LoadOption

	once sync.Once
	doc  *Document
	err  error
}

func NewViewer(client HTTPClient, specURL string, opts ...LoadOption) *Viewer {
	return &Viewer{
		parser:    NewParserWithClient(client),
		displayer: NewDisplayer(),
		specURL:   specURL,
		opts:      opts,
	}
}

// ensureSpecLoaded loads the document if it hasn't been loaded yet
func (v *Viewer) ensureSpecLoaded(ctx context.Context) error {
	v.once.Do(func() {
		if v.specURL == "" {
			v.err = fmt.Errorf("no OpenAPI document location configured")
			return
		}
		if err := v.parser.LoadFromURL(ctx, v.specURL); err != nil {
			v.err = fmt.Errorf("loading OpenAPI document: %w", err)
			return
		}
		v.doc, v.err = v.parser.Document(v.opts...)
	})
	return v.err
}

// Document returns the loaded contract.
func (v *Viewer) Document(ctx context.Context) (*Document, error) {
	if err := v.ensureSpecLoaded(ctx); err != nil {
		return nil, err
	}
	return v.doc, nil
}

// View renders one definition, or the index when title is empty.
func (v *Viewer) View(ctx context.Context, title string) (string, error) {
	doc, err := v.Document(ctx)
	if err != nil {
		return "", err
	}
	return renderView(v.displayer, doc, title)
}

func renderView(d *Displayer, doc *Document, title string) (string, error) {
	if title == "" || title == "*" {
		return d.RenderIndex(doc), nil
	}
	prop, err := doc.Definitions.Definition(title)
	if err != nil {
		return "", err
	}
	return d.RenderDefinition(title, prop), nil
}
