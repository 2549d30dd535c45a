package openapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SetHeaders sets Accept from the document's produces list. It does nothing
// when no document location is configured or produces is empty.
func (v *Viewer) SetHeaders(ctx context.Context, req *http.Request) error {
	if v.specURL == "" {
		return nil
	}

	doc, err := v.Document(ctx)
	if err != nil {
		return err
	}

	if len(doc.Produces) > 0 && req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", strings.Join(doc.Produces, ", "))
	}
	return nil
}

// parseSpecURL helper function to extract scheme and host from the document URL
func (v *Viewer) parseSpecURL() (scheme, host string, err error) {
	if v.specURL == "" {
		return "", "", fmt.Errorf("no spec URL available")
	}

	parsedURL, err := url.Parse(v.specURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing OpenAPI URL: %w", err)
	}

	return parsedURL.Scheme, parsedURL.Host, nil
}

// BaseURL returns scheme://host/basePath from the document. A document
// without host borrows scheme and host from the URL it was fetched from.
func (v *Viewer) BaseURL(ctx context.Context) (string, error) {
	doc, err := v.Document(ctx)
	if err != nil {
		return "", err
	}

	basePath := strings.TrimSuffix(doc.BasePath, "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	if doc.Host != "" {
		scheme := "https"
		if len(doc.Schemes) > 0 && !containsFold(doc.Schemes, "https") {
			scheme = doc.Schemes[0]
		}
		return fmt.Sprintf("%s://%s%s", scheme, doc.Host, basePath), nil
	}

	scheme, host, err := v.parseSpecURL()
	if err != nil {
		return "", fmt.Errorf("no host defined and %w", err)
	}
	if host == "" || scheme == "file" {
		return "", fmt.Errorf("no host defined in document loaded from %s", v.specURL)
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, basePath), nil
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
