package http

import (
	"context"
	"net/url"
	"strings"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
)

// urlResolver implements URLResolver interface
// Separates URL resolution logic for better testing
type urlResolver struct {
	config  *config.Config
	openapi OpenAPIProvider
}

// NewURLResolver creates a new URL resolver with the given configuration
func NewURLResolver(config *config.Config, openapi OpenAPIProvider) URLResolver {
	return &urlResolver{
		config:  config,
		openapi: openapi,
	}
}

// ResolveURL builds {base}{resource_path}/{id}/{endpoint}. The base is the
// configured hostname joined with the document's basePath, or the document's
// own scheme, host and basePath when no hostname is set.
func (r *urlResolver) ResolveURL(ctx context.Context, resourceID, endpoint string) (string, error) {
	baseURL, err := r.baseURL(ctx)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeValidation, "invalid base URL").
			WithContext("base_url", baseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", errors.New(errors.ErrorTypeValidation, "hostname must be complete (e.g., https://api.example.edu)").
			WithContext("base_url", baseURL)
	}

	path := strings.TrimSuffix(base.Path, "/")
	for _, segment := range []string{r.config.ResourcePath, resourceID, endpoint} {
		segment = strings.Trim(segment, "/")
		if segment != "" {
			path += "/" + segment
		}
	}
	base.Path = path

	return base.String(), nil
}

func (r *urlResolver) baseURL(ctx context.Context) (string, error) {
	if r.config.Hostname == "" {
		if r.openapi == nil {
			return "", errors.New(errors.ErrorTypeConfig, "no hostname available").
				WithContext("config_type", "target").
				WithContext("suggestion", "set hostname or provide an OpenAPI document with a host")
		}
		baseURL, err := r.openapi.BaseURL(ctx)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeOpenAPI, "failed to get base URL from OpenAPI document")
		}
		return baseURL, nil
	}

	hostname := strings.TrimSuffix(r.config.Hostname, "/")
	if r.openapi == nil {
		return hostname, nil
	}

	doc, err := r.openapi.Document(ctx)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeOpenAPI, "failed to load OpenAPI document")
	}
	basePath := strings.TrimSuffix(doc.BasePath, "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return hostname + basePath, nil
}
