package http

import (
	"net/url"

	"github.com/brendan.keane/apiconform/internal/errors"
)

// ApplyQueryParameters adds params to targetURL. Keys already present in the
// URL are kept alongside the new values.
func ApplyQueryParameters(targetURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return targetURL, nil
	}

	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeValidation, "failed to parse target URL for query parameters").
			WithContext("url", targetURL)
	}

	query := parsedURL.Query()
	for key, value := range params {
		if key == "" {
			continue
		}
		query.Add(key, value)
	}

	// Encode sorts by key
	parsedURL.RawQuery = query.Encode()
	return parsedURL.String(), nil
}
