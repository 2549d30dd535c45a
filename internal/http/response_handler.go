package http

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
	"github.com/brendan.keane/apiconform/pkg/conform"
)

// responseHandler implements ResponseHandler interface
// Separates response processing logic for better testing
type responseHandler struct {
	logger zerolog.Logger
	config *config.Config
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(logger zerolog.Logger, config *config.Config) ResponseHandler {
	return &responseHandler{
		logger: logger.With().Str("component", "response_handler").Logger(),
		config: config,
	}
}

// HandleResponse reads the body and decodes it as JSON. A body that is not
// JSON is kept raw with DecodeErr set; only read failures are errors.
func (h *responseHandler) HandleResponse(resp *http.Response, targetURL string) (*Response, error) {
	logger := h.logger.With().
		Int("status", resp.StatusCode).
		Str("content_type", resp.Header.Get("Content-Type")).
		Logger()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read response body")
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "failed to read response body").
			WithContext("url", targetURL)
	}

	result := &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Raw:    body,
		URL:    finalURL(resp, targetURL),
	}

	if len(bytes.TrimSpace(body)) == 0 {
		result.DecodeErr = errors.New(errors.ErrorTypeValidation, "response body is empty")
	} else {
		result.Body, result.DecodeErr = conform.DecodeBytes(body)
	}

	event := logger.Debug().Int("body_length", len(body))
	if result.DecodeErr != nil {
		event = event.AnErr("decode_error", result.DecodeErr)
	}
	event.Msg("response body read")

	if h.config.Debug {
		logger.Debug().
			Str("url", result.URL).
			Interface("headers", resp.Header).
			Msg("response details")
	}

	return result, nil
}

// finalURL returns the URL of the request that produced resp, which differs
// from targetURL after redirects
func finalURL(resp *http.Response, targetURL string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return targetURL
}
