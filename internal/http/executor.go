package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
	logging "github.com/brendan.keane/apiconform/internal/logger"
)

// executor implements HTTPExecutor interface
type executor struct {
	logger          zerolog.Logger
	httpClient      HTTPClientProvider
	urlResolver     URLResolver
	responseHandler ResponseHandler
	requestBuilder  *RequestBuilder
	config          *config.Config
}

// NewExecutorWithDependencies creates a new HTTP executor with injected dependencies
func NewExecutorWithDependencies(
	logger zerolog.Logger,
	httpClient HTTPClientProvider,
	openapi OpenAPIProvider,
	tokens TokenProvider,
	urlResolver URLResolver,
	responseHandler ResponseHandler,
	config *config.Config,
) HTTPExecutor {
	return &executor{
		logger:          logger,
		httpClient:      httpClient,
		urlResolver:     urlResolver,
		responseHandler: responseHandler,
		requestBuilder:  NewRequestBuilder(logger, config, openapi, tokens),
		config:          config,
	}
}

// Get resolves the resource URL, applies params and performs the request
func (e *executor) Get(ctx context.Context, resourceID, endpoint string, params map[string]string) (*Response, error) {
	targetURL, err := e.urlResolver.ResolveURL(ctx, resourceID, endpoint)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to resolve target URL")
		return nil, err
	}

	targetURL, err = ApplyQueryParameters(targetURL, params)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to apply query parameters")
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid query parameters")
	}

	return e.Fetch(ctx, targetURL)
}

// Fetch performs an authenticated GET against targetURL
func (e *executor) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	req, requestID, err := e.requestBuilder.Build(ctx, http.MethodGet, targetURL)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to build HTTP request")
		return nil, err
	}

	logger := logging.ForRequest(e.logger, http.MethodGet, targetURL, requestID)
	logger.Debug().Msg("executing HTTP request")

	startTime := time.Now()
	resp, err := e.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("duration", duration).
			Msg("HTTP request failed")
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "HTTP request failed").
			WithContext("url", targetURL).
			WithContext("duration", duration)
	}
	defer resp.Body.Close()

	result, err := e.responseHandler.HandleResponse(resp, targetURL)
	if err != nil {
		return nil, err
	}
	result.Elapsed = duration
	result.RequestID = requestID

	logger.Debug().
		Int("status", result.Status).
		Dur("duration", duration).
		Msg("HTTP request completed")

	return result, nil
}
