package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brendan.keane/apiconform/internal/config"
	conformhttp "github.com/brendan.keane/apiconform/pkg/http"
)

// AuthenticatedHTTPClient wraps an HTTP client and applies authentication
// This is used for fetching the OpenAPI document
type AuthenticatedHTTPClient struct {
	client HTTPClientProvider
	config *config.Config
	tokens TokenProvider
	logger zerolog.Logger
}

// NewAuthenticatedHTTPClient creates an HTTP client that applies authentication based on config
func NewAuthenticatedHTTPClient(config *config.Config, tokens TokenProvider, logger zerolog.Logger) *AuthenticatedHTTPClient {
	lambdaClient, err := conformhttp.NewClient()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to create lambda-capable client, falling back to basic client")
		lambdaClient = &conformhttp.Client{Client: http.DefaultClient}
	}

	return newAuthenticatedHTTPClient(lambdaClient, config, tokens, logger)
}

func newAuthenticatedHTTPClient(client HTTPClientProvider, config *config.Config, tokens TokenProvider, logger zerolog.Logger) *AuthenticatedHTTPClient {
	return &AuthenticatedHTTPClient{
		client: client,
		config: config,
		tokens: tokens,
		logger: logger.With().Str("component", "auth_http_client").Logger(),
	}
}

// Do performs an HTTP request with authentication applied if configured.
// The bearer token is only sent to the API host itself.
func (c *AuthenticatedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	logger := c.logger.With().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Logger()

	logger.Debug().Msg("performing authenticated HTTP request")

	var tokens TokenProvider
	if c.tokens != nil && sameHost(req.URL, c.config.Hostname) {
		tokens = c.tokens
	}

	builder := NewRequestBuilder(logger, c.config, nil, tokens)
	if err := builder.applyAuthentication(req.Context(), req, req.URL.String()); err != nil {
		logger.Error().Err(err).Msg("failed to apply authentication")
		return nil, err
	}

	return c.client.Do(req)
}

func sameHost(target *url.URL, hostname string) bool {
	if hostname == "" {
		return false
	}
	u, err := url.Parse(hostname)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, target.Host)
}
