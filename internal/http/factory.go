package http

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
	conformhttp "github.com/brendan.keane/apiconform/pkg/http"
	"github.com/brendan.keane/apiconform/pkg/openapi"
)

// ClientFactory centralizes HTTP client creation with dependency injection support
type ClientFactory struct {
	logger zerolog.Logger
}

// NewClientFactory creates a new client factory
func NewClientFactory(logger zerolog.Logger) *ClientFactory {
	return &ClientFactory{
		logger: logger,
	}
}

// Session is everything a run needs: the executor and the shared document viewer
type Session struct {
	Executor HTTPExecutor
	Viewer   *openapi.Viewer
}

// CreateViewer creates a document viewer that fetches with the configured auth
func (f *ClientFactory) CreateViewer(cfg *config.Config, tokens TokenProvider) *openapi.Viewer {
	authClient := NewAuthenticatedHTTPClient(cfg, tokens, f.logger)
	return openapi.NewViewer(authClient, cfg.OpenAPIURL, loadOptions(cfg)...)
}

// CreateSession creates the executor and viewer for cfg
func (f *ClientFactory) CreateSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	httpClient, err := conformhttp.NewClient()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNetwork, "failed to create HTTP client")
	}

	tokens := NewTokenSource(ctx, cfg.Auth, httpClient.Client)
	viewer := f.CreateViewer(cfg, tokens)

	return &Session{
		Executor: f.CreateExecutorWithCustomClient(cfg, httpClient, viewer, tokens),
		Viewer:   viewer,
	}, nil
}

// CreateExecutorWithCustomClient creates an HTTPExecutor with a custom HTTP client
// This is useful for testing with mock HTTP clients
func (f *ClientFactory) CreateExecutorWithCustomClient(
	cfg *config.Config,
	httpClient HTTPClientProvider,
	openapi OpenAPIProvider,
	tokens TokenProvider,
) HTTPExecutor {
	resolver := NewURLResolver(cfg, openapi)
	responseHandler := NewResponseHandler(f.logger, cfg)

	return NewExecutorWithDependencies(
		f.logger.With().Str("component", "http_executor").Logger(),
		httpClient,
		openapi,
		tokens,
		resolver,
		responseHandler,
		cfg,
	)
}

// CreateTestSession wires a session over a plain *http.Client, skipping AWS
// configuration entirely
func (f *ClientFactory) CreateTestSession(ctx context.Context, cfg *config.Config, client *http.Client) *Session {
	tokens := NewTokenSource(ctx, cfg.Auth, client)
	authClient := newAuthenticatedHTTPClient(client, cfg, tokens, f.logger)
	viewer := openapi.NewViewer(authClient, cfg.OpenAPIURL, loadOptions(cfg)...)

	return &Session{
		Executor: f.CreateExecutorWithCustomClient(cfg, client, viewer, tokens),
		Viewer:   viewer,
	}
}

func loadOptions(cfg *config.Config) []openapi.LoadOption {
	if cfg.StrictKinds {
		return []openapi.LoadOption{openapi.WithStrictKinds()}
	}
	return nil
}
