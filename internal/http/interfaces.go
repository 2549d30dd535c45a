package http

import (
	"context"
	"net/http"
	"time"

	"github.com/brendan.keane/apiconform/pkg/openapi"
)

// Response is a completed request with its body decoded for assertions
type Response struct {
	Status    int
	Header    http.Header
	Raw       []byte
	Body      any
	DecodeErr error
	Elapsed   time.Duration
	// URL is the final request URL after query encoding and redirects
	URL       string
	RequestID string
}

// HTTPExecutor defines the core HTTP execution interface
// This enables easy mocking and testing of HTTP operations
type HTTPExecutor interface {
	// Get requests endpoint of the resource identified by resourceID
	Get(ctx context.Context, resourceID, endpoint string, params map[string]string) (*Response, error)

	// Fetch performs a GET against an absolute URL with the same headers and auth
	Fetch(ctx context.Context, targetURL string) (*Response, error)
}

// URLResolver defines interface for resolving target URLs
type URLResolver interface {
	ResolveURL(ctx context.Context, resourceID, endpoint string) (string, error)
}

// ResponseHandler defines interface for handling HTTP responses
type ResponseHandler interface {
	HandleResponse(resp *http.Response, targetURL string) (*Response, error)
}

// HTTPClientProvider defines interface for the underlying HTTP client
// Enables testing with mock HTTP clients
type HTTPClientProvider interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenAPIProvider defines interface for contract operations
// Allows testing without real documents
type OpenAPIProvider interface {
	SetHeaders(ctx context.Context, req *http.Request) error
	Document(ctx context.Context) (*openapi.Document, error)
	View(ctx context.Context, title string) (string, error)
	BaseURL(ctx context.Context) (string, error)
}
