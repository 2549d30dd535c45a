package testutil

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	internalhttp "github.com/brendan.keane/apiconform/internal/http"
	"github.com/brendan.keane/apiconform/pkg/conform"
	"github.com/brendan.keane/apiconform/pkg/openapi"
)

// MockHTTPClient records requests and replays a canned response
type MockHTTPClient struct {
	Response *http.Response
	Error    error
	Requests []*http.Request
}

// Do implements the HTTPClientProvider interface
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.Response, m.Error
}

// NewMockHTTPClient creates a mock HTTP client with the given response and error
func NewMockHTTPClient(body string, statusCode int, headers map[string]string, err error) *MockHTTPClient {
	var resp *http.Response
	if err == nil {
		resp = &http.Response{
			StatusCode: statusCode,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}
		for key, value := range headers {
			resp.Header.Set(key, value)
		}
	}
	return &MockHTTPClient{Response: resp, Error: err}
}

// ExecutorCall is one recorded Get
type ExecutorCall struct {
	ResourceID string
	Endpoint   string
	Params     map[string]string
}

// MockHTTPExecutor answers Get from a table keyed by "resourceID/endpoint"
type MockHTTPExecutor struct {
	mu        sync.Mutex
	Responses map[string]*internalhttp.Response
	Errors    map[string]error
	Calls     []ExecutorCall
}

// NewMockHTTPExecutor creates an executor with no canned responses
func NewMockHTTPExecutor() *MockHTTPExecutor {
	return &MockHTTPExecutor{
		Responses: make(map[string]*internalhttp.Response),
		Errors:    make(map[string]error),
	}
}

// RespondJSON registers a decoded JSON response for resourceID/endpoint.
// The body is decoded the way the real response handler decodes it.
func (m *MockHTTPExecutor) RespondJSON(resourceID, endpoint string, status int, body string, elapsed time.Duration) *MockHTTPExecutor {
	decoded, err := conform.DecodeBytes([]byte(body))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[resourceID+"/"+endpoint] = &internalhttp.Response{
		Status:    status,
		Header:    http.Header{"Content-Type": {"application/json"}},
		Raw:       []byte(body),
		Body:      decoded,
		DecodeErr: err,
		Elapsed:   elapsed,
		URL:       "https://api.example.edu/v1/students/" + resourceID + "/" + endpoint,
		RequestID: "req-" + endpoint,
	}
	return m
}

// Fail makes Get for resourceID/endpoint return err
func (m *MockHTTPExecutor) Fail(resourceID, endpoint string, err error) *MockHTTPExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[resourceID+"/"+endpoint] = err
	return m
}

// Get implements internalhttp.HTTPExecutor
func (m *MockHTTPExecutor) Get(ctx context.Context, resourceID, endpoint string, params map[string]string) (*internalhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, ExecutorCall{ResourceID: resourceID, Endpoint: endpoint, Params: params})

	key := resourceID + "/" + endpoint
	if err := m.Errors[key]; err != nil {
		return nil, err
	}
	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}
	return nil, NewMockError("no response registered for " + key)
}

// Fetch implements internalhttp.HTTPExecutor
func (m *MockHTTPExecutor) Fetch(ctx context.Context, targetURL string) (*internalhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, resp := range m.Responses {
		if resp.URL == targetURL {
			return resp, nil
		}
	}
	return nil, NewMockError("no response registered for " + targetURL)
}

// MockDocumentSource serves a document parsed from Swagger text
type MockDocumentSource struct {
	Doc   *openapi.Document
	Error error
}

// NewMockDocumentSource parses spec into a document source
func NewMockDocumentSource(spec string, opts ...openapi.LoadOption) (*MockDocumentSource, error) {
	parser := openapi.NewParser()
	if err := parser.LoadFromBytes([]byte(spec)); err != nil {
		return nil, err
	}
	doc, err := parser.Document(opts...)
	if err != nil {
		return nil, err
	}
	return &MockDocumentSource{Doc: doc}, nil
}

// Document returns the parsed document
func (m *MockDocumentSource) Document(ctx context.Context) (*openapi.Document, error) {
	return m.Doc, m.Error
}

// MockError provides a simple mock error implementation
type MockError struct {
	Message string
}

func (e *MockError) Error() string {
	return e.Message
}

// NewMockError creates a mock error
func NewMockError(message string) *MockError {
	return &MockError{Message: message}
}
