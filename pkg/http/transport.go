package http

import (
	"net/http"
	"sync"
)

// Transport implements http.RoundTripper with Lambda support
type Transport struct {
	*Client
}

// NewTransport creates a new transport with Lambda support
func NewTransport() (*Transport, error) {
	client, err := NewClient()
	if err != nil {
		return nil, err
	}
	return &Transport{Client: client}, nil
}

// RoundTrip implements the http.RoundTripper interface
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "lambda" {
		return t.Do(req)
	}
	// Plain requests skip the wrapped client so redirects are followed once
	rt := t.Client.Client.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt.RoundTrip(req)
}

var defaultClient = sync.OnceValue(func() *http.Client {
	transport, err := NewTransport()
	if err != nil {
		return &http.Client{Transport: http.DefaultTransport}
	}
	return &http.Client{Transport: transport}
})

// DefaultClient returns a shared HTTP client that also understands lambda://
// URLs. AWS configuration is loaded on first use; without it the client
// only speaks HTTP.
func DefaultClient() *http.Client {
	return defaultClient()
}
