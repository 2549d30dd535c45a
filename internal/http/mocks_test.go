package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/brendan.keane/apiconform/pkg/openapi"
)

const studentsSwagger = `swagger: "2.0"
info:
  title: Students
  version: "1.0"
host: api.example.edu
basePath: /v1
schemes: [https]
produces: [application/json]
paths:
  /students/{osuId}/gpa:
    get:
      responses:
        "200":
          description: ok
definitions:
  Error:
    type: object
    properties:
      status:
        type: string
      detail:
        type: string
`

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

type mockHTTPClient struct {
	response *http.Response
	err      error
	requests []*http.Request
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	return m.response, m.err
}

type mockURLResolver struct {
	url string
	err error
}

func (m *mockURLResolver) ResolveURL(ctx context.Context, resourceID, endpoint string) (string, error) {
	return m.url, m.err
}

type mockResponseHandler struct {
	err error
}

func (m *mockResponseHandler) HandleResponse(resp *http.Response, targetURL string) (*Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, URL: targetURL}, nil
}

type mockOpenAPIProvider struct {
	headers      map[string]string
	document     *openapi.Document
	documentErr  error
	baseURL      string
	baseURLError error
}

func (m *mockOpenAPIProvider) SetHeaders(ctx context.Context, req *http.Request) error {
	for key, value := range m.headers {
		req.Header.Set(key, value)
	}
	return nil
}

func (m *mockOpenAPIProvider) Document(ctx context.Context) (*openapi.Document, error) {
	if m.documentErr != nil {
		return nil, m.documentErr
	}
	if m.document == nil {
		return &openapi.Document{}, nil
	}
	return m.document, nil
}

func (m *mockOpenAPIProvider) View(ctx context.Context, title string) (string, error) {
	return title, nil
}

func (m *mockOpenAPIProvider) BaseURL(ctx context.Context) (string, error) {
	return m.baseURL, m.baseURLError
}

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) Token() (*oauth2.Token, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}
