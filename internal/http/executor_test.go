package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
)

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestExecutor_Get(t *testing.T) {
	tests := []struct {
		name          string
		mockResponse  *http.Response
		mockError     error
		resolveURL    string
		resolveError  error
		responseError error
		params        map[string]string
		expectedURL   string
		expectedError errors.ErrorType
	}{
		{
			name:         "successful request",
			mockResponse: okResponse(`{"data": {}}`),
			resolveURL:   "https://api.example.edu/v1/students/931234567/gpa",
			expectedURL:  "https://api.example.edu/v1/students/931234567/gpa",
		},
		{
			name:         "query parameters applied",
			mockResponse: okResponse(`{"data": []}`),
			resolveURL:   "https://api.example.edu/v1/students/931234567/class-schedule",
			params:       map[string]string{"term": "201901"},
			expectedURL:  "https://api.example.edu/v1/students/931234567/class-schedule?term=201901",
		},
		{
			name:          "URL resolution failure",
			resolveError:  errors.New(errors.ErrorTypeConfig, "no hostname available"),
			expectedError: errors.ErrorTypeConfig,
		},
		{
			name:          "HTTP request failure",
			mockError:     &mockError{msg: "network error"},
			resolveURL:    "https://api.example.edu/v1/students/931234567/gpa",
			expectedError: errors.ErrorTypeNetwork,
		},
		{
			name:          "response handling failure",
			mockResponse:  okResponse(`{}`),
			resolveURL:    "https://api.example.edu/v1/students/931234567/gpa",
			responseError: errors.New(errors.ErrorTypeNetwork, "failed to read response body"),
			expectedError: errors.ErrorTypeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockHTTPClient{response: tt.mockResponse, err: tt.mockError}

			executor := NewExecutorWithDependencies(
				zerolog.New(nil),
				client,
				nil,
				nil,
				&mockURLResolver{url: tt.resolveURL, err: tt.resolveError},
				&mockResponseHandler{err: tt.responseError},
				config.NewConfig(),
			)

			resp, err := executor.Get(context.Background(), "931234567", "gpa", tt.params)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, errors.GetType(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 200, resp.Status)
			assert.NotEmpty(t, resp.RequestID)
			require.Len(t, client.requests, 1)
			assert.Equal(t, tt.expectedURL, client.requests[0].URL.String())
			assert.Equal(t, resp.RequestID, client.requests[0].Header.Get(requestIDHeader))
		})
	}
}

func TestExecutor_FetchAppliesHeadersAndToken(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Headers = []string{"X-Trace: abc", "Accept: application/vnd.api+json"}

	client := &mockHTTPClient{response: okResponse(`{}`)}
	tokens := &staticTokens{token: "t0k3n"}
	openapi := &mockOpenAPIProvider{headers: map[string]string{"Accept": "application/json"}}

	executor := NewExecutorWithDependencies(
		zerolog.New(nil),
		client,
		openapi,
		tokens,
		&mockURLResolver{},
		NewResponseHandler(zerolog.New(nil), cfg),
		cfg,
	)

	_, err := executor.Fetch(context.Background(), "https://api.example.edu/v1/students/931234567/gpa")
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "Bearer t0k3n", req.Header.Get("Authorization"))
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
	assert.Equal(t, "application/vnd.api+json", req.Header.Get("Accept"), "custom headers override document headers")
	assert.Equal(t, userAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, http.MethodGet, req.Method)
}

func TestExecutor_TokenFailure(t *testing.T) {
	cfg := config.NewConfig()
	client := &mockHTTPClient{response: okResponse(`{}`)}

	executor := NewExecutorWithDependencies(
		zerolog.New(nil),
		client,
		nil,
		&staticTokens{err: &mockError{msg: "invalid_client"}},
		&mockURLResolver{url: "https://api.example.edu/v1/students/1/gpa"},
		NewResponseHandler(zerolog.New(nil), cfg),
		cfg,
	)

	_, err := executor.Get(context.Background(), "1", "gpa", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
	assert.Empty(t, client.requests, "no request should be sent without a token")
}

func TestApplyQueryParameters(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		params   map[string]string
		expected string
	}{
		{"no params", "https://api.example.edu/a", nil, "https://api.example.edu/a"},
		{"single", "https://api.example.edu/a", map[string]string{"term": "201901"}, "https://api.example.edu/a?term=201901"},
		{"sorted", "https://api.example.edu/a", map[string]string{"b": "2", "a": "1"}, "https://api.example.edu/a?a=1&b=2"},
		{"existing query kept", "https://api.example.edu/a?x=1", map[string]string{"y": "2"}, "https://api.example.edu/a?x=1&y=2"},
		{"escaped", "https://api.example.edu/a", map[string]string{"q": "a b"}, "https://api.example.edu/a?q=a+b"},
		{"empty key skipped", "https://api.example.edu/a", map[string]string{"": "x"}, "https://api.example.edu/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyQueryParameters(tt.url, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResponseHandler(t *testing.T) {
	handler := NewResponseHandler(zerolog.New(nil), config.NewConfig())

	t.Run("JSON body decoded with numbers preserved", func(t *testing.T) {
		resp := okResponse(`{"gpa": 3.5, "credits": 120}`)
		result, err := handler.HandleResponse(resp, "https://api.example.edu/a")
		require.NoError(t, err)
		require.NoError(t, result.DecodeErr)

		body, ok := result.Body.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, json.Number("3.5"), body["gpa"])
		assert.Equal(t, "https://api.example.edu/a", result.URL)
	})

	t.Run("final URL follows redirect", func(t *testing.T) {
		resp := okResponse(`{}`)
		resp.Request, _ = http.NewRequest(http.MethodGet, "https://api.example.edu/b?x=1", nil)
		result, err := handler.HandleResponse(resp, "https://api.example.edu/a")
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.edu/b?x=1", result.URL)
	})

	t.Run("non JSON body kept raw", func(t *testing.T) {
		resp := okResponse(`<html>gateway timeout</html>`)
		resp.StatusCode = 504
		result, err := handler.HandleResponse(resp, "https://api.example.edu/a")
		require.NoError(t, err)
		assert.Error(t, result.DecodeErr)
		assert.Nil(t, result.Body)
		assert.Equal(t, "<html>gateway timeout</html>", string(result.Raw))
		assert.Equal(t, 504, result.Status)
	})

	t.Run("empty body", func(t *testing.T) {
		result, err := handler.HandleResponse(okResponse(""), "https://api.example.edu/a")
		require.NoError(t, err)
		assert.Error(t, result.DecodeErr)
	})
}
