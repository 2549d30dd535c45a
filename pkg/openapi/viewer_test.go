package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractServer(t *testing.T, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestViewerLoadsOnce(t *testing.T) {
	server, hits := contractServer(t, contractYAML)
	viewer := NewViewer(server.Client(), server.URL+"/openapi.yaml")

	for i := 0; i < 3; i++ {
		doc, err := viewer.Document(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Students API", doc.Title)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestViewerFetchFailure(t *testing.T) {
	server, _ := contractServer(t, contractYAML)
	viewer := NewViewer(server.Client(), server.URL+"/missing.yaml")

	_, err := viewer.Document(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
}

func TestViewerView(t *testing.T) {
	server, _ := contractServer(t, contractYAML)
	viewer := NewViewer(server.Client(), server.URL+"/openapi.yaml")
	ctx := context.Background()

	tests := []struct {
		name           string
		title          string
		expectErr      bool
		expectContains []string
	}{
		{
			name:  "index",
			title: "",
			expectContains: []string{
				"Students API",
				"/students/{osuId}/gpa",
				"GradePointAverageResult",
				"object has no properties",
				"Flags.mystery",
			},
		},
		{
			name:  "definition tree",
			title: "GradePointAverageResult",
			expectContains: []string{
				"gpaLevels",
				"gpaCredits",
				"float",
				"Undergraduate, Graduate",
			},
		},
		{
			name:      "broken definition",
			title:     "Broken",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := viewer.View(ctx, tt.title)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.expectContains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestViewerBaseURL(t *testing.T) {
	t.Run("host from document", func(t *testing.T) {
		server, _ := contractServer(t, contractYAML)
		viewer := NewViewer(server.Client(), server.URL+"/openapi.yaml")

		baseURL, err := viewer.BaseURL(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.edu/v1", baseURL)
	})

	t.Run("host from document URL", func(t *testing.T) {
		noHost := strings.Replace(contractYAML, "host: api.example.edu\n", "", 1)
		server, _ := contractServer(t, noHost)
		viewer := NewViewer(server.Client(), server.URL+"/openapi.yaml")

		baseURL, err := viewer.BaseURL(context.Background())
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/v1", baseURL)
	})

	t.Run("local file without host", func(t *testing.T) {
		noHost := strings.Replace(contractYAML, "host: api.example.edu\n", "", 1)
		specFile := filepath.Join(t.TempDir(), "openapi.yaml")
		require.NoError(t, os.WriteFile(specFile, []byte(noHost), 0644))

		viewer := NewViewer(nil, specFile)
		_, err := viewer.BaseURL(context.Background())
		require.Error(t, err)
	})
}

func TestViewerSetHeaders(t *testing.T) {
	server, _ := contractServer(t, contractYAML)
	viewer := NewViewer(server.Client(), server.URL+"/openapi.yaml")

	req, err := http.NewRequest(http.MethodGet, "https://api.example.edu/v1/students/1/gpa", nil)
	require.NoError(t, err)
	require.NoError(t, viewer.SetHeaders(context.Background(), req))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))

	t.Run("explicit accept wins", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "https://api.example.edu/v1/students/1/gpa", nil)
		require.NoError(t, err)
		req.Header.Set("Accept", "text/plain")
		require.NoError(t, viewer.SetHeaders(context.Background(), req))
		assert.Equal(t, "text/plain", req.Header.Get("Accept"))
	})

	t.Run("no document configured", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "https://api.example.edu/", nil)
		require.NoError(t, err)
		require.NoError(t, NewViewer(nil, "").SetHeaders(context.Background(), req))
		assert.Empty(t, req.Header.Get("Accept"))
	})
}

func TestViewerCompletions(t *testing.T) {
	server, _ := contractServer(t, contractYAML)
	viewer := NewViewer(server.Client(), server.URL+"/openapi.yaml")
	ctx := context.Background()

	titles, err := viewer.DefinitionCompletions(ctx)
	require.NoError(t, err)
	assert.Contains(t, titles, "GradePointAverageResult")
	assert.NotContains(t, titles, "Broken")

	paths, err := viewer.PathCompletions(ctx, "/students/{osuId}/h*")
	require.NoError(t, err)
	assert.Equal(t, []string{"/students/{osuId}/holds"}, paths)
}
