package suite

import (
	"encoding/json"
	"testing"
	"text/template"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/apiconform/internal/errors"
	internalhttp "github.com/brendan.keane/apiconform/internal/http"
	"github.com/brendan.keane/apiconform/internal/testutil"
	"github.com/brendan.keane/apiconform/pkg/conform"
	"github.com/brendan.keane/apiconform/pkg/openapi"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	v, err := conform.DecodeBytes([]byte(body))
	require.NoError(t, err)
	return v
}

func studentDefinitions(t *testing.T) *openapi.Definitions {
	t.Helper()
	docs, err := testutil.NewMockDocumentSource(testutil.StudentsSwagger)
	require.NoError(t, err)
	return docs.Doc.Definitions
}

func TestCheckElapsed(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		max     float64
		wantErr bool
	}{
		{"under", 200 * time.Millisecond, 1, false},
		{"equal is too slow", time.Second, 1, true},
		{"over", 1500 * time.Millisecond, 1, true},
		{"no limit", time.Hour, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkElapsed(tt.elapsed, tt.max)
			if tt.wantErr {
				testutil.AssertErrorType(t, err, errors.ErrorTypeConformance)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, checkStatus(&internalhttp.Response{Status: 200}, 200))

	err := checkStatus(&internalhttp.Response{Status: 500, URL: "https://api.example.edu/x"}, 200)
	testutil.AssertErrorType(t, err, errors.ErrorTypeConformance)
	assert.Contains(t, err.Error(), "expected status 200, got 500")
	assert.Equal(t, 500, errors.GetContext(err)["status"])
}

func TestCheckSelfLink(t *testing.T) {
	const url = "https://api.example.edu/v1/students/931234567/gpa"

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"match", `{"links":{"self":"` + url + `"}}`, ""},
		{"different", `{"links":{"self":"` + url + `?term=1"}}`, "expected"},
		{"missing", `{"data":{}}`, "missing or not a string"},
		{"not a string", `{"links":{"self":3}}`, "missing or not a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSelfLink(decode(t, tt.body), url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckResources(t *testing.T) {
	defs := studentDefinitions(t)

	t.Run("single", func(t *testing.T) {
		body := decode(t, `{"data":{"id":"1","attributes":{"gpaLevels":[]}}}`)
		resources, err := checkResources(defs, "GradePointAverageResult", openapi.MultiplicityOne, body)
		require.NoError(t, err)
		require.Len(t, resources, 1)
		assert.Equal(t, "1", resources[0]["id"])
	})

	t.Run("many reports the index", func(t *testing.T) {
		body := decode(t, `{"data":[
			{"id":"a","attributes":{"academicStanding":"Good","term":"201801","termDescription":"Fall","gpa":[]}},
			{"id":"b","attributes":{"academicStanding":"Good","term":201803,"termDescription":"Fall","gpa":[]}}
		]}`)
		_, err := checkResources(defs, "AcademicStatusResult", openapi.MultiplicityMany, body)
		testutil.AssertFailure(t, err, conform.TypeMismatch, "term")
		assert.Contains(t, err.Error(), "data[1].attributes")
	})

	t.Run("many expects an array", func(t *testing.T) {
		_, err := checkResources(defs, "AcademicStatusResult", openapi.MultiplicityMany, decode(t, `{"data":{}}`))
		testutil.AssertFailure(t, err, conform.TypeMismatch, "data")
	})

	t.Run("body not an object", func(t *testing.T) {
		_, err := checkResources(defs, "GradePointAverageResult", openapi.MultiplicityOne, decode(t, `[]`))
		testutil.AssertFailure(t, err, conform.TypeMismatch, "")
	})

	t.Run("unknown definition", func(t *testing.T) {
		_, err := checkResources(defs, "Nope", openapi.MultiplicityOne, decode(t, `{}`))
		testutil.AssertErrorType(t, err, errors.ErrorTypeOpenAPI)
	})
}

func TestCheckIDs(t *testing.T) {
	tmpl := template.Must(template.New("id").Option("missingkey=error").Parse("{{.ID}}-{{.Attributes.term}}"))

	ok := []map[string]any{
		{"id": "931234567-201801", "attributes": map[string]any{"term": "201801"}},
	}
	assert.NoError(t, checkIDs(tmpl, "931234567", ok))

	wrong := []map[string]any{
		{"id": "931234567", "attributes": map[string]any{"term": "201801"}},
	}
	err := checkIDs(tmpl, "931234567", wrong)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected "931234567-201801"`)

	missing := []map[string]any{
		{"id": "931234567-", "attributes": map[string]any{}},
	}
	err = checkIDs(tmpl, "931234567", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering id_template")
}

func TestCheckExpect(t *testing.T) {
	body := decode(t, `{"data":[{"id":"1","attributes":{"gpa":3.5,"active":true,"reason":null}}],"meta":{"count":1}}`)

	tests := []struct {
		name    string
		expect  map[string]string
		wantErr string
	}{
		{"none", nil, ""},
		{"string", map[string]string{"data[0].id": "1"}, ""},
		{"number keeps its text", map[string]string{"data[0].attributes.gpa": "3.5"}, ""},
		{"boolean", map[string]string{"data[0].attributes.active": "true"}, ""},
		{"null", map[string]string{"data[0].attributes.reason": "null"}, ""},
		{"function", map[string]string{"length(data)": "1"}, ""},
		{"object", map[string]string{"meta": `{"count":1}`}, ""},
		{"mismatch", map[string]string{"data[0].id": "2"}, "data[0].id is 1, expected 2"},
		{"invalid expression", map[string]string{"data[": "1"}, "invalid expectation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkExpect(body, tt.expect)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "abc", render("abc"))
	assert.Equal(t, "4.10", render(json.Number("4.10")))
	assert.Equal(t, "null", render(nil))
	assert.Equal(t, "2", render(float64(2)))
	assert.Equal(t, `["a"]`, render([]any{"a"}))
}

func TestValidatePayload(t *testing.T) {
	defs := studentDefinitions(t)

	tests := []struct {
		name         string
		title        string
		multiplicity string
		body         string
		errType      errors.ErrorType
		kind         conform.FailureKind
		field        string
	}{
		{
			name:  "whole definition",
			title: "Error",
			body:  `{"errors":[{"status":"404","title":"Not Found","code":"1404","detail":"x","links":{"about":"u"}}]}`,
		},
		{
			name:    "whole definition failure",
			title:   "Error",
			body:    `{"errors":[{"status":404,"title":"Not Found","code":"1404","detail":"x","links":{"about":"u"}}]}`,
			errType: errors.ErrorTypeConformance,
			kind:    conform.TypeMismatch,
			field:   "errors[0].status",
		},
		{
			name:         "resource attributes",
			title:        "GradePointAverageResult",
			multiplicity: "one",
			body:         `{"data":{"id":"1","attributes":{"gpaLevels":[]}}}`,
		},
		{
			name:         "resource attributes failure",
			title:        "GradePointAverageResult",
			multiplicity: "one",
			body:         `{"data":{"id":"1","attributes":{}}}`,
			errType:      errors.ErrorTypeConformance,
			kind:         conform.FieldCountMismatch,
		},
		{
			name:         "bad multiplicity",
			title:        "GradePointAverageResult",
			multiplicity: "some",
			body:         `{}`,
			errType:      errors.ErrorTypeValidation,
		},
		{
			name:    "unknown definition",
			title:   "Missing",
			body:    `{}`,
			errType: errors.ErrorTypeOpenAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(defs, tt.title, tt.multiplicity, decode(t, tt.body))
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			testutil.AssertErrorType(t, err, tt.errType)
			if tt.kind != "" {
				testutil.AssertFailure(t, err, tt.kind, tt.field)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	body := decode(t, `{"data":[{"id":"1"},{"id":"2"}]}`)

	same, err := Select("  ", body)
	require.NoError(t, err)
	assert.Equal(t, body, same)

	ids, err := Select("data[*].id", body)
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "2"}, ids)

	_, err = Select("data[", body)
	testutil.AssertErrorType(t, err, errors.ErrorTypeValidation)
}
