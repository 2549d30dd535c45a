package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/apiconform/internal/errors"
	"github.com/brendan.keane/apiconform/internal/testutil"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeSuiteConfig(t *testing.T, api *testutil.StudentsAPI) string {
	t.Helper()
	content := fmt.Sprintf(testutil.StudentsSuiteYAML, api.URL) + fmt.Sprintf("openapi: %s/openapi.yaml\n", api.URL)
	return writeFile(t, "apiconform.yaml", content)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	api := testutil.NewStudentsAPI(t)
	cfgPath := writeSuiteConfig(t, api)

	out, err := execute(t, "", "run", "--config", cfgPath, "--parallel", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "9 passed, 0 failed")
	assert.Contains(t, out, "class-schedule-bad-term")
}

func TestRunCommandJSON(t *testing.T) {
	api := testutil.NewStudentsAPI(t)
	cfgPath := writeSuiteConfig(t, api)

	out, err := execute(t, "", "run", "--config", cfgPath, "--format", "json", "--case", "gpa", "--case", "holds")
	require.NoError(t, err, out)

	var report struct {
		Passed  int `json:"passed"`
		Failed  int `json:"failed"`
		Results []struct {
			Name      string `json:"name"`
			RequestID string `json:"request_id"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Passed)
	require.Len(t, report.Results, 2)
	assert.NotEmpty(t, report.Results[0].RequestID)
}

func TestRunCommandFailure(t *testing.T) {
	api := testutil.NewStudentsAPI(t)
	api.Mutate("holds", func(body map[string]any) {
		body["data"].(map[string]any)["attributes"] = map[string]any{"holds": "none"}
	})
	cfgPath := writeSuiteConfig(t, api)

	out, err := execute(t, "", "run", "--config", cfgPath, "--case", "holds")
	require.Error(t, err)
	testutil.AssertErrorType(t, err, errors.ErrorTypeConformance)
	assert.Equal(t, "1 of 1 cases failed", errors.UserMessage(err))
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "holds")
}

func TestRunCommandRequiresHostname(t *testing.T) {
	cfgPath := writeFile(t, "empty.yaml", "openapi: https://api.example.edu/openapi.yaml\n")

	_, err := execute(t, "", "run", "--config", cfgPath)
	testutil.AssertErrorType(t, err, errors.ErrorTypeConfig)
	assert.Contains(t, err.Error(), "hostname is required")
}

func TestDefinitionsCommand(t *testing.T) {
	api := testutil.NewStudentsAPI(t)
	specURL := api.URL + "/openapi.yaml"

	out, err := execute(t, "", "definitions", "--openapi", specURL, "GradePointAverage")
	require.NoError(t, err, out)
	assert.Contains(t, out, "gpaCreditHours")

	out, err = execute(t, "", "definitions", "--openapi", specURL)
	require.NoError(t, err, out)
	assert.Contains(t, out, "ClassScheduleResult")

	out, err = execute(t, "", "definitions", "--openapi", specURL, "--paths", "/students/{osuId}/class*")
	require.NoError(t, err, out)
	assert.Equal(t, "GET  /students/{osuId}/class-schedule\n", out)

	out, err = execute(t, "", "definitions", "--openapi", specURL, "--paths", "/students/{osuId}/gpa")
	require.NoError(t, err, out)
	assert.Equal(t, "GET  /students/{osuId}/gpa  Grade point average\n", out)

	_, err = execute(t, "", "definitions", "--openapi", specURL, "Missing")
	testutil.AssertErrorType(t, err, errors.ErrorTypeOpenAPI)
}

func TestCheckCommand(t *testing.T) {
	api := testutil.NewStudentsAPI(t)
	cfgPath := writeSuiteConfig(t, api)

	valid := `{"gpa":3.5,"gpaCreditHours":60,"gpaType":"Institution","creditHoursAttempted":64,"qualityPoints":210.0,"level":"Undergraduate"}`
	invalid := `{"gpa":3.5,"gpaCreditHours":60.5,"gpaType":"Institution","creditHoursAttempted":64,"qualityPoints":210.0,"level":"Undergraduate"}`

	t.Run("file", func(t *testing.T) {
		out, err := execute(t, "", "check", "--config", cfgPath, "--definition", "GradePointAverage", writeFile(t, "gpa.json", valid))
		require.NoError(t, err, out)
		assert.Contains(t, out, "PASS")
	})

	t.Run("stdin", func(t *testing.T) {
		out, err := execute(t, invalid, "check", "--config", cfgPath, "-d", "GradePointAverage", "-")
		testutil.AssertFailure(t, err, "type_mismatch", "gpaCreditHours")
		assert.Contains(t, out, "FAIL")
	})

	t.Run("select", func(t *testing.T) {
		wrapped := `{"data":{"attributes":{"gpaLevels":[` + valid + `]}}}`
		out, err := execute(t, wrapped, "check", "--config", cfgPath, "-d", "GradePointAverage", "--select", "data.attributes.gpaLevels[0]", "-")
		require.NoError(t, err, out)
	})

	t.Run("json output", func(t *testing.T) {
		out, err := execute(t, invalid, "check", "--config", cfgPath, "--format", "json", "-d", "GradePointAverage", "-")
		require.Error(t, err)

		var result struct {
			Valid   bool `json:"valid"`
			Failure struct {
				Field string `json:"field"`
			} `json:"failure"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.False(t, result.Valid)
		assert.Equal(t, "gpaCreditHours", result.Failure.Field)
	})

	t.Run("live url", func(t *testing.T) {
		url := api.URL + "/v1/students/" + testutil.StudentID + "/gpa"
		before := api.TokenRequests.Load()
		out, err := execute(t, "", "check", "--config", cfgPath, "-d", "GradePointAverageResult", "-m", "one", url)
		require.NoError(t, err, out)
		assert.EqualValues(t, 1, api.TokenRequests.Load()-before, "one token serves the contract load and the fetch")
	})

	t.Run("not json", func(t *testing.T) {
		_, err := execute(t, "nope", "check", "--config", cfgPath, "-d", "GradePointAverage", "-")
		testutil.AssertErrorType(t, err, errors.ErrorTypeValidation)
	})

	t.Run("definition required", func(t *testing.T) {
		_, err := execute(t, valid, "check", "--config", cfgPath, "-")
		testutil.AssertErrorType(t, err, errors.ErrorTypeValidation)
	})
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "apiconform")

	_, err = execute(t, "", "completion", "tcsh")
	assert.Error(t, err)
}
