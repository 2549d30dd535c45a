package testutil

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendan.keane/apiconform/internal/errors"
	"github.com/brendan.keane/apiconform/pkg/conform"
)

// AssertErrorType fails the test unless err carries errType
func AssertErrorType(t *testing.T, err error, errType errors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, errType, errors.GetType(err), "error: %v", err)
}

// RequireFailure extracts the conformance failure wrapped in err
func RequireFailure(t *testing.T, err error) *conform.Failure {
	t.Helper()
	require.Error(t, err)
	var failure *conform.Failure
	require.True(t, stderrors.As(err, &failure), "expected a conformance failure, got %v", err)
	return failure
}

// AssertFailure checks the kind and field of the failure wrapped in err
func AssertFailure(t *testing.T, err error, kind conform.FailureKind, field string) {
	t.Helper()
	failure := RequireFailure(t, err)
	assert.Equal(t, kind, failure.Kind, "failure: %v", failure)
	assert.Equal(t, field, failure.Field, "failure: %v", failure)
}

// AssertHeaderSet fails the test if the request doesn't have the expected header value
func AssertHeaderSet(t *testing.T, req *http.Request, header, expectedValue string) {
	t.Helper()
	assert.Equal(t, expectedValue, req.Header.Get(header), "header %q", header)
}

// AssertHeaderNotSet fails the test if the request has the specified header
func AssertHeaderNotSet(t *testing.T, req *http.Request, header string) {
	t.Helper()
	assert.Empty(t, req.Header.Get(header), "header %q", header)
}

// SkipIfShort skips the test if running with -short flag
func SkipIfShort(t *testing.T, reason string) {
	t.Helper()
	if testing.Short() {
		t.Skipf("Skipping in short mode: %s", reason)
	}
}
