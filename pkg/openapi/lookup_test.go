package openapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceAttributes(t *testing.T) {
	doc := loadDocument(t)

	t.Run("single resource", func(t *testing.T) {
		attrs, err := doc.Definitions.ResourceAttributes("GradePointAverageResult", MultiplicityOne)
		require.NoError(t, err)
		assert.Equal(t, []string{"gpaLevels"}, attrs.Names())
	})

	t.Run("resource list", func(t *testing.T) {
		attrs, err := doc.Definitions.ResourceAttributes("HoldsResultList", MultiplicityMany)
		require.NoError(t, err)
		assert.Equal(t, []string{"fromDate", "reason"}, attrs.Names())
		assert.Equal(t, "date", attrs["fromDate"].Format)
	})

	t.Run("wrong multiplicity", func(t *testing.T) {
		_, err := doc.Definitions.ResourceAttributes("GradePointAverageResult", MultiplicityMany)
		var loadErr *SpecLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, "GradePointAverageResult.data.items", loadErr.Path)
	})

	t.Run("no data member", func(t *testing.T) {
		_, err := doc.Definitions.ResourceAttributes("SelfLink", MultiplicityOne)
		var loadErr *SpecLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, "SelfLink.data", loadErr.Path)
	})

	t.Run("no attributes member", func(t *testing.T) {
		_, err := doc.Definitions.ResourceAttributes("GradePointAverage", MultiplicityOne)
		require.Error(t, err)
	})
}

func TestPropertiesRequiresObject(t *testing.T) {
	doc := loadDocument(t)

	_, err := doc.Definitions.Properties("Priority")
	var loadErr *SpecLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Reason, "not object")

	errorProps, err := doc.Definitions.Properties(ErrorTitle)
	require.NoError(t, err)
	assert.Equal(t, []string{"errors"}, errorProps.Names())
}

func TestParseMultiplicity(t *testing.T) {
	tests := []struct {
		in       string
		expected Multiplicity
		ok       bool
	}{
		{"", MultiplicityOne, true},
		{"one", MultiplicityOne, true},
		{"many", MultiplicityMany, true},
		{"list", MultiplicityMany, true},
		{"several", MultiplicityOne, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMultiplicity(tt.in)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestPropertyTypeName(t *testing.T) {
	assert.Equal(t, "float", (&Property{Kind: KindNumber, Float: true}).TypeName())
	assert.Equal(t, "integer", (&Property{Kind: KindNumber}).TypeName())
	assert.Equal(t, "object", (&Property{Kind: KindObject}).TypeName())
	assert.Equal(t, "unknown", Kind(42).String())
}
