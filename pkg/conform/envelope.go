package conform

import (
	"github.com/brendan.keane/apiconform/pkg/openapi"
)

// MatchErrorEnvelope checks an error response body: it must conform to the
// Error definition, carry exactly one entry under errors, and that entry's
// detail must equal detail.
func MatchErrorEnvelope(errorDef openapi.Properties, body any, detail string) error {
	if err := MatchObject(errorDef, body); err != nil {
		return err
	}

	obj, _ := body.(map[string]any)
	entries, _ := obj["errors"].([]any)
	if len(entries) != 1 {
		return &Failure{Kind: ErrorCountMismatch, Field: "errors", Expected: 1, Actual: len(entries)}
	}

	entry, ok := entries[0].(map[string]any)
	if !ok {
		return &Failure{Kind: TypeMismatch, Field: "errors[0]", Expected: "object", Actual: typeName(entries[0])}
	}
	if got, _ := entry["detail"].(string); got != detail {
		return &Failure{Kind: DetailMismatch, Field: "errors[0].detail", Expected: detail, Actual: entry["detail"]}
	}
	return nil
}
