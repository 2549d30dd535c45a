package suite

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/jmespath/go-jmespath"

	"github.com/brendan.keane/apiconform/internal/errors"
	internalhttp "github.com/brendan.keane/apiconform/internal/http"
	"github.com/brendan.keane/apiconform/pkg/conform"
	"github.com/brendan.keane/apiconform/pkg/openapi"
)

// checkElapsed requires elapsed to be strictly under maxSeconds
func checkElapsed(elapsed time.Duration, maxSeconds float64) error {
	if maxSeconds <= 0 || elapsed.Seconds() < maxSeconds {
		return nil
	}
	return errors.Newf(errors.ErrorTypeConformance, "response took %.3fs, limit is %gs", elapsed.Seconds(), maxSeconds).
		WithContext("elapsed", elapsed).
		WithContext("max_seconds", maxSeconds)
}

func checkStatus(resp *internalhttp.Response, want int) error {
	if resp.Status == want {
		return nil
	}
	return errors.Newf(errors.ErrorTypeConformance, "expected status %d, got %d", want, resp.Status).
		WithContext("status", resp.Status).
		WithContext("url", resp.URL)
}

// checkSelfLink requires links.self to equal the URL that was requested
func checkSelfLink(body any, requestURL string) error {
	self, err := jmespath.Search("links.self", body)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConformance, "reading links.self")
	}
	link, ok := self.(string)
	if !ok {
		return errors.New(errors.ErrorTypeConformance, "links.self is missing or not a string")
	}
	if link != requestURL {
		return errors.Newf(errors.ErrorTypeConformance, "links.self is %q, expected %q", link, requestURL).
			WithContext("url", requestURL)
	}
	return nil
}

func checkErrorEnvelope(errorDef openapi.Properties, body any, detail string) error {
	if err := conform.MatchErrorEnvelope(errorDef, body, detail); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConformance, "error response")
	}
	return nil
}

// checkResources validates the attributes of every resource object under
// data and returns those objects
func checkResources(defs *openapi.Definitions, title string, m openapi.Multiplicity, body any) ([]map[string]any, error) {
	props, err := defs.ResourceAttributes(title, m)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeOpenAPI, "cannot check resource").
			WithContext("definition", title)
	}

	root, ok := body.(map[string]any)
	if !ok {
		return nil, errors.Wrap(&conform.Failure{Kind: conform.TypeMismatch, Expected: "object", Actual: kindOf(body)},
			errors.ErrorTypeConformance, "response body")
	}

	var resources []map[string]any
	var paths []string
	switch m {
	case openapi.MultiplicityMany:
		items, ok := root["data"].([]any)
		if !ok {
			return nil, errors.Wrap(&conform.Failure{Kind: conform.TypeMismatch, Field: "data", Expected: "array", Actual: kindOf(root["data"])},
				errors.ErrorTypeConformance, "response body")
		}
		for i, item := range items {
			obj, ok := item.(map[string]any)
			path := fmt.Sprintf("data[%d]", i)
			if !ok {
				return nil, errors.Wrap(&conform.Failure{Kind: conform.TypeMismatch, Field: path, Expected: "object", Actual: kindOf(item)},
					errors.ErrorTypeConformance, "response body")
			}
			resources = append(resources, obj)
			paths = append(paths, path)
		}
	default:
		obj, ok := root["data"].(map[string]any)
		if !ok {
			return nil, errors.Wrap(&conform.Failure{Kind: conform.TypeMismatch, Field: "data", Expected: "object", Actual: kindOf(root["data"])},
				errors.ErrorTypeConformance, "response body")
		}
		resources = append(resources, obj)
		paths = append(paths, "data")
	}

	for i, obj := range resources {
		if err := conform.MatchObject(props, obj["attributes"]); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConformance, paths[i]+".attributes").
				WithContext("definition", title)
		}
	}
	return resources, nil
}

// idData is the template input for id_template
type idData struct {
	ID         string
	Attributes map[string]any
}

// checkIDs requires each resource id to equal the rendered template
func checkIDs(tmpl *template.Template, resourceID string, resources []map[string]any) error {
	for i, obj := range resources {
		attrs, _ := obj["attributes"].(map[string]any)

		var want strings.Builder
		if err := tmpl.Execute(&want, idData{ID: resourceID, Attributes: attrs}); err != nil {
			return errors.Wrapf(err, errors.ErrorTypeConformance, "resource %d: rendering id_template", i)
		}

		if got := fmt.Sprint(obj["id"]); got != want.String() {
			return errors.Newf(errors.ErrorTypeConformance, "resource %d: id is %q, expected %q", i, got, want.String()).
				WithContext("field", "id")
		}
	}
	return nil
}

// checkExpect evaluates each JMESPath expression and compares the result,
// rendered as JSON for non-strings, to the expected text
func checkExpect(body any, expect map[string]string) error {
	for _, expr := range slices.Sorted(maps.Keys(expect)) {
		want := expect[expr]
		value, err := jmespath.Search(expr, body)
		if err != nil {
			return errors.Wrapf(err, errors.ErrorTypeValidation, "invalid expectation %q", expr)
		}
		if got := render(value); got != want {
			return errors.Newf(errors.ErrorTypeConformance, "%s is %s, expected %s", expr, got, want).
				WithContext("expression", expr)
		}
	}
	return nil
}

func render(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return "null"
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// ValidatePayload checks a decoded body offline. With an empty multiplicity
// the whole body is validated against title; otherwise body is treated as a
// resource envelope and the attributes of each resource are validated.
func ValidatePayload(defs *openapi.Definitions, title, multiplicity string, body any) error {
	if multiplicity == "" {
		def, err := defs.Definition(title)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeOpenAPI, "cannot check payload").
				WithContext("definition", title)
		}
		if err := conform.Validate(def, body); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConformance, title).
				WithContext("definition", title)
		}
		return nil
	}

	m, ok := openapi.ParseMultiplicity(multiplicity)
	if !ok {
		return errors.Newf(errors.ErrorTypeValidation, "multiplicity must be one or many, got %q", multiplicity).
			WithContext("field", "multiplicity")
	}
	_, err := checkResources(defs, title, m, body)
	return err
}

// Select narrows body with a JMESPath expression. An empty expression
// returns body unchanged.
func Select(expr string, body any) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return body, nil
	}
	selected, err := jmespath.Search(expr, body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeValidation, "invalid select expression %q", expr)
	}
	return selected, nil
}
