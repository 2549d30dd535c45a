// Package conform checks decoded JSON payloads against definition trees
// loaded by package openapi.
package conform

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/brendan.keane/apiconform/pkg/openapi"
)

// Date layouts for the string formats that are checked.
const (
	DateTimeLayout = "2006-01-02T15:04:05Z"
	DateLayout     = "2006-01-02"
)

// MatchObject checks that actual is an object with exactly the fields in
// props, each conforming to its definition. It returns nil or a *Failure.
func MatchObject(props openapi.Properties, actual any) error {
	if f := matchObject(props, actual, ""); f != nil {
		return f
	}
	return nil
}

// Validate checks a single value against def. Elements of a root array are
// reported as items[i].
func Validate(def *openapi.Property, value any) error {
	path := ""
	if def.Kind == openapi.KindArray {
		path = "items"
	}
	if f := checkField(def, value, path); f != nil {
		return f
	}
	return nil
}

func matchObject(props openapi.Properties, actual any, path string) *Failure {
	obj, ok := actual.(map[string]any)
	if !ok {
		return &Failure{Kind: TypeMismatch, Field: path, Expected: "object", Actual: typeName(actual)}
	}
	if len(props) != len(obj) {
		return &Failure{Kind: FieldCountMismatch, Field: path, Expected: len(props), Actual: len(obj)}
	}

	for _, name := range props.Names() {
		prop := props[name]
		fieldPath := joinPath(path, name)
		value, ok := obj[name]
		if !ok {
			return &Failure{Kind: MissingField, Field: fieldPath, Expected: prop.TypeName()}
		}
		if f := checkField(prop, value, fieldPath); f != nil {
			return f
		}
	}
	return nil
}

// checkField applies the field null policy: null skips every kind but object.
func checkField(prop *openapi.Property, value any, path string) *Failure {
	if value == nil && prop.Kind != openapi.KindObject {
		return nil
	}
	return checkValue(prop, value, path)
}

// checkValue checks a non-optional value. Array elements come here directly,
// so a null element is a type mismatch.
func checkValue(prop *openapi.Property, value any, path string) *Failure {
	if value == nil {
		return mismatch(prop, value, path)
	}

	switch prop.Kind {
	case openapi.KindObject:
		if f := matchObject(prop.Properties, value, path); f != nil {
			return f
		}

	case openapi.KindArray:
		items, ok := value.([]any)
		if !ok {
			return mismatch(prop, value, path)
		}
		for i, item := range items {
			if f := checkValue(prop.Items, item, fmt.Sprintf("%s[%d]", path, i)); f != nil {
				return f
			}
		}

	case openapi.KindString:
		s, ok := value.(string)
		if !ok {
			return mismatch(prop, value, path)
		}
		if f := checkDate(prop.Format, s, path); f != nil {
			return f
		}

	case openapi.KindInteger, openapi.KindNumber:
		isNumber, integral := numberInfo(value)
		if !isNumber || (prop.ExpectsInteger() && !integral) || (!prop.ExpectsInteger() && !isFloat(value)) {
			return mismatch(prop, value, path)
		}

	case openapi.KindBoolean:
		if _, ok := value.(bool); !ok {
			return mismatch(prop, value, path)
		}

	default:
		return mismatch(prop, value, path)
	}

	if len(prop.Enum) > 0 && !enumContains(prop.Enum, value) {
		return &Failure{Kind: EnumViolation, Field: path, Expected: prop.Enum, Actual: value}
	}
	return nil
}

func mismatch(prop *openapi.Property, value any, path string) *Failure {
	return &Failure{Kind: TypeMismatch, Field: path, Expected: prop.TypeName(), Actual: typeName(value)}
}

func checkDate(format, s, path string) *Failure {
	var layout string
	switch format {
	case "date-time":
		layout = DateTimeLayout
	case "date":
		layout = DateLayout
	default:
		return nil
	}
	// time.Parse accepts fractional seconds the layout does not name
	if t, err := time.Parse(layout, s); err != nil || t.Format(layout) != s {
		return &Failure{Kind: BadDateFormat, Field: path, Expected: layout, Actual: s}
	}
	return nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// numberInfo reports whether v is a JSON number and whether it is integral.
// json.Number literals with a fraction or exponent are never integral.
// Literals beyond float64 range still count as numbers.
func numberInfo(v any) (isNumber, integral bool) {
	switch n := v.(type) {
	case json.Number:
		if _, err := n.Float64(); err != nil {
			var numErr *strconv.NumError
			if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
				return false, false
			}
		}
		return true, !strings.ContainsAny(string(n), ".eE")
	case float64:
		return true, !math.IsInf(n, 0) && n == math.Trunc(n)
	case float32:
		f := float64(n)
		return true, !math.IsInf(f, 0) && f == math.Trunc(f)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true, true
	}
	return false, false
}

// isFloat reports whether v is a floating-point value: a JSON literal with a
// fraction or exponent, or a Go float.
func isFloat(v any) bool {
	switch n := v.(type) {
	case json.Number:
		return strings.ContainsAny(string(n), ".eE")
	case float64, float32:
		return true
	}
	return false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if isNumber, integral := numberInfo(v); isNumber {
		if integral {
			return "integer"
		}
		return "float"
	}
	return fmt.Sprintf("%T", v)
}

func enumContains(allowed []any, v any) bool {
	for _, member := range allowed {
		if enumEqual(member, v) {
			return true
		}
	}
	return false
}

func enumEqual(member, v any) bool {
	if isNumber, _ := numberInfo(member); isNumber {
		a, ok := numberRat(member)
		if !ok {
			return false
		}
		b, ok := numberRat(v)
		return ok && a.Cmp(b) == 0
	}
	switch m := member.(type) {
	case nil:
		return v == nil
	case string:
		s, ok := v.(string)
		return ok && s == m
	case bool:
		b, ok := v.(bool)
		return ok && b == m
	}
	return reflect.DeepEqual(member, v)
}

func numberRat(v any) (*big.Rat, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = string(n)
	case float64:
		s = strconv.FormatFloat(n, 'g', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(n), 'g', -1, 32)
	default:
		if isNumber, _ := numberInfo(v); !isNumber {
			return nil, false
		}
		s = fmt.Sprint(v)
	}
	return new(big.Rat).SetString(s)
}
