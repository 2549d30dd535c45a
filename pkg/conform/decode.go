package conform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Decode reads one JSON value, keeping numbers as json.Number so integer and
// float literals stay distinguishable.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding JSON: unexpected data after top-level value")
	}
	return v, nil
}

// DecodeBytes is Decode over an in-memory body.
func DecodeBytes(data []byte) (any, error) {
	return Decode(bytes.NewReader(data))
}
