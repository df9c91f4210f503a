package middleend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// FlattenObject turns the top-level fields of a JSON object into query
// parameters. Nested values are kept as their JSON text and nulls are dropped.
func FlattenObject(raw json.RawMessage) (url.Values, error) {
	params := url.Values{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return params, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}

	for key, value := range fields {
		if text, ok := paramText(value); ok {
			params.Set(key, text)
		}
	}
	return params, nil
}

func paramText(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	}
}

// Truthy reports whether a decoded JSON value counts as present: not null,
// false, zero or an empty string.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
