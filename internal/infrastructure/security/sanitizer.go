package security

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

// Field names, matched by substring, whose values never reach logs or audit.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"private_key",
	"credential",
	"cookie",
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// SanitizeBody redacts sensitive JSON fields and bounds the payload size.
// Bodies that are not JSON are wrapped so the result is always valid JSON.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if !utf8.Valid(body) {
		return marshal(map[string]any{"_binary": true, "_size": len(body)})
	}

	if maxSize > 0 && len(body) > maxSize {
		return marshal(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   strings.ToValidUTF8(string(body[:maxSize]), ""),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return marshal(map[string]any{"_raw": string(body), "_format": "text"})
	}

	return marshal(redact(data))
}

func redact(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitive(key) {
				out[key] = redactedValue
				continue
			}
			out[key] = redact(value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, value := range val {
			out[i] = redact(value)
		}
		return out
	default:
		return val
	}
}

func marshal(v any) json.RawMessage {
	result, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return result
}

// SanitizeURL redacts sensitive query parameters. Unparseable input is
// returned without its query string.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if idx := strings.IndexByte(raw, '?'); idx >= 0 {
			return raw[:idx]
		}
		return raw
	}

	query := u.Query()
	changed := false
	for key := range query {
		if isSensitive(key) {
			query.Set(key, redactedValue)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
