package middleend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// PathBuilder maps a site id to the resource base path.
type PathBuilder func(siteID string) string

// Config is the per-request upstream configuration resolved from the inbound
// request. It is immutable once built.
type Config struct {
	SiteID  string
	Version string
	URL     PathBuilder
}

// Path returns the resource base path for the resolved site.
func (c Config) Path() string {
	return c.PathFor(c.SiteID)
}

// PathFor returns the resource base path for an explicit site.
func (c Config) PathFor(siteID string) string {
	if c.URL == nil {
		return ""
	}
	return c.URL(siteID)
}

// File is a single upload forwarded upstream as the multipart field "file".
type File struct {
	Name    string
	Content io.Reader
}

// Request is the normalized description of one upstream call.
type Request struct {
	Method string
	Path   string
	Params url.Values
	// Body is JSON encoded when set. Ignored when File is set.
	Body any
	File *File
	// Stream leaves the response body open for the caller instead of reading it.
	Stream bool
}

// Response is a successful upstream reply.
type Response struct {
	Status int
	Data   json.RawMessage
	Header http.Header
	// Body is set only for streamed requests; the caller must close it.
	Body io.ReadCloser
}

// Doer executes upstream calls.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// NewParams starts a parameter set with the version when it is known.
func NewParams(version string) url.Values {
	params := url.Values{}
	SetIfPresent(params, "version", version)
	return params
}

// SetIfPresent sets key only when value is not empty.
func SetIfPresent(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

// Merge copies every key of src into dst, replacing existing values.
func Merge(dst, src url.Values) {
	for key, values := range src {
		dst[key] = append([]string(nil), values...)
	}
}

// Call runs req and normalizes any failure with message.
func Call(ctx context.Context, doer Doer, message string, req Request) (*Response, error) {
	resp, err := doer.Do(ctx, req)
	if err != nil {
		return nil, Normalize(message, err)
	}
	return resp, nil
}

// Notice is the acknowledgement returned for batch uploads.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Without returns a copy of params minus the given keys.
func Without(params url.Values, keys ...string) url.Values {
	out := make(url.Values, len(params))
	Merge(out, params)
	for _, key := range keys {
		out.Del(key)
	}
	return out
}

// DecodeNotice reads a {status, message} batch acknowledgement.
func DecodeNotice(data json.RawMessage) Notice {
	var ack struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &ack)
	return Notice{Type: ack.Status, Message: ack.Message}
}
