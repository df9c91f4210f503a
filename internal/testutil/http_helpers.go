package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"sellerpromotions/admin-api/internal/core/identity"
)

type failer interface {
	Helper()
	Errorf(format string, args ...interface{})
	FailNow()
}

// ReadJSONResponse decodes the recorder body into v.
func ReadJSONResponse(t failer, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Errorf("failed to decode JSON response: %v", err)
		t.FailNow()
	}
}

// ReadErrorResponse decodes an error response body.
func ReadErrorResponse(t failer, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	ReadJSONResponse(t, w, &response)
	return response
}

// CreateRequest creates an HTTP request with optional JSON body and headers.
func CreateRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonData)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AsUser attaches an authenticated user to the request.
func AsUser(req *http.Request, user identity.User) *http.Request {
	return req.WithContext(identity.WithUser(req.Context(), user))
}
