package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"sellerpromotions/admin-api/internal/core/audit"
	"sellerpromotions/admin-api/internal/core/middleend"
)

// MockDoer is a middleend.Doer that records every request.
type MockDoer struct {
	DoFunc func(ctx context.Context, req middleend.Request) (*middleend.Response, error)

	mu       sync.Mutex
	requests []middleend.Request
}

// Do records the request and calls DoFunc, or answers 200 with an empty object.
func (m *MockDoer) Do(ctx context.Context, req middleend.Request) (*middleend.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(ctx, req)
	}
	return &middleend.Response{Status: http.StatusOK, Data: json.RawMessage(`{}`), Header: http.Header{}}, nil
}

// Requests returns a copy of the recorded requests.
func (m *MockDoer) Requests() []middleend.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]middleend.Request(nil), m.requests...)
}

// LastRequest returns the most recent request. It panics when none was made.
func (m *MockDoer) LastRequest() middleend.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// JSONResponse builds a successful response with the given status and body.
func JSONResponse(status int, body string) *middleend.Response {
	return &middleend.Response{Status: status, Data: json.RawMessage(body), Header: http.Header{}}
}

var _ middleend.Doer = (*MockDoer)(nil)

// MockAuditWriter is an audit.Writer that records or rejects records.
type MockAuditWriter struct {
	WriteFunc func(ctx context.Context, record audit.Record) error

	mu      sync.Mutex
	records []audit.Record
	written chan audit.Record
}

// NewMockAuditWriter returns a writer whose Written channel receives every record.
func NewMockAuditWriter() *MockAuditWriter {
	return &MockAuditWriter{written: make(chan audit.Record, 64)}
}

func (m *MockAuditWriter) Write(ctx context.Context, record audit.Record) error {
	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()

	if m.written != nil {
		select {
		case m.written <- record:
		default:
		}
	}

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, record)
	}
	return nil
}

// Written exposes records as they are written.
func (m *MockAuditWriter) Written() <-chan audit.Record {
	return m.written
}

// Records returns a copy of the recorded audit entries.
func (m *MockAuditWriter) Records() []audit.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Record(nil), m.records...)
}

var _ audit.Writer = (*MockAuditWriter)(nil)
