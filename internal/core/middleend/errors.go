package middleend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ResponseError is returned by the upstream client when the middleend answered
// with a non-2xx status.
type ResponseError struct {
	Status int
	Body   json.RawMessage
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("middleend responded with status %d", e.Status)
}

// Error is the normalized failure every service returns. Status and Data mirror
// the upstream reply when there was one.
type Error struct {
	Status  int
	Message string
	Data    json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasData reports whether the upstream body can be forwarded as is.
func (e *Error) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && json.Valid(trimmed)
}

// Normalize converts any client failure into an *Error. When the middleend
// responded, its status and body are kept; otherwise the failure becomes a
// 500 with the given context message and no transport details.
func Normalize(message string, err error) error {
	if err == nil {
		return nil
	}

	var normalized *Error
	if errors.As(err, &normalized) {
		return normalized
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return &Error{
			Status:  respErr.Status,
			Message: upstreamMessage(respErr.Body, message),
			Data:    respErr.Body,
			Err:     err,
		}
	}

	return &Error{
		Status:  http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}

func upstreamMessage(body json.RawMessage, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}
