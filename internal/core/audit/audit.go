package audit

import (
	"context"
	"encoding/json"
	"time"
)

// NotApplicable fills audit fields that do not apply to the operation.
const NotApplicable = "N/A"

// Record is the audit entry written for an admin action. It is write-only:
// nothing in this service reads records back.
type Record struct {
	ID           string      `json:"id"`
	Event        string      `json:"event"`
	User         string      `json:"user"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	CurrentData  CurrentData `json:"current_data"`
	PreviousData any         `json:"previous_data"`
	Tags         []string    `json:"tags"`
	CreatedAt    time.Time   `json:"created_at"`
}

// CurrentData describes the request that produced the record.
type CurrentData struct {
	RequestID    string          `json:"request_id"`
	IP           string          `json:"ip"`
	UserAgent    string          `json:"user_agent"`
	Endpoint     string          `json:"endpoint"`
	HTTPVerb     string          `json:"http_verb"`
	ReadData     json.RawMessage `json:"read_data"`
	ModifiedData json.RawMessage `json:"modified_data"`
	Approvals    string          `json:"approvals"`
	Result       *int            `json:"result"`
}

// Writer persists audit records.
type Writer interface {
	Write(ctx context.Context, record Record) error
}
