package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"sellerpromotions/admin-api/internal/core/audit"
)

func TestInsertArgs(t *testing.T) {
	status := 200
	record := audit.Record{
		ID:           "6f1c0f3e-8a53-4d38-9d59-0d3b9f3f2a11",
		Event:        "editpromotion",
		User:         "42",
		ResourceType: "promotions",
		ResourceID:   "session-1",
		CurrentData: audit.CurrentData{
			RequestID:    "trace-1",
			HTTPVerb:     "POST",
			ReadData:     json.RawMessage(`"N/A"`),
			ModifiedData: json.RawMessage(`{"promotionId":"P-1"}`),
			Approvals:    audit.NotApplicable,
			Result:       &status,
		},
		PreviousData: map[string]any{"config": map[string]any{"siteId": "MLA"}},
		Tags:         []string{"post", "promotions", "edit-promotion"},
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	args, err := insertArgs(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 9 {
		t.Fatalf("expected 9 args, got %d", len(args))
	}

	var current map[string]any
	if err := json.Unmarshal(args[5].([]byte), &current); err != nil {
		t.Fatalf("current data is not JSON: %v", err)
	}
	if current["request_id"] != "trace-1" || current["approvals"] != "N/A" || current["result"] != float64(200) {
		t.Errorf("unexpected current data %v", current)
	}

	var previous map[string]any
	if err := json.Unmarshal(args[6].([]byte), &previous); err != nil {
		t.Fatalf("previous data is not JSON: %v", err)
	}
	if _, ok := previous["config"]; !ok {
		t.Errorf("expected config in previous data, got %v", previous)
	}

	if tags := args[7].([]string); len(tags) != 3 {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestInsertArgs_Defaults(t *testing.T) {
	args, err := insertArgs(audit.Record{ID: "id", Event: "get"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(args[6].([]byte)) != `{}` {
		t.Errorf("expected empty previous data, got %s", args[6])
	}
	if tags := args[7].([]string); tags == nil || len(tags) != 0 {
		t.Errorf("expected empty tag list, got %v", tags)
	}
}
