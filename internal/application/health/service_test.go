package health

import (
	"context"
	"errors"
	"testing"
	"time"

	corehealth "sellerpromotions/admin-api/internal/core/health"
)

func TestNewService(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)

	if service == nil {
		t.Fatal("expected service to be created, got nil")
	}

	if service.meta != meta {
		t.Error("expected service to have the provided metadata")
	}

	if service.startedAt.IsZero() {
		t.Error("expected startedAt to be set")
	}
}

func TestService_Status(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)
	startTime := service.startedAt

	time.Sleep(10 * time.Millisecond)

	status := service.Status(context.Background())

	if status.Service != meta.Service {
		t.Errorf("expected service %q, got %q", meta.Service, status.Service)
	}

	if status.Version != meta.Version {
		t.Errorf("expected version %q, got %q", meta.Version, status.Version)
	}

	if status.Status != corehealth.StatusUp {
		t.Errorf("expected status 'UP', got %q", status.Status)
	}

	if !status.StartedAt.Equal(startTime) {
		t.Errorf("expected startedAt to match service start time")
	}

	if status.Uptime == "" {
		t.Error("expected uptime to be set")
	}

	if len(status.Dependencies) != 0 {
		t.Errorf("expected no dependencies, got %v", status.Dependencies)
	}
}

func TestService_Status_Dependencies(t *testing.T) {
	tests := []struct {
		name     string
		checks   []Check
		expected string
	}{
		{
			name: "all healthy",
			checks: []Check{
				{Name: "postgres", Ping: func(ctx context.Context) error { return nil }},
				{Name: "redis", Ping: func(ctx context.Context) error { return nil }},
			},
			expected: corehealth.StatusUp,
		},
		{
			name: "one failing",
			checks: []Check{
				{Name: "postgres", Ping: func(ctx context.Context) error { return nil }},
				{Name: "redis", Ping: func(ctx context.Context) error { return errors.New("connection refused") }},
			},
			expected: corehealth.StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(Metadata{Service: "test"}, tt.checks...)

			status := service.Status(context.Background())

			if status.Status != tt.expected {
				t.Errorf("expected status %q, got %q", tt.expected, status.Status)
			}
			if len(status.Dependencies) != len(tt.checks) {
				t.Fatalf("expected %d dependencies, got %d", len(tt.checks), len(status.Dependencies))
			}
			for _, dep := range status.Dependencies {
				if dep.Status == corehealth.StatusDown && dep.Error == "" {
					t.Errorf("expected error detail for %s", dep.Name)
				}
			}
		})
	}
}

func TestService_Status_ProbeHasDeadline(t *testing.T) {
	service := NewService(Metadata{Service: "test"}, Check{
		Name: "slow",
		Ping: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("missing deadline")
			}
			return nil
		},
	})

	if status := service.Status(context.Background()); status.Status != corehealth.StatusUp {
		t.Errorf("expected UP, got %+v", status)
	}
}
