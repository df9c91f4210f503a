package health

import (
	"context"
	"time"

	corehealth "sellerpromotions/admin-api/internal/core/health"
)

const probeTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Check probes one optional backing service such as the audit database or
// the lookup cache.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checks    []Check
}

func NewService(meta Metadata, checks ...Check) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checks:    checks,
	}
}

// Status returns the current availability snapshot. A failing dependency
// degrades the service without taking it down.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, check := range s.checks {
		dep := corehealth.Dependency{Name: check.Name, Status: corehealth.StatusUp}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := check.Ping(probeCtx)
		cancel()

		if err != nil {
			dep.Status = corehealth.StatusDown
			dep.Error = err.Error()
			status.Status = corehealth.StatusDegraded
		}
		status.Dependencies = append(status.Dependencies, dep)
	}

	return status
}
