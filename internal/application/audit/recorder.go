package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	coreaudit "sellerpromotions/admin-api/internal/core/audit"
	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/infrastructure/config"
	"sellerpromotions/admin-api/internal/infrastructure/metrics"
	"sellerpromotions/admin-api/internal/infrastructure/security"
)

var (
	notApplicableJSON = json.RawMessage(`"N/A"`)
	emptyObjectJSON   = json.RawMessage(`{}`)
)

// Entry is one audited admin action.
type Entry struct {
	Event        string
	User         string
	ResourceType string
	ResourceID   string
	Current      coreaudit.CurrentData
	Previous     any
	Tags         []string
}

const defaultMaxConcurrentWrites = 32

// Recorder submits audit records without making the caller wait. Each record
// is attempted once; failures are logged and counted, never returned. At most
// MaxConcurrentWrites writes run at a time; a record that cannot get a slot
// within the write timeout counts as failed.
type Recorder struct {
	writer  coreaudit.Writer
	slots   *semaphore.Weighted
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	maxBody int
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewRecorder returns a recorder. A nil writer disables persistence.
func NewRecorder(writer coreaudit.Writer, settings config.AuditSettings, log *slog.Logger, m *metrics.Metrics) *Recorder {
	timeout := settings.WriteTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	if !settings.Enabled {
		writer = nil
	}
	maxWrites := settings.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = defaultMaxConcurrentWrites
	}
	return &Recorder{
		writer:  writer,
		slots:   semaphore.NewWeighted(int64(maxWrites)),
		log:     log,
		metrics: m,
		timeout: timeout,
		maxBody: settings.MaxBodySize,
		now:     time.Now,
	}
}

// CurrentData describes the request being audited. readData is kept only for
// GET requests and modifiedData only for the others.
func (r *Recorder) CurrentData(info identity.RequestInfo, userID string, readData, modifiedData json.RawMessage, status *int) coreaudit.CurrentData {
	current := coreaudit.CurrentData{
		RequestID:    info.TraceID,
		IP:           info.IP,
		UserAgent:    userID,
		Endpoint:     info.Endpoint,
		HTTPVerb:     info.Method,
		ReadData:     notApplicableJSON,
		ModifiedData: emptyObjectJSON,
		Approvals:    coreaudit.NotApplicable,
		Result:       status,
	}

	if info.Method == http.MethodGet {
		if sanitized := security.SanitizeBody(readData, r.maxBody); sanitized != nil {
			current.ReadData = sanitized
		} else {
			current.ReadData = json.RawMessage(`null`)
		}
	} else if sanitized := security.SanitizeBody(modifiedData, r.maxBody); sanitized != nil {
		current.ModifiedData = sanitized
	}

	return current
}

// Save schedules the write and returns immediately.
func (r *Recorder) Save(entry Entry) {
	record := coreaudit.Record{
		ID:           uuid.NewString(),
		Event:        entry.Event,
		User:         entry.User,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		CurrentData:  entry.Current,
		PreviousData: entry.Previous,
		Tags:         entry.Tags,
		CreatedAt:    r.now().UTC(),
	}
	if record.PreviousData == nil {
		record.PreviousData = map[string]any{}
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}

	if r.writer == nil {
		r.metrics.ObserveAudit(record.Event, "skipped")
		r.log.Debug("audit skipped", "event", record.Event, "resource", record.ResourceType)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.metrics.ObserveAudit(record.Event, "failed")
				r.log.Error("panic while saving audit",
					"panic", p,
					"event", record.Event,
					"resource", record.ResourceType,
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.slots.Acquire(ctx, 1); err != nil {
			r.metrics.ObserveAudit(record.Event, "failed")
			r.log.Error("no audit write slot available",
				"event", record.Event,
				"resource", record.ResourceType,
				"error", err,
			)
			return
		}
		defer r.slots.Release(1)

		if err := r.writer.Write(ctx, record); err != nil {
			r.metrics.ObserveAudit(record.Event, "failed")
			r.log.Error("error saving audit",
				"resource", record.ResourceType,
				"event", record.Event,
				"user", record.User,
				"tags", record.Tags,
				"resource_id", record.ResourceID,
				"error", err,
			)
			return
		}

		r.metrics.ObserveAudit(record.Event, "written")
		r.log.Info("audit saved",
			"resource", record.ResourceType,
			"event", record.Event,
			"user", record.User,
			"request_id", record.CurrentData.RequestID,
		)
	}()
}

// Wait blocks until every scheduled write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
