package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"sellerpromotions/admin-api/internal/core/audit"
	"sellerpromotions/admin-api/internal/infrastructure/config"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
)

// Writer posts audit records to the audit service.
type Writer struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewWriter targets {BaseURL}/audits/{Name}/records.
func NewWriter(cfg config.AuditSettings, log *slog.Logger) *Writer {
	return &Writer{
		endpoint: fmt.Sprintf("%s/audits/%s/records", strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(cfg.Name)),
		client:   httpx.NewClient(httpx.ClientConfig{Timeout: cfg.WriteTimeout}),
		log:      log,
	}
}

// Write sends one record. Any non-2xx reply is an error.
func (w *Writer) Write(ctx context.Context, record audit.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := record.CurrentData.RequestID; traceID != "" {
		req.Header.Set("X-Request-Id", traceID)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post audit record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("audit service responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	if w.log != nil {
		w.log.Debug("audit record posted", "id", record.ID, "event", record.Event)
	}
	return nil
}

var _ audit.Writer = (*Writer)(nil)
