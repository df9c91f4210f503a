package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"sellerpromotions/admin-api/internal/core/middleend"
	"sellerpromotions/admin-api/internal/infrastructure/config"
	ctxutil "sellerpromotions/admin-api/internal/infrastructure/context"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
	"sellerpromotions/admin-api/internal/infrastructure/metrics"
	"sellerpromotions/admin-api/internal/infrastructure/security"
)

const maxErrorBody = 1 << 20

// Options configures one resource client.
type Options struct {
	// Resource names the client in logs and metrics.
	Resource   string
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	// Transport is shared between clients so they reuse connections.
	Transport http.RoundTripper
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Client performs middleend calls with a fixed timeout. Idempotent calls are
// retried on transport failures and 5xx replies.
type Client struct {
	resource   string
	baseURL    string
	retries    int
	retryDelay time.Duration
	http       *http.Client
	log        *slog.Logger
	metrics    *metrics.Metrics
}

func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		resource:   opts.Resource,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		http:       httpx.NewClient(httpx.ClientConfig{Timeout: opts.Timeout, Transport: opts.Transport}),
		log:        log.With("resource", opts.Resource),
		metrics:    opts.Metrics,
	}
}

// ForMiddleend builds a client for a middleend resource. In local mode it
// targets the local base URL and never retries.
func ForMiddleend(cfg config.MiddleendSettings, resource string, timeout time.Duration, transport http.RoundTripper, log *slog.Logger, m *metrics.Metrics) *Client {
	opts := Options{
		Resource:   resource,
		BaseURL:    cfg.BaseURL,
		Timeout:    timeout,
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Transport:  transport,
		Logger:     log,
		Metrics:    m,
	}
	if cfg.Local() {
		opts.BaseURL = cfg.LocalBaseURL
		opts.Retries = 0
	}
	return New(opts)
}

// Do executes req. Non-2xx replies are returned as *middleend.ResponseError.
func (c *Client) Do(ctx context.Context, req middleend.Request) (*middleend.Response, error) {
	attempts := 1
	if c.retryable(req) {
		attempts += c.retries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
			c.log.WarnContext(ctx, "retrying middleend call", "attempt", attempt, "path", req.Path, "error", lastErr)
		}

		resp, err := c.do(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !shouldRetry(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) retryable(req middleend.Request) bool {
	if c.retries <= 0 || req.File != nil || req.Stream {
		return false
	}
	return req.Method == http.MethodGet || req.Method == http.MethodHead
}

// shouldRetry keeps the per-call timeout fixed: a call that ran out of time is
// not sent again.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	var respErr *middleend.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) do(ctx context.Context, req middleend.Request) (*middleend.Response, error) {
	traceID := ctxutil.GetTraceID(ctx)
	target := c.baseURL + req.Path
	if len(req.Params) > 0 {
		target += "?" + req.Params.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.resource, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if traceID != "" {
		httpReq.Header.Set("X-Request-Id", traceID)
	}

	safeURL := security.SanitizeURL(target)
	c.log.Info("middleend_request", "trace_id", traceID, "method", req.Method, "url", safeURL)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		elapsed := time.Since(start)
		c.metrics.ObserveUpstream(c.resource, req.Method, 0, elapsed)
		c.log.Error("middleend_request_failed",
			"trace_id", traceID,
			"method", req.Method,
			"url", safeURL,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		c.observe(traceID, req.Method, safeURL, resp.StatusCode, len(data), time.Since(start))
		return nil, &middleend.ResponseError{Status: resp.StatusCode, Body: data}
	}

	if req.Stream {
		c.observe(traceID, req.Method, safeURL, resp.StatusCode, -1, time.Since(start))
		return &middleend.Response{Status: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.metrics.ObserveUpstream(c.resource, req.Method, 0, time.Since(start))
		return nil, fmt.Errorf("read %s response: %w", c.resource, err)
	}
	c.observe(traceID, req.Method, safeURL, resp.StatusCode, len(data), time.Since(start))

	return &middleend.Response{Status: resp.StatusCode, Data: data, Header: resp.Header}, nil
}

func (c *Client) observe(traceID, method, url string, status, size int, elapsed time.Duration) {
	c.metrics.ObserveUpstream(c.resource, method, status, elapsed)

	attrs := []any{
		"trace_id", traceID,
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
	}
	if size >= 0 {
		attrs = append(attrs, "response_size_bytes", size)
	}

	switch {
	case status >= 500:
		c.log.Error("middleend_response", attrs...)
	case status >= 400:
		c.log.Warn("middleend_response", attrs...)
	default:
		c.log.Info("middleend_response", attrs...)
	}
}

// encodeBody returns the request body and its content type. Files are streamed
// through a pipe so the upload is read exactly once.
func encodeBody(req middleend.Request) (io.Reader, string, error) {
	if req.File != nil {
		pr, pw := io.Pipe()
		writer := multipart.NewWriter(pw)
		go func() {
			part, err := writer.CreateFormFile("file", req.File.Name)
			if err == nil {
				_, err = io.Copy(part, req.File.Content)
			}
			if err == nil {
				err = writer.Close()
			}
			pw.CloseWithError(err)
		}()
		return pr, writer.FormDataContentType(), nil
	}

	if req.Body == nil {
		return nil, "", nil
	}

	if raw, ok := req.Body.(json.RawMessage); ok {
		if len(raw) == 0 {
			return nil, "", nil
		}
		return bytes.NewReader(raw), "application/json", nil
	}
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(payload), "application/json", nil
}
