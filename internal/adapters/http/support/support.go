package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	appaudit "sellerpromotions/admin-api/internal/application/audit"
	"sellerpromotions/admin-api/internal/application/siteconfig"
	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/core/middleend"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
)

const (
	fileField     = "file"
	defaultMaxMem = 32 << 20
)

var errMissingFile = errors.New("missing file")

// Base carries what every route handler needs.
type Base struct {
	Resolver      *siteconfig.Resolver
	Recorder      *appaudit.Recorder
	Log           *slog.Logger
	MaxUploadSize int64
}

// Event names the audit record written for a route.
type Event struct {
	Name     string
	Resource string
	Tags     []string
	// Previous is stored as the previous data. Nil means an empty object.
	Previous any
	// NoResult leaves the result of the record null.
	NoResult bool
}

// User returns the caller identity placed by the authenticator.
func User(r *http.Request) identity.User {
	user, _ := identity.FromContext(r.Context())
	return user
}

// Detached keeps the request values but not its cancellation, so an upstream
// call that already started finishes and is audited when the client leaves.
func Detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// Promotions resolves the promotions configuration of the request.
func (b Base) Promotions(r *http.Request) middleend.Config {
	return b.Resolver.Promotions(httpx.ScopeFromRequest(r))
}

// Items resolves the items configuration of the request.
func (b Base) Items(r *http.Request) middleend.Config {
	return b.Resolver.Items(httpx.ScopeFromRequest(r))
}

// Credibility resolves the credibility configuration of the request.
func (b Base) Credibility(r *http.Request) middleend.Config {
	return b.Resolver.Credibility(httpx.ScopeFromRequest(r))
}

// ReadJSON returns the raw request body. An empty body is valid; anything
// else must be JSON.
func (b Base) ReadJSON(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(b.limit(w, r))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", nil, b.Log)
		return nil, false
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, true
	}
	if !json.Valid(body) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", []string{"body must be valid JSON"}, b.Log)
		return nil, false
	}
	return body, true
}

// Decode reads the JSON body into v and also returns it raw for auditing.
func (b Base) Decode(w http.ResponseWriter, r *http.Request, v any) (json.RawMessage, bool) {
	body, ok := b.ReadJSON(w, r)
	if !ok {
		return nil, false
	}
	if len(body) == 0 {
		return nil, true
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body", []string{err.Error()}, b.Log)
		return nil, false
	}
	return body, true
}

// ReadFile returns the multipart "file" field. The returned closer must be
// called once the upload has been forwarded.
func (b Base) ReadFile(w http.ResponseWriter, r *http.Request) (middleend.File, func(), bool) {
	r.Body = b.limit(w, r)
	if err := r.ParseMultipartForm(defaultMaxMem); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart body", []string{err.Error()}, b.Log)
		return middleend.File{}, nil, false
	}

	file, header, err := r.FormFile(fileField)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart body", []string{fmt.Sprintf("%s: %q", errMissingFile, fileField)}, b.Log)
		return middleend.File{}, nil, false
	}

	release := func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return middleend.File{Name: fileName(header), Content: file}, release, true
}

func fileName(header *multipart.FileHeader) string {
	if header == nil || header.Filename == "" {
		return "file.csv"
	}
	return header.Filename
}

func (b Base) limit(w http.ResponseWriter, r *http.Request) io.ReadCloser {
	if b.MaxUploadSize <= 0 {
		return r.Body
	}
	return http.MaxBytesReader(w, r.Body, b.MaxUploadSize)
}

// Respond mirrors the middleend status and body, or writes the failure.
func (b Base) Respond(w http.ResponseWriter, resp *middleend.Response, err error) {
	if err != nil {
		httpx.WriteUpstreamError(w, err, b.Log)
		return
	}
	httpx.WriteRaw(w, resp.Status, resp.Data, b.Log)
}

// RespondOK answers 200 with the middleend body, or writes the failure.
func (b Base) RespondOK(w http.ResponseWriter, resp *middleend.Response, err error) {
	if err != nil {
		httpx.WriteUpstreamError(w, err, b.Log)
		return
	}
	httpx.WriteRaw(w, http.StatusOK, resp.Data, b.Log)
}

// RespondValue answers 200 with v, or writes the failure.
func (b Base) RespondValue(w http.ResponseWriter, v any, err error) {
	if err != nil {
		httpx.WriteUpstreamError(w, err, b.Log)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v, b.Log)
}

// Audit records the outcome of a route. GET routes keep the response as read
// data; the others keep the request body as modified data. A nil response
// without error counts as a 200 answered by this service.
func (b Base) Audit(r *http.Request, ev Event, body json.RawMessage, resp *middleend.Response, err error) {
	if b.Recorder == nil {
		return
	}
	user := User(r)

	var (
		readData json.RawMessage
		status   int
	)
	switch {
	case err != nil:
		status = http.StatusInternalServerError
		var upstream *middleend.Error
		if errors.As(err, &upstream) {
			status = upstream.Status
			readData = upstream.Data
		}
	case resp != nil:
		status = resp.Status
		readData = resp.Data
	default:
		status = http.StatusOK
	}

	var result *int
	if !ev.NoResult && status != 0 {
		result = &status
	}

	b.Recorder.Save(appaudit.Entry{
		Event:        ev.Name,
		User:         user.UserID,
		ResourceType: ev.Resource,
		ResourceID:   user.SessionID,
		Current:      b.Recorder.CurrentData(httpx.RequestInfoFrom(r), user.UserID, readData, body, result),
		Previous:     ev.Previous,
		Tags:         ev.Tags,
	})
}

// ConfigSnapshot is the previous data some routes store: the resolved
// upstream configuration.
func ConfigSnapshot(cfg middleend.Config) map[string]any {
	return map[string]any{
		"config": map[string]string{
			"siteId":  cfg.SiteID,
			"version": cfg.Version,
			"url":     cfg.Path(),
		},
	}
}
