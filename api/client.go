// ABOUTME: REST client for the agent dashboard backend
// ABOUTME: Attaches bearer tokens, unwraps envelopes, normalizes errors and handles 401 globally
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/agentdash/models"
)

// APIPrefix is prepended to every request path.
const APIPrefix = "/api/v1"

// TokenStore holds the bearer token for authenticated calls.
type TokenStore interface {
	Token() string
	ClearToken()
}

// RequestOptions tunes a single call.
type RequestOptions struct {
	Query   url.Values
	Timeout time.Duration
	// Supersede cancels any in-flight request with the same method and URL.
	Supersede bool
	// NoAuth skips the Authorization header.
	NoAuth bool
}

// Meta describes a successful response.
type Meta struct {
	Status     int
	RequestID  string
	Pagination *models.Pagination
}

// File is one file part of a multipart body.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// Multipart is a request body sent as multipart/form-data.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenStore
	onUnauthorized func()
	logger         *log.Logger

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	cancel context.CancelCauseFunc
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler registers fn to run after a 401 has cleared the token.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		inflight:   make(map[string]*inflightCall),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// transportError classifies a failed send or body read. A request cancelled
// by a newer one reports ErrSuperseded even after its headers arrived.
func (c *Client) transportError(ctx context.Context, method, path, requestID string, err error) *Error {
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		c.logger.Debug("request superseded", "method", method, "path", path, "request_id", requestID)
		return &Error{Message: "superseded by a newer request", kind: ErrSuperseded, cause: err}
	}
	c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "err", err)
	return &Error{kind: ErrNetwork, cause: err}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs one request. body may be nil, a *Multipart, or any JSON value.
// On success the response data is decoded into out when out is non-nil.
// Every failure is returned as an *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts *RequestOptions) (*Meta, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	endpoint := c.endpoint(path, opts.Query)
	requestID := ulid.Make().String()
	apiErr := func(e *Error) *Error {
		e.Method = method
		e.Path = path
		e.RequestID = requestID
		return e
	}

	// Without a per-call timeout only the caller's context bounds the request.
	if opts.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.Timeout)
		defer cancelTimeout()
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if opts.Supersede {
		release := c.track(method+" "+endpoint, cancel)
		defer release()
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, apiErr(&Error{Message: "encode request body", cause: err})
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, apiErr(&Error{Message: "create request", cause: err})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !opts.NoAuth && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apiErr(c.transportError(ctx, method, path, requestID, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apiErr(c.transportError(ctx, method, path, requestID, fmt.Errorf("read response: %w", err)))
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
		"request_id", requestID,
	)

	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			c.tokens.ClearToken()
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, apiErr(parseError(resp.StatusCode, raw))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiErr(parseError(resp.StatusCode, raw))
	}

	meta := &Meta{Status: resp.StatusCode, RequestID: requestID}
	if err := decodeSuccess(raw, out, meta); err != nil {
		return nil, apiErr(&Error{Status: resp.StatusCode, Message: "decode response", cause: err})
	}
	return meta, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + APIPrefix + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// track registers cancel under key, cancelling whatever call held the key before.
func (c *Client) track(key string, cancel context.CancelCauseFunc) func() {
	call := &inflightCall{cancel: cancel}

	c.mu.Lock()
	if prev, ok := c.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	c.inflight[key] = call
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		if c.inflight[key] == call {
			delete(c.inflight, key)
		}
		c.mu.Unlock()
	}
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return encodeMultipart(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(payload), "application/json", nil
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(m *Multipart) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	for _, f := range m.Files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Name)))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", f.Field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// decodeSuccess decodes a 2xx body. An envelope {success, data, pagination}
// contributes only its data member; any other body is decoded whole.
func decodeSuccess(raw []byte, out any, meta *Meta) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return err
		}
		meta.Pagination = paginationFrom(fields)
	}

	data, isEnvelope := fields["data"]
	if _, ok := fields["success"]; ok {
		isEnvelope = true
	}

	if out == nil {
		return nil
	}
	if !isEnvelope {
		return json.Unmarshal(trimmed, out)
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}

func paginationFrom(fields map[string]json.RawMessage) *models.Pagination {
	if raw, ok := fields["pagination"]; ok {
		var p models.Pagination
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p
		}
	}
	if _, ok := fields["total_pages"]; !ok {
		if _, ok := fields["total"]; !ok {
			return nil
		}
	}

	var p models.Pagination
	for key, dst := range map[string]*int{
		"page":        &p.Page,
		"per_page":    &p.PerPage,
		"total":       &p.Total,
		"total_pages": &p.TotalPages,
	} {
		if raw, ok := fields[key]; ok {
			_ = json.Unmarshal(raw, dst)
		}
	}
	return &p
}
