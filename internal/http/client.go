package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// maxPreallocSize bounds how much of a declared Content-Length is allocated up front.
const maxPreallocSize = 32 << 20

// RequestIDHeader carries a per-request identifier for correlating logs with the backend.
const RequestIDHeader = "X-Request-ID"

// Client wraps HTTP operations against the data API.
//
// Client provides:
//   - Endpoint resolution against a fixed base URL
//   - Configured User-Agent and per-request X-Request-ID headers
//   - Optional throttling
//   - A client span per request, propagated to the backend
//   - Body reads with progress tracking
//
// Timeouts are not set on the underlying *http.Client; callers bound each
// request with a context deadline instead.
//
// Example usage:
//
//	client, _ := NewClient("http://localhost:8000/api")
//
//	resp, err := client.Get(ctx, "/data/xlsx", MediaTypeXLSX, func(read, total int64) {
//	    fmt.Printf("%d / %d bytes\n", read, total)
//	})
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Response is a fully read response body.
type Response struct {
	Body        []byte
	ContentType string
	RequestID   string
}

// Media types requested from the API.
const (
	MediaTypeJSON  = "application/json"
	MediaTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeImage = "image/*"
)

// NewClient creates a new HTTP client for the API rooted at baseURL.
func NewClient(baseURL string, optFns ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    u,
		userAgent:  "DataDisplayer",
		logger:     slog.Default(),
		tracer:     noop.NewTracerProvider().Tracer("no-op tracer"),
	}
	if opts.httpClient != nil {
		c.httpClient = opts.httpClient
	}
	if opts.userAgent != "" {
		c.userAgent = opts.userAgent
	}
	if opts.logger != nil {
		c.logger = opts.logger
	}
	if opts.tracer != nil {
		c.tracer = opts.tracer
	}

	if opts.rps > 0 {
		next := c.httpClient.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		rt, err := newThrottle(opts.rps, opts.burst, c.logger, next)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		hc := *c.httpClient
		hc.Transport = rt
		c.httpClient = &hc
	}

	return c, nil
}

// Endpoint resolves path against the base URL, keeping the base path prefix.
func (c *Client) Endpoint(path string) string {
	return c.baseURL.JoinPath(strings.TrimPrefix(path, "/")).String()
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: &buf,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header), -1 if unknown.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request against path and returns the whole response body.
//
// accept is sent as the Accept header when non-empty. onProgress, if not nil,
// is called as the body is read with (bytesRead, contentLength).
//
// Returns an error if:
//   - The request cannot be sent or the body cannot be read (wraps ErrNetwork)
//   - The response status is not 2xx (*StatusError)
//
// Context errors stay reachable through errors.Is, so a deadline surfaces
// as context.DeadlineExceeded.
func (c *Client) Get(ctx context.Context, path, accept string, onProgress func(read, total int64)) (_ *Response, err error) {
	endpoint := c.Endpoint(path)

	ctx, span := c.tracer.Start(ctx, "http.get", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("url", endpoint))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logger.Debug("sending request", "method", req.Method, "url", endpoint, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	var buf bytes.Buffer
	// Content-Length is only a hint; a lying server must not size the buffer.
	if n := resp.ContentLength; n > 0 && n <= maxPreallocSize {
		buf.Grow(int(n))
	}

	var w io.Writer = &buf
	if onProgress != nil {
		onProgress(0, resp.ContentLength)
		w = &ProgressWriter{Writer: &buf, Total: resp.ContentLength, OnUpdate: onProgress}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrNetwork, err)
	}

	c.logger.Debug("received response", "url", endpoint, "status", resp.StatusCode,
		"bytes", buf.Len(), "request_id", requestID)

	return &Response{
		Body:        buf.Bytes(),
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   requestID,
	}, nil
}
