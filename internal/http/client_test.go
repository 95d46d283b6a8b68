package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	c, err := NewClient(ts.URL+"/api", opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("/api"); err == nil {
		t.Error("expected error for relative base url")
	}
}

func TestClient_Endpoint(t *testing.T) {
	c, err := NewClient("http://localhost:8000/api")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/data", "http://localhost:8000/api/data"},
		{"data/xlsx", "http://localhost:8000/api/data/xlsx"},
		{"/data_visualisation", "http://localhost:8000/api/data_visualisation"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := c.Endpoint(tt.path); got != tt.want {
				t.Errorf("Endpoint(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestClient_GetSendsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/data/xlsx" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != MediaTypeXLSX {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "TestAgent/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id")
		}
		w.Header().Set("Content-Type", MediaTypeXLSX)
		w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
	}, WithUserAgent("TestAgent/1.0"))

	resp, err := c.Get(t.Context(), "/data/xlsx", MediaTypeXLSX, nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(resp.Body, []byte{0x50, 0x4b, 0x03, 0x04}) {
		t.Errorf("Body = %v", resp.Body)
	}
	if resp.ContentType != MediaTypeXLSX {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
	if resp.RequestID == "" {
		t.Error("RequestID should be set")
	}
}

func TestClient_GetStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Get(t.Context(), "/data", MediaTypeJSON, nil)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
	if statusErr.Body != "boom" {
		t.Errorf("Body = %q", statusErr.Body)
	}
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Error("StatusError should unwrap to ErrUnexpectedStatus")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("status failure must not be a network failure")
	}
}

func TestClient_GetNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := ts.URL
	ts.Close()

	c, err := NewClient(baseURL, WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Get(t.Context(), "/data", "", nil)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_GetDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/data", "", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestClient_GetProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 64<<10)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	var lastRead, lastTotal int64
	calls := 0
	resp, err := c.Get(t.Context(), "/data", "", func(read, total int64) {
		calls++
		lastRead, lastTotal = read, total
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if calls < 2 {
		t.Errorf("expected progress callbacks, got %d", calls)
	}
	if lastRead != int64(len(payload)) || lastTotal != int64(len(payload)) {
		t.Errorf("last progress = %d/%d, want %d", lastRead, lastTotal, len(payload))
	}
	if len(resp.Body) != len(payload) {
		t.Errorf("Body length = %d", len(resp.Body))
	}
}

func TestProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	var updates []int64
	pw := &ProgressWriter{
		Writer:   &buf,
		Total:    10,
		OnUpdate: func(written, _ int64) { updates = append(updates, written) },
	}

	pw.Write([]byte("hello"))
	pw.Write([]byte("world"))

	if buf.String() != "helloworld" {
		t.Errorf("buffer = %q", buf.String())
	}
	if len(updates) != 2 || updates[1] != 10 {
		t.Errorf("updates = %v", updates)
	}
}

func TestClient_GetPropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Traceparent")
		w.Write([]byte("{}"))
	})

	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)

	if _, err := c.Get(ctx, "/data", MediaTypeJSON, nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.Contains(got, traceID.String()) {
		t.Errorf("traceparent = %q, want trace id %s", got, traceID)
	}
}

type lyingTransport struct {
	length int64
	body   string
}

func (lt lyingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": []string{MediaTypeJSON}},
		ContentLength: lt.length,
		Body:          io.NopCloser(strings.NewReader(lt.body)),
		Request:       req,
	}, nil
}

func TestClient_GetIgnoresBogusContentLength(t *testing.T) {
	tests := []struct {
		name   string
		length int64
	}{
		{"huge", 1 << 60},
		{"just over prealloc cap", maxPreallocSize + 1},
		{"unknown", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := &http.Client{Transport: lyingTransport{length: tt.length, body: "tiny"}}
			c, err := NewClient("http://localhost:8000/api", WithHTTPClient(hc), WithLogger(slog.New(slog.DiscardHandler)))
			if err != nil {
				t.Fatal(err)
			}

			var lastTotal int64
			resp, err := c.Get(context.Background(), "/data", MediaTypeJSON, func(_, total int64) {
				lastTotal = total
			})
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(resp.Body) != "tiny" {
				t.Errorf("Body = %q, want %q", resp.Body, "tiny")
			}
			if lastTotal != tt.length {
				t.Errorf("progress total = %d, want %d", lastTotal, tt.length)
			}
		})
	}
}
