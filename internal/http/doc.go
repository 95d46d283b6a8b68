// Package http provides an HTTP client configured for the data API.
//
// The Client in this package handles:
//   - Resolving endpoint paths against the configured API base URL
//   - User-Agent and X-Request-ID headers on every request
//   - Optional token-bucket throttling of outbound requests
//   - Reading response bodies with progress tracking
//   - Classifying failures as network errors or unexpected status codes
//
// # Basic Usage
//
//	client, err := http.NewClient("http://localhost:8000/api", http.WithUserAgent("DataDisplayer"))
//
//	resp, err := client.Get(ctx, "/data", "application/json", nil)
//	var statusErr *http.StatusError
//	if errors.As(err, &statusErr) {
//	    fmt.Println(statusErr.StatusCode)
//	}
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   &buf,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
