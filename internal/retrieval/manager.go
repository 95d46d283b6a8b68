package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/handiism/data-displayer/internal/config"
	"github.com/handiism/data-displayer/internal/http"
	ioutils "github.com/handiism/data-displayer/internal/io"
	"github.com/handiism/data-displayer/internal/model"
	"github.com/handiism/data-displayer/internal/spreadsheet"
)

// API endpoints relative to settings.APIBaseURL.
const (
	PathData          = "/data"
	PathDataXLSX      = "/data/xlsx"
	PathVisualisation = "/data_visualisation"
)

// transfer holds byte counters for the body currently being read.
type transfer struct {
	received atomic.Int64
	total    atomic.Int64
}

// Manager coordinates the three data retrieval actions.
type Manager struct {
	settings   *config.Settings
	httpClient *http.Client
	blobs      *ioutils.BlobStore
	notifier   Notifier
	logger     *slog.Logger
	tracer     trace.Tracer
	onProgress func(ProgressEvent)

	transfers map[model.Action]*transfer

	mu               sync.RWMutex
	states           map[model.Action]*model.ActionState
	cancels          map[model.Action]context.CancelFunc
	visualisationURL string
	closed           bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sets where failure notifications are delivered.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTracer sets the tracer for action and request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// NewManager creates a new Manager for the API configured in settings.
//
// onProgress may be nil. It can be called from several goroutines when
// actions overlap.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) (*Manager, error) {
	m := &Manager{
		settings:   settings,
		blobs:      ioutils.NewBlobStore(),
		logger:     slog.Default(),
		tracer:     noop.NewTracerProvider().Tracer("no-op tracer"),
		onProgress: onProgress,
		transfers:  make(map[model.Action]*transfer),
		states:     make(map[model.Action]*model.ActionState),
		cancels:    make(map[model.Action]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(m)
	}

	clientOpts := []http.Option{
		http.WithUserAgent(settings.UserAgent),
		http.WithLogger(m.logger),
		http.WithTracer(m.tracer),
	}
	if settings.RequestsPerSecond > 0 {
		clientOpts = append(clientOpts, http.WithThrottle(settings.RequestsPerSecond, max(1, settings.RequestBurst)))
	}

	client, err := http.NewClient(settings.APIBaseURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}
	m.httpClient = client

	for _, a := range model.Actions {
		m.states[a] = &model.ActionState{Action: a, Status: model.StatusIdle}
		m.transfers[a] = &transfer{}
	}

	return m, nil
}

// Run starts the given action.
func (m *Manager) Run(ctx context.Context, action model.Action) error {
	switch action {
	case model.ActionJSON:
		return m.DownloadJSON(ctx)
	case model.ActionXLSX:
		return m.DownloadXLSX(ctx)
	case model.ActionVisualisation:
		return m.ViewVisualisation(ctx)
	}
	return fmt.Errorf("unknown action %d", action)
}

// DownloadJSON fetches /data, re-encodes it pretty-printed and saves it as
// settings.JSONFileName in the downloads directory.
func (m *Manager) DownloadJSON(ctx context.Context) error {
	return m.run(ctx, model.ActionJSON, func(ctx context.Context) error {
		resp, err := m.httpClient.Get(ctx, PathData, http.MediaTypeJSON, m.tracker(model.ActionJSON))
		if err != nil {
			return fmt.Errorf("fetching %s: %w", PathData, err)
		}

		body, err := ioutils.IndentJSON(resp.Body, m.settings.JSONIndent)
		if err != nil {
			return fmt.Errorf("parsing %s response: %w", PathData, err)
		}

		path, err := m.saveBlob(ctx, body, http.MediaTypeJSON, m.settings.JSONFileName)
		if err != nil {
			return err
		}

		m.progress(ProgressEvent{
			Action:  model.ActionJSON,
			Message: fmt.Sprintf("Saved %s (%s, %s)", path, ioutils.DescribeJSON(resp.Body), ioutils.FormatBytes(int64(len(body)))),
			Level:   LevelSuccess,
		})
		return nil
	})
}

// DownloadXLSX fetches /data/xlsx and saves the body byte for byte as
// settings.XLSXFileName. A short workbook summary is reported afterwards;
// failing to read the workbook does not fail the action.
func (m *Manager) DownloadXLSX(ctx context.Context) error {
	return m.run(ctx, model.ActionXLSX, func(ctx context.Context) error {
		resp, err := m.httpClient.Get(ctx, PathDataXLSX, http.MediaTypeXLSX, m.tracker(model.ActionXLSX))
		if err != nil {
			return fmt.Errorf("fetching %s: %w", PathDataXLSX, err)
		}

		path, err := m.saveBlob(ctx, resp.Body, http.MediaTypeXLSX, m.settings.XLSXFileName)
		if err != nil {
			return err
		}

		m.progress(ProgressEvent{
			Action:  model.ActionXLSX,
			Message: fmt.Sprintf("Saved %s (%s)", path, ioutils.FormatBytes(int64(len(resp.Body)))),
			Level:   LevelSuccess,
		})

		summary, err := spreadsheet.Summarize(resp.Body)
		if err != nil {
			m.logger.Warn("downloaded workbook is unreadable", "path", path, "error", err)
			m.progress(ProgressEvent{Action: model.ActionXLSX, Message: "Saved file is not a readable workbook", Level: LevelWarning})
			return nil
		}
		m.progress(ProgressEvent{Action: model.ActionXLSX, Message: summary.String(), Level: LevelInfo})
		return nil
	})
}

// ViewVisualisation fetches /data_visualisation and makes it the displayed
// visualisation. The previously displayed blob is revoked first.
func (m *Manager) ViewVisualisation(ctx context.Context) error {
	return m.run(ctx, model.ActionVisualisation, func(ctx context.Context) error {
		resp, err := m.httpClient.Get(ctx, PathVisualisation, http.MediaTypeImage, m.tracker(model.ActionVisualisation))
		if err != nil {
			return fmt.Errorf("fetching %s: %w", PathVisualisation, err)
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return fmt.Errorf("%w: %w", ErrClosed, context.Canceled)
		}
		if m.visualisationURL != "" {
			m.blobs.Revoke(m.visualisationURL)
			m.visualisationURL = ""
		}
		ref := m.blobs.Create(resp.Body, resp.ContentType)
		m.visualisationURL = ref
		m.mu.Unlock()

		blob, _ := m.blobs.Get(ref)
		if !strings.HasPrefix(blob.ContentType, "image/") {
			m.logger.Warn("visualisation is not an image", "content_type", blob.ContentType, "request_id", resp.RequestID)
		}

		m.progress(ProgressEvent{
			Action:  model.ActionVisualisation,
			Message: fmt.Sprintf("Loaded visualisation (%s, %s)", blob.ContentType, ioutils.FormatBytes(int64(len(blob.Data)))),
			Level:   LevelSuccess,
		})
		return nil
	})
}

// SaveVisualisation writes the displayed visualisation to the downloads
// directory, named settings.VisualisationFileName plus an extension for its
// media type. It returns the saved path.
func (m *Manager) SaveVisualisation(ctx context.Context) (string, error) {
	ref, blob, ok := m.Visualisation()
	if !ok {
		return "", ErrNoVisualisation
	}

	name := m.settings.VisualisationFileName + ioutils.Extension(blob.ContentType)
	path, err := ioutils.SaveFile(ctx, m.settings.DownloadsPath, name, blob.Data)
	if err != nil {
		return "", fmt.Errorf("saving visualisation: %w", err)
	}

	m.logger.Info("visualisation saved", "path", path, "ref", ref)
	m.progress(ProgressEvent{Action: model.ActionVisualisation, Message: fmt.Sprintf("Saved %s", path), Level: LevelSuccess})
	return path, nil
}

// Visualisation returns the displayed visualisation reference and payload.
func (m *Manager) Visualisation() (string, ioutils.Blob, bool) {
	m.mu.RLock()
	ref := m.visualisationURL
	m.mu.RUnlock()

	if ref == "" {
		return "", ioutils.Blob{}, false
	}
	blob, ok := m.blobs.Get(ref)
	return ref, blob, ok
}

// State returns a snapshot of the action's state.
func (m *Manager) State(action model.Action) model.ActionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.states[action]; ok {
		return *st
	}
	return model.ActionState{Action: action, Status: model.StatusIdle}
}

// Loading reports whether any action is in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.states {
		if st.Status.IsActive() {
			return true
		}
	}
	return false
}

// Enabled reports whether the trigger for action should accept input.
// Every trigger is disabled while any action is in flight.
func (m *Manager) Enabled(action model.Action) bool {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return false
	}
	if _, ok := m.transfers[action]; !ok {
		return false
	}
	return !m.Loading()
}

// GetProgress returns bytes received and expected for the action's current
// or last transfer. total is -1 when the server sent no Content-Length.
func (m *Manager) GetProgress(action model.Action) (received, total int64) {
	tr, ok := m.transfers[action]
	if !ok {
		return 0, 0
	}
	return tr.received.Load(), tr.total.Load()
}

// Cancel aborts the action if it is in flight.
func (m *Manager) Cancel(action model.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[action]; ok {
		cancel()
	}
}

// CancelAll aborts every in-flight action.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cancel := range m.cancels {
		cancel()
	}
}

// Close cancels in-flight actions and releases the displayed visualisation.
// Actions started after Close fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for _, cancel := range m.cancels {
		cancel()
	}
	if m.visualisationURL != "" {
		m.blobs.Revoke(m.visualisationURL)
		m.visualisationURL = ""
	}
	return nil
}

// run executes fn as one action: it refuses to start while the action is
// Pending, bounds fn with the request timeout, and always settles the state.
func (m *Manager) run(ctx context.Context, action model.Action, fn func(context.Context) error) (err error) {
	ctx, err = m.begin(ctx, action)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	ctx, span := m.tracer.Start(ctx, "retrieval."+action.String())
	defer func() {
		m.finish(action, err)
		if err != nil {
			span.SetAttributes(attribute.String("failure", string(Classify(err))))
			m.report(action, err)
		}
		span.End()
	}()

	m.logger.Debug("action started", "action", action.String())
	m.progress(ProgressEvent{Action: action, Message: fmt.Sprintf("%s started", action.Label()), Level: LevelVerbose})
	return fn(ctx)
}

func (m *Manager) begin(ctx context.Context, action model.Action) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	st, ok := m.states[action]
	if !ok {
		return nil, fmt.Errorf("unknown action %d", action)
	}
	if st.Status.IsActive() {
		return nil, ErrActionPending
	}

	ctx, cancel := context.WithTimeout(ctx, m.settings.Timeout())
	m.cancels[action] = cancel

	st.Status = model.StatusPending
	st.Failure = model.FailureNone
	st.Err = nil
	st.StartedAt = time.Now()
	st.FinishedAt = time.Time{}

	tr := m.transfers[action]
	tr.received.Store(0)
	tr.total.Store(0)

	return ctx, nil
}

func (m *Manager) finish(action model.Action, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.cancels[action]; ok {
		cancel()
		delete(m.cancels, action)
	}

	st := m.states[action]
	st.FinishedAt = time.Now()
	if err != nil {
		st.Status = model.StatusFailed
		st.Failure = Classify(err)
		st.Err = err
		return
	}
	st.Status = model.StatusSucceeded
}

func (m *Manager) report(action model.Action, err error) {
	kind := Classify(err)

	if kind == model.FailureCanceled {
		m.logger.Info("action canceled", "action", action.String())
		m.progress(ProgressEvent{Action: action, Message: fmt.Sprintf("%s cancelled", action.Label()), Level: LevelWarning})
		return
	}

	m.logger.Error("action failed", "action", action.String(), "kind", string(kind), "error", err)
	m.progress(ProgressEvent{Action: action, Message: fmt.Sprintf("%s: %v", action.FailureMessage(), err), Level: LevelError})

	if m.notifier != nil {
		m.notifier.Notify(Notification{Action: action, Message: action.FailureMessage(), Kind: kind})
	}
}

// saveBlob stages data as a temporary blob, saves it as name in the
// downloads directory and releases the blob.
func (m *Manager) saveBlob(ctx context.Context, data []byte, contentType, name string) (string, error) {
	ref := m.blobs.Create(data, contentType)
	defer m.blobs.Revoke(ref)

	blob, _ := m.blobs.Get(ref)
	path, err := ioutils.SaveFile(ctx, m.settings.DownloadsPath, name, blob.Data)
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", name, err)
	}
	return path, nil
}

func (m *Manager) tracker(action model.Action) func(read, total int64) {
	tr := m.transfers[action]
	return func(read, total int64) {
		tr.received.Store(read)
		tr.total.Store(total)
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
