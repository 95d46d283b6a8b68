package tui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/data-displayer/internal/config"
	"github.com/handiism/data-displayer/internal/model"
	"github.com/handiism/data-displayer/internal/retrieval"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 60), B: uint8(y * 60), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestModel(t *testing.T, handler http.Handler) Model {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	settings := config.DefaultSettings()
	settings.APIBaseURL = srv.URL + "/api"
	settings.DownloadsPath = t.TempDir()
	settings.RequestTimeout = 5

	m, err := NewModel(settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(m.shutdown)
	return m
}

func okBackend(t *testing.T) http.Handler {
	body := testPNG(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	})
	mux.HandleFunc("/api/data/xlsx", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not really a workbook"))
	})
	mux.HandleFunc("/api/data_visualisation", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	})
	return mux
}

func press(m Model, keys string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestInitialView(t *testing.T) {
	m := newTestModel(t, okBackend(t))

	view := m.View()
	for _, action := range model.Actions {
		assert.Contains(t, view, action.Label())
		assert.True(t, m.ButtonEnabled(action), action.String())
	}
	assert.NotContains(t, view, "Loading...")
}

func TestFocusMovement(t *testing.T) {
	m := newTestModel(t, okBackend(t))

	tests := []struct {
		key  string
		want int
	}{
		{"right", 1},
		{"tab", 2},
		{"right", 0},
		{"left", 2},
		{"left", 1},
	}
	for _, tt := range tests {
		m, _ = press(m, tt.key)
		assert.Equal(t, tt.want, m.focus, "after %s", tt.key)
	}
}

func TestTriggerDisablesAllButtons(t *testing.T) {
	m := newTestModel(t, okBackend(t))

	m, cmd := press(m, "j")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, model.ActionJSON, m.running)
	for _, action := range model.Actions {
		assert.False(t, m.ButtonEnabled(action), action.String())
	}
	assert.Equal(t, 3, strings.Count(m.View(), "Loading..."))

	// A second trigger while busy is ignored.
	again, cmd := press(m, "x")
	assert.Nil(t, cmd)
	assert.Equal(t, model.ActionJSON, again.running)

	msg := m.runAction(model.ActionJSON)()
	done, ok := msg.(ActionDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)

	m, _ = update(m, done)
	assert.False(t, m.busy)
	for _, action := range model.Actions {
		assert.True(t, m.ButtonEnabled(action), action.String())
	}
	assert.Equal(t, model.StatusSucceeded, m.Manager().State(model.ActionJSON).Status)
}

func TestAlertIsModal(t *testing.T) {
	m := newTestModel(t, okBackend(t))

	m, _ = update(m, NotifyMsg{Notification: retrieval.Notification{
		Action:  model.ActionXLSX,
		Message: model.ActionXLSX.FailureMessage(),
		Kind:    model.FailureHTTPStatus,
	}})
	require.NotNil(t, m.alert)
	assert.Contains(t, m.View(), "Failed to download XLSX data")

	// Other keys are swallowed while the alert is shown.
	m, cmd := press(m, "j")
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.NotNil(t, m.alert)

	m, _ = press(m, "enter")
	assert.Nil(t, m.alert)
	assert.NotContains(t, m.View(), "Failed to download XLSX data")
}

func TestVisualisationPreview(t *testing.T) {
	m := newTestModel(t, okBackend(t))
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m, _ = press(m, "v")
	require.True(t, m.busy)

	done := m.runAction(model.ActionVisualisation)().(ActionDoneMsg)
	require.NoError(t, done.Err)

	m, cmd := update(m, done)
	require.NotNil(t, cmd)

	preview, ok := cmd().(PreviewMsg)
	require.True(t, ok)
	require.NoError(t, preview.Err)

	m, _ = update(m, preview)
	assert.NotEmpty(t, m.preview)
	assert.Contains(t, m.View(), "▀")
	assert.Contains(t, m.View(), "Visualisation")
}

func TestStalePreviewIgnored(t *testing.T) {
	m := newTestModel(t, okBackend(t))

	m, _ = update(m, PreviewMsg{Ref: "blob:stale", Preview: "old"})
	assert.Empty(t, m.preview)
}

func TestFailureProducesAlert(t *testing.T) {
	m := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	m, _ = press(m, "x")
	done := m.runAction(model.ActionXLSX)().(ActionDoneMsg)
	require.Error(t, done.Err)

	n := <-m.notifications
	assert.Equal(t, "Failed to download XLSX data", n.Message)
	assert.Equal(t, model.FailureHTTPStatus, n.Kind)

	m, _ = update(m, done)
	m, _ = update(m, NotifyMsg{Notification: n})
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "Failed to download XLSX data")
}

func TestProgressLogFiltersVerbose(t *testing.T) {
	m := newTestModel(t, okBackend(t))

	m, _ = update(m, ProgressMsg{Event: retrieval.ProgressEvent{Message: "hidden", Level: retrieval.LevelVerbose}})
	m, _ = update(m, ProgressMsg{Event: retrieval.ProgressEvent{Message: "shown", Level: retrieval.LevelSuccess}})
	require.Len(t, m.logs, 1)
	assert.Equal(t, "shown", m.logs[0].Message)

	m, _ = press(m, "d")
	m, _ = update(m, ProgressMsg{Event: retrieval.ProgressEvent{Message: "debug", Level: retrieval.LevelVerbose}})
	assert.Len(t, m.logs, 2)
}

func TestLogsAreCapped(t *testing.T) {
	m := newTestModel(t, okBackend(t))
	for i := 0; i < maxLogs+5; i++ {
		m.addLog("line", retrieval.LevelInfo)
	}
	assert.Len(t, m.logs, maxLogs)
}

func TestEscQuitsWhenIdle(t *testing.T) {
	m := newTestModel(t, okBackend(t))

	_, cmd := press(m, "esc")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
