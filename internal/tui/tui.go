// Package tui provides a Bubble Tea terminal user interface for data-displayer.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/data-displayer/internal/config"
	ioutils "github.com/handiism/data-displayer/internal/io"
	"github.com/handiism/data-displayer/internal/model"
	"github.com/handiism/data-displayer/internal/retrieval"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 2).
			MarginRight(1)

	focusedButtonStyle = buttonStyle.
				BorderForeground(lipgloss.Color("#F8B500")).
				Foreground(lipgloss.Color("#F8B500")).
				Bold(true)

	disabledButtonStyle = buttonStyle.
				BorderForeground(lipgloss.Color("#6C757D")).
				Foreground(lipgloss.Color("#6C757D"))

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(1, 3)
)

const maxLogs = 10

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   retrieval.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	settings *config.Settings
	manager  *retrieval.Manager
	images   *ioutils.ImageService

	events        chan retrieval.ProgressEvent
	notifications chan retrieval.Notification

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model

	focus   int
	busy    bool
	running model.Action
	verbose bool

	logs       []LogEntry
	alert      *retrieval.Notification
	preview    string
	previewRef string

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates a new TUI model talking to the API configured in settings.
// opts are applied to the retrieval manager after the UI's own notifier and logger.
func NewModel(settings *config.Settings, logger *slog.Logger, opts ...retrieval.Option) (Model, error) {
	events := make(chan retrieval.ProgressEvent, 64)
	notifications := make(chan retrieval.Notification, 16)

	onProgress := func(event retrieval.ProgressEvent) {
		select {
		case events <- event:
		default:
		}
	}
	notifier := retrieval.NotifierFunc(func(n retrieval.Notification) {
		select {
		case notifications <- n:
		default:
			logger.Warn("notification dropped", "action", n.Action.String(), "message", n.Message)
		}
	})

	opts = append([]retrieval.Option{
		retrieval.WithNotifier(notifier),
		retrieval.WithLogger(logger),
	}, opts...)
	manager, err := retrieval.NewManager(settings, onProgress, opts...)
	if err != nil {
		return Model{}, err
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		settings:      settings,
		manager:       manager,
		images:        ioutils.NewImageService(),
		events:        events,
		notifications: notifications,
		keys:          newKeyMap(),
		help:          help.New(),
		spinner:       sp,
		progress:      prog,
		logs:          make([]LogEntry, 0),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events), waitForNotification(m.notifications))
}

// Message types
type (
	// ProgressMsg carries a progress event from the manager.
	ProgressMsg struct {
		Event retrieval.ProgressEvent
	}

	// NotifyMsg carries a failure notification to show as an alert.
	NotifyMsg struct {
		Notification retrieval.Notification
	}

	// ActionDoneMsg is sent when an action settles.
	ActionDoneMsg struct {
		Action model.Action
		Err    error
	}

	// PreviewMsg carries a rendered visualisation.
	PreviewMsg struct {
		Ref     string
		Preview string
		Err     error
	}

	// SavedMsg is sent when the visualisation has been written to disk.
	SavedMsg struct {
		Path string
		Err  error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		if m.previewRef != "" {
			cmds = append(cmds, m.renderPreview())
		}

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Event.Level != retrieval.LevelVerbose || m.verbose {
			m.addLog(msg.Event.Message, msg.Event.Level)
		}
		cmds = append(cmds, waitForEvent(m.events))

	case NotifyMsg:
		n := msg.Notification
		m.alert = &n
		cmds = append(cmds, waitForNotification(m.notifications))

	case ActionDoneMsg:
		if msg.Action == m.running {
			m.busy = false
		}
		if msg.Action == model.ActionVisualisation && msg.Err == nil {
			return m, m.renderPreview()
		}

	case PreviewMsg:
		if ref, _, ok := m.manager.Visualisation(); !ok || ref != msg.Ref {
			// A newer visualisation replaced this one.
			return m, nil
		}
		if msg.Err != nil {
			m.preview = ""
			m.previewRef = msg.Ref
			m.addLog(fmt.Sprintf("Cannot display visualisation: %v", msg.Err), retrieval.LevelWarning)
			return m, nil
		}
		m.preview = msg.Preview
		m.previewRef = msg.Ref

	case SavedMsg:
		if msg.Err != nil {
			m.addLog(fmt.Sprintf("Error saving visualisation: %v", msg.Err), retrieval.LevelError)
		}

	case TickMsg:
		if m.loading() {
			cmds = append(cmds, m.tickProgress())
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.shutdown()
		return m, tea.Quit
	}

	// The alert blocks every other input until dismissed.
	if m.alert != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			m.alert = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.loading() {
			m.manager.CancelAll()
			return m, nil
		}
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Quit):
		if !m.loading() {
			m.shutdown()
			return m, tea.Quit
		}

	case key.Matches(msg, m.keys.Left):
		m.focus = (m.focus + len(model.Actions) - 1) % len(model.Actions)

	case key.Matches(msg, m.keys.Right):
		m.focus = (m.focus + 1) % len(model.Actions)

	case key.Matches(msg, m.keys.Press):
		return m.trigger(model.Actions[m.focus])

	case key.Matches(msg, m.keys.JSON):
		m.focus = 0
		return m.trigger(model.ActionJSON)

	case key.Matches(msg, m.keys.XLSX):
		m.focus = 1
		return m.trigger(model.ActionXLSX)

	case key.Matches(msg, m.keys.Visualisation):
		m.focus = 2
		return m.trigger(model.ActionVisualisation)

	case key.Matches(msg, m.keys.Save):
		if !m.loading() && m.previewRef != "" {
			return m, m.saveVisualisation()
		}

	case key.Matches(msg, m.keys.Verbose):
		m.verbose = !m.verbose
	}

	return m, nil
}

// ButtonEnabled reports whether the button for action accepts input.
func (m Model) ButtonEnabled(action model.Action) bool {
	return !m.loading() && m.manager.Enabled(action)
}

// Manager returns the retrieval manager driving the UI.
func (m Model) Manager() *retrieval.Manager {
	return m.manager
}

func (m Model) loading() bool {
	return m.busy || m.manager.Loading()
}

// trigger starts action unless buttons are disabled. busy is set here,
// before the command runs, so a second key press in the same frame is
// already refused.
func (m Model) trigger(action model.Action) (tea.Model, tea.Cmd) {
	if !m.ButtonEnabled(action) {
		return m, nil
	}
	m.busy = true
	m.running = action
	return m, tea.Batch(m.runAction(action), m.tickProgress())
}

func (m *Model) addLog(message string, level retrieval.ProgressLevel) {
	m.logs = append(m.logs, LogEntry{Message: message, Level: level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) shutdown() {
	m.cancel()
	m.manager.Close()
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// runAction runs the action in the background.
func (m Model) runAction(action model.Action) tea.Cmd {
	manager, ctx := m.manager, m.ctx
	return func() tea.Msg {
		return ActionDoneMsg{Action: action, Err: manager.Run(ctx, action)}
	}
}

// renderPreview renders the displayed visualisation for the current window.
func (m Model) renderPreview() tea.Cmd {
	ref, blob, ok := m.manager.Visualisation()
	if !ok {
		return nil
	}
	columns, rows := m.previewSize()
	images, ctx := m.images, m.ctx
	return func() tea.Msg {
		preview, err := images.Preview(ctx, blob.Data, columns, rows)
		return PreviewMsg{Ref: ref, Preview: preview, Err: err}
	}
}

func (m Model) saveVisualisation() tea.Cmd {
	manager, ctx := m.manager, m.ctx
	return func() tea.Msg {
		path, err := manager.SaveVisualisation(ctx)
		return SavedMsg{Path: path, Err: err}
	}
}

func (m Model) previewSize() (int, int) {
	columns, rows := m.settings.PreviewMaxWidth, m.settings.PreviewMaxHeight
	if m.width > 0 {
		columns = min(columns, max(m.width-4, 10))
	}
	if m.height > 0 {
		rows = min(rows, max(m.height-16, 5))
	}
	return columns, rows
}

func waitForEvent(ch <-chan retrieval.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		return ProgressMsg{Event: <-ch}
	}
}

func waitForNotification(ch <-chan retrieval.Notification) tea.Cmd {
	return func() tea.Msg {
		return NotifyMsg{Notification: <-ch}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Data retrieval app"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("API: " + m.settings.APIBaseURL))
	b.WriteString("\n\n")

	if m.alert != nil {
		b.WriteString(m.viewAlert())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter: dismiss • ctrl+c: quit"))
		return b.String()
	}

	b.WriteString(m.viewButtons())
	b.WriteString("\n\n")

	if m.loading() {
		b.WriteString(m.viewLoading())
		b.WriteString("\n\n")
	}

	if m.preview != "" {
		b.WriteString(subtitleStyle.Render("Visualisation"))
		b.WriteString("\n")
		b.WriteString(m.preview)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(m.help.View(m.helpKeys()))

	return b.String()
}

func (m Model) viewButtons() string {
	buttons := make([]string, len(model.Actions))
	for i, action := range model.Actions {
		label := action.Label()
		if m.loading() {
			label = "Loading..."
		}

		style := buttonStyle
		switch {
		case !m.ButtonEnabled(action):
			style = disabledButtonStyle
		case i == m.focus:
			style = focusedButtonStyle
		}
		buttons[i] = style.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Working on %s...", m.running.String())))
	b.WriteString("\n")

	received, total := m.manager.GetProgress(m.running)
	if total > 0 {
		b.WriteString(m.progress.ViewAs(float64(received) / float64(total)))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("%s / %s", ioutils.FormatBytes(received), ioutils.FormatBytes(total))))
	} else if received > 0 {
		b.WriteString(infoStyle.Render(ioutils.FormatBytes(received)))
	}

	return b.String()
}

func (m Model) viewAlert() string {
	text := errorStyle.Render("✗ "+m.alert.Message) + "\n\n" +
		dimStyle.Render("See the log for details: "+m.settings.LogFile)
	if m.alert.Kind == model.FailureTimeout {
		text += "\n" + warningStyle.Render("The request timed out.")
	}
	return alertStyle.Render(text)
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case retrieval.LevelError:
			style = errorStyle
			prefix = "✗"
		case retrieval.LevelWarning:
			style = warningStyle
			prefix = "!"
		case retrieval.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case retrieval.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

// helpKeys returns the key map with bindings that do nothing right now disabled.
func (m Model) helpKeys() keyMap {
	keys := m.keys
	loading := m.loading()
	keys.Press.SetEnabled(!loading)
	keys.JSON.SetEnabled(!loading)
	keys.XLSX.SetEnabled(!loading)
	keys.Visualisation.SetEnabled(!loading)
	keys.Save.SetEnabled(!loading && m.previewRef != "")
	keys.Quit.SetEnabled(!loading)
	if !loading {
		keys.Cancel.SetHelp("esc", "quit")
	}
	return keys
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *slog.Logger, opts ...retrieval.Option) error {
	m, err := NewModel(settings, logger, opts...)
	if err != nil {
		return err
	}
	defer m.shutdown()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
