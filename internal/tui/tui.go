// Package tui provides a Bubble Tea terminal user interface for rimrust.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/rimrust/internal/config"
	rhttp "github.com/handiism/rimrust/internal/http"
	"github.com/handiism/rimrust/internal/install"
	"github.com/handiism/rimrust/internal/model"
	"github.com/handiism/rimrust/internal/modlist"
	"github.com/handiism/rimrust/internal/steamcmd"
	"go.uber.org/zap"
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

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	modStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInstallingTool
	StateInstalling
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   install.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logger    *zap.Logger
	logs      []LogEntry
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	// SteamCMD executable, empty until located or installed
	toolPath string

	manager *install.Manager
	events  chan install.ProgressEvent
	mods    []model.Mod
	report  *install.Report

	completed int32
	failed    int32
	total     int32

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model. A nil logger discards logs.
func NewModel(settings *config.Settings, logger *zap.Logger) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "mods.json"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logger:    logger,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
	}
	m.toolPath = m.locateTool()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one install progress event.
	ProgressMsg struct {
		Event install.ProgressEvent
	}

	// ToolInstalledMsg is sent when the SteamCMD install finishes.
	ToolInstalledMsg struct {
		Path string
		Err  error
	}

	// InstallDoneMsg is sent when every mod reached a final state.
	InstallDoneMsg struct {
		Report *install.Report
		Err    error
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
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateInstalling || m.state == StateInstallingTool {
				// The run reports back through InstallDoneMsg or ToolInstalledMsg.
				m.cancel()
				m.addLog("Cancelling...", install.LevelWarning)
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				return m.startInstall()
			}

		case "ctrl+t":
			if m.state == StateInput && m.toolPath == "" {
				m.state = StateInstallingTool
				return m, tea.Batch(m.installTool(), m.spinner.Tick)
			}

		case "ctrl+o":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, waitForEvent(m.events))
		if msg.Event.Level != install.LevelVerbose || m.verbose {
			m.addLog(msg.Event.Message, msg.Event.Level)
		}

	case ToolInstalledMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = fmt.Errorf("installing SteamCMD: %w", msg.Err)
			return m, nil
		}
		m.toolPath = msg.Path
		m.state = StateInput
		m.addLog("SteamCMD installed: "+msg.Path, install.LevelSuccess)

	case InstallDoneMsg:
		m.report = msg.Report
		if m.manager != nil {
			m.completed, m.failed, m.total = m.manager.GetProgress()
		}
		switch {
		case msg.Err == nil:
			m.state = StateComplete
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errors.New("cancelled by user")
		default:
			m.state = StateError
			m.err = msg.Err
		}

	case TickMsg:
		if m.manager != nil && m.state == StateInstalling {
			m.completed, m.failed, m.total = m.manager.GetProgress()

			var percent float64
			if m.total > 0 {
				percent = float64(m.completed) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) addLog(message string, level install.ProgressLevel) {
	m.logs = append(m.logs, LogEntry{Message: message, Level: level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.mods = nil
	m.report = nil
	m.manager = nil
	m.events = nil
	m.completed, m.failed, m.total = 0, 0, 0
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.toolPath = m.locateTool()
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// startInstall loads the mod list and launches the run.
func (m Model) startInstall() (tea.Model, tea.Cmd) {
	if m.toolPath == "" {
		m.addLog("SteamCMD not found, press ctrl+t to install it", install.LevelWarning)
		return m, nil
	}

	mods, err := modlist.Load(strings.TrimSpace(m.textInput.Value()))
	if err != nil {
		m.addLog(err.Error(), install.LevelError)
		return m, nil
	}

	events := make(chan install.ProgressEvent, 64)
	m.events = events
	m.mods = mods
	m.manager = install.NewManager(steamcmd.NewRunner(m.settings.WorkshopAppID),
		install.WithLogger(m.logger),
		install.WithProgress(func(e install.ProgressEvent) {
			// Drop events rather than stall installs when the UI lags.
			select {
			case events <- e:
			default:
			}
		}))
	m.state = StateInstalling
	m.total = int32(len(mods))

	return m, tea.Batch(m.runInstall(events), waitForEvent(events), m.tickProgress(), m.spinner.Tick)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func waitForEvent(events <-chan install.ProgressEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: e}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🛠  RimRust"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Install RimWorld workshop mods with SteamCMD"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInstallingTool:
		b.WriteString(m.viewInstallingTool())
	case StateInstalling:
		b.WriteString(m.viewInstalling())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Mod list (JSON or YAML):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	if m.toolPath != "" {
		b.WriteString(successStyle.Render("SteamCMD: " + m.toolPath))
	} else {
		b.WriteString(warningStyle.Render(fmt.Sprintf("SteamCMD: not found in %s (press ctrl+t to install)", m.settings.SteamCMDDir)))
	}
	b.WriteString("\n\n")

	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[×]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+o)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Concurrent installs: %d", m.settings.MaxConcurrentInstalls)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewInstallingTool() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Installing SteamCMD into " + m.settings.SteamCMDDir + "..."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInstalling() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Installing %d mod(s), %d at a time", len(m.mods), m.settings.MaxConcurrentInstalls)))
	b.WriteString("\n\n")

	var percent float64
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("Mods: %d/%d | Failed: %d", m.completed, m.total, m.failed)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var elapsed time.Duration
	if m.report != nil {
		elapsed = m.report.Elapsed.Round(time.Millisecond)
	}

	return boxStyle.Render(fmt.Sprintf(
		"✨ Install Complete!\n\n"+
			"Mods: %d\n"+
			"Time: %s",
		len(m.mods),
		elapsed,
	))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")

	if m.report != nil && !m.report.OK() {
		failures := m.report.Failures()
		b.WriteString(fmt.Sprintf("  %d of %d mod(s) failed:\n", len(failures), len(m.report.Outcomes)))
		for _, f := range failures {
			b.WriteString(modStyle.Render(fmt.Sprintf("  ✗ %s", f.Mod)))
			b.WriteString(dimStyle.Render(fmt.Sprintf(" [%s] %s", f.Kind, f.Diagnostic)))
			b.WriteString("\n")
		}
		if m.ctx.Err() != nil {
			b.WriteString("\n  cancelled by user\n")
		}
	} else if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case install.LevelError:
			style = errorStyle
			prefix = "✗"
		case install.LevelWarning:
			style = warningStyle
			prefix = "!"
		case install.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case install.LevelInfo:
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

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		if m.toolPath == "" {
			return "enter: install mods • ctrl+t: install SteamCMD • ctrl+o: verbose • esc: quit"
		}
		return "enter: install mods • ctrl+o: verbose • esc: quit"
	case StateInstallingTool, StateInstalling:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new install • q: quit"
	}
	return ""
}

func (m Model) locateTool() string {
	if m.settings.SteamCMDPath != "" {
		return m.settings.SteamCMDPath
	}
	path, err := steamcmd.Locate(m.settings.SteamCMDDir)
	if err != nil {
		return ""
	}
	return path
}

// installTool downloads SteamCMD in the background.
func (m Model) installTool() tea.Cmd {
	ctx := m.ctx
	installer := steamcmd.NewInstaller(rhttp.NewClient(m.settings.DownloadTimeout()), m.logger)
	dir := m.settings.SteamCMDDir
	return func() tea.Msg {
		path, err := installer.Install(ctx, dir)
		return ToolInstalledMsg{Path: path, Err: err}
	}
}

// runInstall installs every mod in the background and closes events once
// the run has returned.
func (m Model) runInstall(events chan install.ProgressEvent) tea.Cmd {
	ctx, manager, mods := m.ctx, m.manager, m.mods
	toolPath, concurrency := m.toolPath, m.settings.MaxConcurrentInstalls
	return func() tea.Msg {
		report, err := manager.InstallAll(ctx, mods, toolPath, concurrency)
		close(events)
		return InstallDoneMsg{Report: report, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *zap.Logger) error {
	p := tea.NewProgram(NewModel(settings, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
