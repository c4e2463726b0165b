package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/logtail"
)

// logLevels is the cycle of minimum levels shown in the logs view.
var logLevels = []string{"", "INFO", "WARN", "ERROR"}

type logsMsg struct {
	lines []string
	err   error
}

// logPath returns the client's own log file, or "" when logging is off.
func (m Model) logPath() string {
	if m.config == nil {
		return ""
	}
	return strings.TrimSpace(m.config.LogPath)
}

// loadLogsCmd tails the log file.
func (m Model) loadLogsCmd() tea.Cmd {
	path := m.logPath()
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLimit)
		return logsMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	if msg.err != nil {
		m.setError("Failed to read log", msg.err)
		return
	}
	m.logLines = msg.lines
	m.updateLogViewport()
}

// initLogViewport initializes the log viewport.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-4, 1), max(m.height-5, 1))
}

// updateLogViewport resizes the viewport and re-renders the visible lines.
func (m *Model) updateLogViewport() {
	if m.logViewport.Width == 0 {
		m.initLogViewport()
	}
	// Box height is contentHeight-1 for the status line, minus two borders.
	m.logViewport.Width = max(m.width-4, 1)
	m.logViewport.Height = max(m.contentHeight()-3, 1)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

// logPalette maps the theme onto logtail's colorizer.
func (m Model) logPalette() logtail.Palette {
	bg := lipgloss.Color(m.theme.FocusBg)
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Background(bg)
	}
	return logtail.Palette{
		Time:    fg(m.theme.Muted),
		Logger:  fg(m.theme.Accent),
		Fields:  fg(m.theme.Faint),
		Message: fg(m.theme.Text),
		Levels: map[string]lipgloss.Style{
			"DEBUG": fg(m.theme.Info).Bold(true),
			"INFO":  fg(m.theme.Success).Bold(true),
			"WARN":  fg(m.theme.Warning).Bold(true),
			"ERROR": fg(m.theme.Danger).Bold(true),
		},
	}
}

// visibleLogLines applies the level filter.
func (m Model) visibleLogLines() []string {
	return logtail.FilterLevel(m.logLines, m.logLevel)
}

// renderLogContent renders the colorized log lines.
func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if m.logPath() == "" {
		return bg.FillLine(bg.Render("Logging is disabled (log_path is empty)", styles.MutedText), width)
	}
	lines := m.visibleLogLines()
	if len(lines) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	palette := m.logPalette()
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(bg.FillLine(bg.Space()+palette.ColorizeLine(line), width))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
		}
		return m, nil
	case "r":
		return m, m.loadLogsCmd()
	case "f":
		m.logLevel = nextLogLevel(m.logLevel)
		m.updateLogViewport()
		return m, nil
	case "g", "home":
		m.logFollow = false
		m.logViewport.GotoTop()
		return m, nil
	case "G", "end":
		m.logFollow = true
		m.logViewport.GotoBottom()
		return m, nil
	}

	// Remaining keys scroll; any manual scroll stops following.
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	if !m.logViewport.AtBottom() {
		m.logFollow = false
	}
	return m, cmd
}

func nextLogLevel(current string) string {
	for i, level := range logLevels {
		if level == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles()
	contentHeight := m.contentHeight() - 1

	title := "Client Log"
	if m.logLevel != "" {
		title = fmt.Sprintf("Client Log (%s+)", m.logLevel)
	}
	box := m.renderTitledBox(title, m.logViewport.View(), m.width, contentHeight, true)

	status := fmt.Sprintf("%d lines", len(m.visibleLogLines()))
	status += " • auto-tail " + ternary(m.logFollow, "on", "off")
	if path := m.logPath(); path != "" {
		status += " • " + truncateMiddle(path, 50)
	}
	return box + "\n" + bg.FillLine(bg.Space()+bg.Render(status, styles.FaintText), m.width)
}
