package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmModal asks a yes/no question and emits onYes when confirmed.
type confirmModal struct {
	title  string
	prompt string
	onYes  tea.Msg
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Confirm), km.String() == "y", km.String() == "Y":
		yes := c.onYes
		return c, func() tea.Msg { return yes }, true
	case key.Matches(km, keys.Escape), km.String() == "n", km.String() == "N":
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render(c.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(c.prompt))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("y/enter") + styles.MutedText.Render(" confirm   ") +
		styles.AccentText.Render("n/esc") + styles.MutedText.Render(" cancel"))
	return placeModal(theme, width, height, theme.Danger, b.String())
}

// formModal shows a form as a centered dialog.
type formModal struct {
	form form
}

func (f formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	next, cmd, done := f.form.Update(msg, keys)
	f.form = next
	return f, cmd, done
}

func (f formModal) View(theme Theme, width, height int) string {
	return placeModal(theme, width, height, theme.Accent, f.form.render(theme, 44))
}

// placeModal centers content in a rounded box over the screen.
func placeModal(theme Theme, width, height int, borderColor, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
